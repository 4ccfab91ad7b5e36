package utils

import (
	"strings"
)

const (
	StringDot   = "."
	StringComma = ","
)

// JoinString 多个字符串拼接，允许使用动态参数
func JoinString(sep string, str ...string) string {
	return strings.Join(str, sep)
}

// FirstNotEmptyString 获取第一个非空字符串
func FirstNotEmptyString(str ...string) string {
	for _, s := range str {
		if s != "" {
			return s
		}
	}
	return ""
}

// UppercaseFirst 首字母大写
func UppercaseFirst(name string) string {
	if len(name) == 0 {
		return name
	}

	return strings.ToUpper(name[:1]) + name[1:]
}

// SplitCamelCase 按照驼峰边界拆分字符串
func SplitCamelCase(name string) (words []string) {
	var current strings.Builder
	for _, r := range name {
		if r >= 'A' && r <= 'Z' && current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return
}
