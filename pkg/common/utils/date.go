package utils

import (
	"strconv"
	"time"
)

// TimeFormat 按照2006-01-02T15:04:05.999999999Z07:00格式转换输入时间
func TimeFormat(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTimeOrRelativeDays 解析RFC3339时间或者相对天数（负数表示从当前时间往前推）
func ParseTimeOrRelativeDays(value string, now time.Time) (t time.Time, err error) {
	if days, numberErr := strconv.ParseFloat(value, 64); numberErr == nil {
		t = now.Add(time.Duration(days * 24 * float64(time.Hour)))
		return
	}

	if t, err = time.Parse(time.RFC3339Nano, value); err == nil {
		return
	}

	t, err = time.Parse(time.RFC3339, value)
	return
}
