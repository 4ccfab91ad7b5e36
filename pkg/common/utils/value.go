package utils

import (
	"bytes"
	"reflect"

	json "github.com/json-iterator/go"
)

// EqualJsonValue 按JSON序列化结果比较两个值是否等价
// 不同数值类型承载的相同值视为相等
func EqualJsonValue(left, right interface{}) bool {
	if reflect.DeepEqual(left, right) {
		return true
	}

	leftRaw, leftErr := json.Marshal(left)
	rightRaw, rightErr := json.Marshal(right)
	return leftErr == nil && rightErr == nil && bytes.Equal(leftRaw, rightRaw)
}
