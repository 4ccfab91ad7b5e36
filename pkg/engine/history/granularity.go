// Package history
/*
 查询历史子系统，基于MongoDB时序集合
 每条查询结果行存为一个文档，携带共享replayID、按root递增的序号和插入时间戳
 重放按replayID精确匹配，或按选择集hash加时间窗检索并可选计算增量
*/
package history

import "strings"

// Granularity 时序集合的时间分桶粒度，集合创建后不可变更
type Granularity string

const (
	GranularitySeconds Granularity = "SECONDS"
	GranularityMinutes Granularity = "MINUTES"
	GranularityHours   Granularity = "HOURS"
)

// BucketName mongo时序集合要求的小写粒度名
func (g Granularity) BucketName() string {
	switch g {
	case GranularityMinutes:
		return "minutes"
	case GranularityHours:
		return "hours"
	default:
		return "seconds"
	}
}

// ParseGranularity 非法值回落到SECONDS
func ParseGranularity(value string) Granularity {
	switch Granularity(strings.ToUpper(value)) {
	case GranularityMinutes:
		return GranularityMinutes
	case GranularityHours:
		return GranularityHours
	default:
		return GranularitySeconds
	}
}
