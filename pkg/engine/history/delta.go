package history

import (
	"sort"
	"strings"
	"time"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

const (
	metadataKeyRoot          = "root"
	metadataKeySelectionHash = "selectionHash"
	metadataKeyFields        = "fields"
)

var bookkeepingKeys = []string{
	consts.HistoryKeyObjectId, consts.HistoryKeyReplayId,
	consts.HistoryKeyIndex, consts.HistoryKeyMetadata,
}

// NormalizeRecord bson文档转为可JSON序列化的普通map
func NormalizeRecord(record map[string]interface{}) map[string]interface{} {
	normalized := make(map[string]interface{}, len(record))
	for k, v := range record {
		normalized[k] = normalizeValue(v)
	}
	return normalized
}

func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.M:
		return NormalizeRecord(v)
	case map[string]interface{}:
		return NormalizeRecord(v)
	case primitive.A:
		items := make([]interface{}, 0, len(v))
		for _, item := range v {
			items = append(items, normalizeValue(item))
		}
		return items
	case []interface{}:
		items := make([]interface{}, 0, len(v))
		for _, item := range v {
			items = append(items, normalizeValue(item))
		}
		return items
	case primitive.DateTime:
		return utils.TimeFormat(v.Time())
	case primitive.ObjectID:
		return v.Hex()
	default:
		return value
	}
}

// StripBookkeeping 删除内部簿记字段，timeField非空时一并删除
func StripBookkeeping(record map[string]interface{}, timeField string) map[string]interface{} {
	stripped := make(map[string]interface{}, len(record))
	for k, v := range record {
		if slices.Contains(bookkeepingKeys, k) || (timeField != "" && k == timeField) {
			continue
		}
		stripped[k] = v
	}
	return stripped
}

// RecordRoot 从metadata中取出记录归属的root
func RecordRoot(record map[string]interface{}) string {
	metadata, ok := record[consts.HistoryKeyMetadata].(map[string]interface{})
	if !ok {
		return ""
	}
	root, _ := metadata[metadataKeyRoot].(string)
	return root
}

// GroupByRoot 按metadata.root还原原始的多root形状，root内保持输入顺序
func GroupByRoot(records []map[string]interface{}) map[string][]map[string]interface{} {
	grouped := make(map[string][]map[string]interface{})
	for _, record := range records {
		root := RecordRoot(record)
		grouped[root] = append(grouped[root], record)
	}
	return grouped
}

// SortForDelta 按deltaKey值优先、时间次之排序；deltaKey为空时仅按时间
func SortForDelta(records []map[string]interface{}, deltaKey, timeField string) {
	sort.SliceStable(records, func(i, j int) bool {
		if deltaKey != "" {
			if compared := compareValues(records[i][deltaKey], records[j][deltaKey]); compared != 0 {
				return compared < 0
			}
		}
		return compareValues(records[i][timeField], records[j][timeField]) < 0
	})
}

// compareValues 数值按数值序，其余按序列化字符串序
func compareValues(left, right interface{}) int {
	leftNumber, leftErr := cast.ToFloat64E(left)
	rightNumber, rightErr := cast.ToFloat64E(right)
	if leftErr == nil && rightErr == nil {
		switch {
		case leftNumber < rightNumber:
			return -1
		case leftNumber > rightNumber:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(comparableString(left), comparableString(right))
}

func comparableString(value interface{}) string {
	switch v := value.(type) {
	case primitive.DateTime:
		return utils.TimeFormat(v.Time())
	case time.Time:
		return utils.TimeFormat(v)
	default:
		return cast.ToString(v)
	}
}

// ComputeDeltas 把共享同一deltaKey值的连续记录折叠为增量记录
// 每个key值的首条记录完整保留，后续记录只保留相对前一条的变更字段；
// 无变更的记录被整体省略，簿记字段不参与比较
func ComputeDeltas(records []map[string]interface{}, deltaKey, timeField string) (result []map[string]interface{}) {
	var previous map[string]interface{}
	var previousKey string
	for _, record := range records {
		comparable := StripBookkeeping(record, timeField)
		key := comparableString(record[deltaKey])
		if previous == nil || previousKey != key {
			result = append(result, record)
			previous, previousKey = comparable, key
			continue
		}

		delta := diffRecords(previous, comparable)
		if len(delta) == 0 {
			previous = comparable
			continue
		}
		delta[deltaKey] = record[deltaKey]
		if timestamp, ok := record[timeField]; ok {
			delta[timeField] = timestamp
		}
		result = append(result, delta)
		previous = comparable
	}
	return
}

// diffRecords 计算当前记录相对前一条的变更字段，含被删除的字段
func diffRecords(previous, current map[string]interface{}) map[string]interface{} {
	delta := make(map[string]interface{})
	for k, v := range current {
		if prev, existed := previous[k]; !existed || !utils.EqualJsonValue(prev, v) {
			delta[k] = v
		}
	}
	for k := range previous {
		if _, existed := current[k]; !existed {
			delta[k] = nil
		}
	}
	return delta
}
