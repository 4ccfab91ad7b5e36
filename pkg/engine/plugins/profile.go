package plugins

import (
	"fmt"
	"strings"

	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cast"
	"github.com/vektah/gqlparser/v2/ast"
	"golang.org/x/exp/slices"
)

const profileDirectiveSDL = `
directive @profile(
  """If not specified profiles all fields, otherwise a comma delimited list of dot delimited field names."""
  fields: [String]
) on QUERY
`

const profileAllFields = "*"

// profile 为查询结果生成数据画像并写入extensions.profiling
// 每个root数据集按列统计：数值列输出矩统计和分位数，字符串列输出重复值分布，布尔列输出真假计数
// 嵌套对象按点号拍平成列，数组下标不参与列名
type profile struct {
	directive *ast.DirectiveDefinition
}

func newProfile() *profile {
	return &profile{directive: mustParseDirective(profileDirectiveSDL)}
}

func (p *profile) Name() string {
	return "profile"
}

func (p *profile) Directive() *ast.DirectiveDefinition {
	return p.directive
}

func (p *profile) Definitions() ast.DefinitionList {
	return nil
}

func (p *profile) ArgDefaults() map[string]interface{} {
	return map[string]interface{}{"fields": []interface{}{profileAllFields}}
}

func (p *profile) TransformResponse(resolver *directives.TransformResolver) error {
	fields := cast.ToStringSlice(resolver.Args["fields"])
	profiling := make(map[string]interface{}, len(resolver.Result.Data))
	profiledColumns := make(map[string]bool)
	for root, value := range resolver.Result.Data {
		records := datasetOf(value)
		if len(records) == 0 {
			continue
		}

		rootProfile := make(map[string]interface{})
		for column, values := range profileColumns(records) {
			profiledColumns[column] = true
			if !columnSelected(fields, column) {
				continue
			}
			rootProfile[column] = analyzeColumn(values)
		}
		profiling[root] = rootProfile
	}

	if unknown := unknownFields(fields, profiledColumns); len(unknown) > 0 {
		return graphql.NewRequestError(
			fmt.Sprintf("unknown fields in profile directive: %s", strings.Join(unknown, ", ")),
			p.TransformErrorCode())
	}

	resolver.Result.AddExtensions(map[string]interface{}{"profiling": profiling})
	return nil
}

func (p *profile) TransformErrorCode() string {
	return "BAD_FIELD_LIST"
}

func columnSelected(fields []string, column string) bool {
	return slices.Contains(fields, profileAllFields) || slices.Contains(fields, column)
}

func unknownFields(fields []string, profiledColumns map[string]bool) (unknown []string) {
	for _, field := range fields {
		if field != profileAllFields && !profiledColumns[field] {
			unknown = append(unknown, field)
		}
	}
	return
}

// profileColumns 数据集转为列值映射，数组下标段从列名中剔除，空值不参与统计
func profileColumns(records []map[string]interface{}) map[string][]interface{} {
	columns := make(map[string][]interface{})
	for _, record := range records {
		for key, value := range flattenRecord(record) {
			if value == nil {
				continue
			}
			column := normalizeColumnKey(key)
			columns[column] = append(columns[column], value)
		}
	}
	return columns
}

func normalizeColumnKey(key string) string {
	segments := strings.Split(key, ".")
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if isDigits(segment) {
			continue
		}
		kept = append(kept, segment)
	}
	return strings.Join(kept, ".")
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func analyzeColumn(values []interface{}) map[string]interface{} {
	switch values[0].(type) {
	case bool:
		return analyzeBooleanColumn(values)
	case string:
		return analyzeStringColumn(values)
	default:
		numbers := make([]float64, 0, len(values))
		for _, value := range values {
			number, err := cast.ToFloat64E(value)
			if err != nil {
				return analyzeStringColumn(values)
			}
			numbers = append(numbers, number)
		}
		return analyzeNumberColumn(numbers)
	}
}

func analyzeBooleanColumn(values []interface{}) map[string]interface{} {
	counts := map[string]interface{}{"true": 0, "false": 0}
	for _, value := range values {
		key := cast.ToString(value)
		counts[key] = cast.ToInt(counts[key]) + 1
	}
	return map[string]interface{}{"counts": counts}
}

func analyzeStringColumn(values []interface{}) map[string]interface{} {
	counts := make(map[string]int, len(values))
	for _, value := range values {
		counts[cast.ToString(value)]++
	}
	if len(counts) == len(values) {
		return map[string]interface{}{"unique": true}
	}

	dups := make(map[string]interface{})
	countValues := make([]float64, 0, len(counts))
	for name, count := range counts {
		countValues = append(countValues, float64(count))
		if count > 1 {
			dups[name] = count
		}
	}
	return map[string]interface{}{
		"unique": false,
		"dups":   dups,
		"stats":  numericStats(countValues),
	}
}

func analyzeNumberColumn(numbers []float64) map[string]interface{} {
	distinct := make(map[float64]bool, len(numbers))
	for _, number := range numbers {
		distinct[number] = true
	}
	if len(distinct) == len(numbers) {
		return map[string]interface{}{"unique": true}
	}

	return map[string]interface{}{
		"unique":    false,
		"stats":     numericStats(numbers),
		"quartiles": percentileMap(numbers, 25, 50, 75, 100),
		"deciles":   percentileMap(numbers, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	}
}

func numericStats(numbers []float64) map[string]interface{} {
	data := stats.Float64Data(numbers)
	statistics := make(map[string]interface{})
	momentOps := map[string]func(stats.Float64Data) (float64, error){
		"min":      stats.Min,
		"max":      stats.Max,
		"mean":     stats.Mean,
		"median":   stats.Median,
		"variance": stats.Variance,
		"stdev":    stats.StandardDeviation,
		"sum":      stats.Sum,
	}
	for name, momentOp := range momentOps {
		if value, err := momentOp(data); err == nil {
			statistics[name] = value
		}
	}
	if modes, err := stats.Mode(data); err == nil && len(modes) > 0 {
		statistics["mode"] = modes[0]
	}
	return statistics
}

func percentileMap(numbers []float64, percents ...float64) map[string]interface{} {
	data := stats.Float64Data(numbers)
	result := make(map[string]interface{}, len(percents))
	for _, percent := range percents {
		if value, err := stats.Percentile(data, percent); err == nil {
			result[fmt.Sprintf("%v", percent/100)] = value
		}
	}
	return result
}
