package plugins

import (
	"math/rand"

	"augment-gateway/pkg/engine/directives"
	"github.com/spf13/cast"
	"github.com/vektah/gqlparser/v2/ast"
)

const sampleDirectiveSDL = `
directive @sample(count: Int!, random: Boolean = false, fromEnd: Boolean = false) on QUERY
`

// sample 把每个root结果集裁剪为采样条数，原始条数写入extensions.actualDatasetSize
// 适合和validate等全量处理插件组合：全量留存和校验，小样本返回
type sample struct {
	directive *ast.DirectiveDefinition
}

func newSample() *sample {
	return &sample{directive: mustParseDirective(sampleDirectiveSDL)}
}

func (p *sample) Name() string {
	return "sample"
}

func (p *sample) Directive() *ast.DirectiveDefinition {
	return p.directive
}

func (p *sample) Definitions() ast.DefinitionList {
	return nil
}

func (p *sample) ArgDefaults() map[string]interface{} {
	return map[string]interface{}{"random": "false", "fromEnd": "false"}
}

func (p *sample) TransformResponse(resolver *directives.TransformResolver) error {
	count := cast.ToInt(resolver.Args["count"])
	random := cast.ToBool(resolver.Args["random"])
	fromEnd := cast.ToBool(resolver.Args["fromEnd"])

	actualDatasetSize := make(map[string]interface{})
	for root, value := range resolver.Result.Data {
		items, ok := value.([]interface{})
		if !ok {
			continue
		}

		actualDatasetSize[root] = len(items)
		resolver.Result.Data[root] = sampleDataset(items, count, random, fromEnd)
	}
	resolver.Result.AddExtensions(map[string]interface{}{"actualDatasetSize": actualDatasetSize})
	return nil
}

func (p *sample) TransformErrorCode() string {
	return "PROBLEM_WITH_SAMPLING"
}

func sampleDataset(items []interface{}, count int, random, fromEnd bool) []interface{} {
	if count < 0 {
		count = 0
	}
	if count >= len(items) {
		return items
	}

	switch {
	case random:
		sampled := make([]interface{}, 0, count)
		for _, index := range rand.Perm(len(items))[:count] {
			sampled = append(sampled, items[index])
		}
		return sampled
	case fromEnd:
		return items[len(items)-count:]
	default:
		return items[:count]
	}
}
