// Package plugins
/*
 内置插件集合，init阶段写入静态注册表
 注册顺序即管线执行顺序：先执行operation钩子类插件，再执行响应处理类插件
 通过PLUGINS配置可以只启用其中一部分，未配置时全部启用
*/
package plugins

import (
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

func init() {
	utils.RegisterInitMethod(20, func() {
		directives.Register(
			newAutoDirective(),
			newNamingStandards(),
			newQueryHistory(),
			newSample(),
			newValidate(),
			newFieldTracking(),
			newProfile(),
			newAnomalies(),
			newCluster(),
			newFile(),
		)
	})
}

func mustParseDirective(sdl string) *ast.DirectiveDefinition {
	definition, err := directives.ParseDirectiveSDL(sdl)
	if err != nil {
		panic(err)
	}
	return definition
}

func mustParseDefinitions(sdl string) ast.DefinitionList {
	doc, err := parser.ParseSchema(&ast.Source{Input: sdl})
	if err != nil {
		panic(err)
	}
	return doc.Definitions
}

// datasetOf 取出root结果集中的对象行，含非对象元素时返回nil
func datasetOf(value interface{}) []map[string]interface{} {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}

	records := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			return nil
		}
		records = append(records, record)
	}
	return records
}
