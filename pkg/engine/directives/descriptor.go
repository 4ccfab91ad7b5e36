package directives

import (
	"bytes"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// RenderDirectiveSDL 将指令声明及其补充定义渲染为SDL文本
// 渲染结果可被parser.ParseSchema还原出相同的名称、参数和默认值
func RenderDirectiveSDL(definition *ast.DirectiveDefinition, definitions ast.DefinitionList) string {
	doc := &ast.SchemaDocument{Definitions: definitions}
	if definition != nil {
		doc.Directives = ast.DirectiveDefinitionList{definition}
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return buf.String()
}

// RenderPluginsSDL 汇总所有启用插件的指令声明和补充定义
func RenderPluginsSDL(plugins []Plugin) string {
	var buf bytes.Buffer
	bufFormatter := formatter.NewFormatter(&buf)
	for _, item := range plugins {
		convert, ok := item.(CustomDirective)
		if !ok {
			continue
		}

		doc := &ast.SchemaDocument{Definitions: convert.Definitions()}
		if definition := convert.Directive(); definition != nil {
			doc.Directives = ast.DirectiveDefinitionList{definition}
		}
		bufFormatter.FormatSchemaDocument(doc)
		_, _ = buf.WriteString("\n")
	}
	return buf.String()
}

// ParseDirectiveSDL 解析SDL文本中的第一条指令声明
func ParseDirectiveSDL(sdl string) (*ast.DirectiveDefinition, error) {
	doc, err := parser.ParseSchema(&ast.Source{Input: sdl})
	if err != nil {
		return nil, err
	}

	if len(doc.Directives) == 0 {
		return nil, nil
	}
	return doc.Directives[0], nil
}
