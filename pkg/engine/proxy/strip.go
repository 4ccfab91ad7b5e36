package proxy

import (
	"bytes"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"golang.org/x/exp/slices"
)

// StripDirectives 从查询文档中剥离指定名称的指令，返回重建后的新文档
// 输入文档不做任何修改，操作、字段和片段上的指令都会被过滤
func StripDirectives(doc *ast.QueryDocument, names []string) *ast.QueryDocument {
	stripped := &ast.QueryDocument{Position: doc.Position}
	for _, operation := range doc.Operations {
		stripped.Operations = append(stripped.Operations, &ast.OperationDefinition{
			Operation:           operation.Operation,
			Name:                operation.Name,
			VariableDefinitions: operation.VariableDefinitions,
			Directives:          filterDirectives(operation.Directives, names),
			SelectionSet:        stripSelectionSet(operation.SelectionSet, names),
			Position:            operation.Position,
		})
	}
	for _, fragment := range doc.Fragments {
		stripped.Fragments = append(stripped.Fragments, &ast.FragmentDefinition{
			Name:               fragment.Name,
			VariableDefinition: fragment.VariableDefinition,
			TypeCondition:      fragment.TypeCondition,
			Directives:         filterDirectives(fragment.Directives, names),
			SelectionSet:       stripSelectionSet(fragment.SelectionSet, names),
			Definition:         fragment.Definition,
			Position:           fragment.Position,
		})
	}
	return stripped
}

// FormatQuery 将查询文档格式化为可转发的查询文本
func FormatQuery(doc *ast.QueryDocument) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String()
}

func filterDirectives(items ast.DirectiveList, names []string) (kept ast.DirectiveList) {
	for _, item := range items {
		if slices.Contains(names, item.Name) {
			continue
		}
		kept = append(kept, item)
	}
	return
}

func stripSelectionSet(selections ast.SelectionSet, names []string) (result ast.SelectionSet) {
	for _, selection := range selections {
		switch field := selection.(type) {
		case *ast.Field:
			result = append(result, &ast.Field{
				Alias:            field.Alias,
				Name:             field.Name,
				Arguments:        field.Arguments,
				Directives:       filterDirectives(field.Directives, names),
				SelectionSet:     stripSelectionSet(field.SelectionSet, names),
				Position:         field.Position,
				Definition:       field.Definition,
				ObjectDefinition: field.ObjectDefinition,
			})
		case *ast.InlineFragment:
			result = append(result, &ast.InlineFragment{
				TypeCondition:    field.TypeCondition,
				Directives:       filterDirectives(field.Directives, names),
				SelectionSet:     stripSelectionSet(field.SelectionSet, names),
				Position:         field.Position,
				ObjectDefinition: field.ObjectDefinition,
			})
		case *ast.FragmentSpread:
			result = append(result, &ast.FragmentSpread{
				Name:             field.Name,
				Directives:       filterDirectives(field.Directives, names),
				Position:         field.Position,
				ObjectDefinition: field.ObjectDefinition,
				Definition:       field.Definition,
			})
		default:
			result = append(result, selection)
		}
	}
	return
}
