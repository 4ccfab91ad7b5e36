package graphql

import (
	"crypto/md5"
	"fmt"
	"strings"

	"augment-gateway/pkg/common/utils"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

type (
	TypeFieldPair struct {
		Type  string `json:"type,omitempty" bson:"type,omitempty"`
		Field string `json:"field" bson:"field"`
	}
	TypeFieldPairs []TypeFieldPair
)

// FieldList 遍历查询的选择集，按出现顺序返回(类型,字段)叶子对
// 展开片段引用，对象类型字段继续下钻，叶子字段记录所属对象类型名
func FieldList(doc *ast.QueryDocument, schema *ast.Schema) (pairs TypeFieldPairs) {
	operation := firstOperation(doc)
	if operation == nil || schema == nil {
		return
	}

	rootDefinition := rootObjectDefinition(operation, schema)
	return collectTypeFieldPairs(operation.SelectionSet, rootDefinition, doc, schema, pairs)
}

// FieldListFromQuery 解析查询文本后提取(类型,字段)叶子对
func FieldListFromQuery(query string, schema *ast.Schema) (TypeFieldPairs, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return nil, err
	}

	return FieldList(doc, schema), nil
}

// SelectionHash 对有序的(类型,字段)叶子对取稳定hash，作为独立于查询文本格式的重放检索键
func (pairs TypeFieldPairs) SelectionHash() string {
	items := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		items = append(items, utils.JoinString(utils.StringDot, pair.Type, pair.Field))
	}
	return fmt.Sprintf("%x", md5.Sum([]byte(strings.Join(items, utils.StringComma))))
}

func firstOperation(doc *ast.QueryDocument) *ast.OperationDefinition {
	if len(doc.Operations) == 0 {
		return nil
	}
	return doc.Operations[0]
}

func rootObjectDefinition(operation *ast.OperationDefinition, schema *ast.Schema) *ast.Definition {
	switch operation.Operation {
	case ast.Mutation:
		return schema.Mutation
	case ast.Subscription:
		return schema.Subscription
	default:
		return schema.Query
	}
}

func collectTypeFieldPairs(selections ast.SelectionSet, objectDefinition *ast.Definition,
	doc *ast.QueryDocument, schema *ast.Schema, pairs TypeFieldPairs) TypeFieldPairs {
	for _, selection := range selections {
		switch field := selection.(type) {
		case *ast.Field:
			fieldTypeDefinition := fieldTypeDefinition(field, objectDefinition, schema)
			if fieldTypeDefinition != nil && fieldTypeDefinition.IsCompositeType() && len(field.SelectionSet) > 0 {
				pairs = collectTypeFieldPairs(field.SelectionSet, fieldTypeDefinition, doc, schema, pairs)
				continue
			}
			pair := TypeFieldPair{Field: field.Name}
			if objectDefinition != nil {
				pair.Type = objectDefinition.Name
			}
			pairs = append(pairs, pair)
		case *ast.FragmentSpread:
			fragment := doc.Fragments.ForName(field.Name)
			if fragment == nil {
				continue
			}
			if conditionDefinition := schema.Types[fragment.TypeCondition]; conditionDefinition != nil {
				pairs = collectTypeFieldPairs(fragment.SelectionSet, conditionDefinition, doc, schema, pairs)
			}
		case *ast.InlineFragment:
			conditionDefinition := objectDefinition
			if field.TypeCondition != "" {
				conditionDefinition = schema.Types[field.TypeCondition]
			}
			pairs = collectTypeFieldPairs(field.SelectionSet, conditionDefinition, doc, schema, pairs)
		}
	}
	return pairs
}

func fieldTypeDefinition(field *ast.Field, objectDefinition *ast.Definition, schema *ast.Schema) *ast.Definition {
	if objectDefinition == nil {
		return nil
	}

	fieldDefinition := objectDefinition.Fields.ForName(field.Name)
	if fieldDefinition == nil {
		return nil
	}

	return schema.Types[fieldDefinition.Type.Name()]
}
