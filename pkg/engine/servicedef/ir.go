// Package servicedef
/*
 合并schema到协议中间表示的转换
 gRPC、JSON-RPC和REST适配器共用同一套Message/Field/Enum/RemoteProcedureCall，
 全部协议最终都经由Bridge重入网关自身的GraphQL执行路径
*/
package servicedef

import (
	"sort"
	"strings"

	"augment-gateway/pkg/common/utils"
	"github.com/vektah/gqlparser/v2/ast"
)

type (
	Field struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Repeated bool   `json:"repeated"`
		Required bool   `json:"required"`
		Index    int    `json:"index"`
	}
	Message struct {
		Name   string  `json:"name"`
		Fields []Field `json:"fields"`
	}
	Enum struct {
		Name   string   `json:"name"`
		Values []string `json:"values"`
	}
	RemoteProcedureCall struct {
		Name string `json:"name"`
		// GraphQL根字段名，Bridge调用按该名生成operation
		FieldName string `json:"fieldName"`
		Input     string `json:"input"`
		Output    string `json:"output"`
	}
	ServiceDefinition struct {
		Service  string                `json:"service"`
		Messages []Message             `json:"messages"`
		Enums    []Enum                `json:"enums"`
		Calls    []RemoteProcedureCall `json:"calls"`
	}
)

const emptyMessage = "Empty"

var scalarTypes = map[string]string{
	"Int":       "int64",
	"Float":     "double",
	"String":    "string",
	"Boolean":   "bool",
	"ID":        "string",
	"timestamp": "string",
}

// FromSchema 把合并schema转为协议中间表示
// 跳过自省类型和根类型；query根字段转为RPC，入参合成请求Message，出参合成响应Message
func FromSchema(schema *ast.Schema, service string) *ServiceDefinition {
	definition := &ServiceDefinition{Service: service}
	if schema == nil {
		return definition
	}

	rootNames := rootTypeNames(schema)
	typeNames := make([]string, 0, len(schema.Types))
	for name := range schema.Types {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		item := schema.Types[name]
		if strings.HasPrefix(name, "__") {
			continue
		}
		if _, scalar := scalarTypes[name]; scalar || item.Kind == ast.Scalar {
			continue
		}

		switch item.Kind {
		case ast.Enum:
			definition.Enums = append(definition.Enums, enumOf(item))
		case ast.Object, ast.InputObject, ast.Interface:
			if rootNames[name] {
				continue
			}
			definition.Messages = append(definition.Messages, messageOf(item))
		}
	}

	if schema.Query != nil {
		definition.appendCalls(schema.Query)
	}
	if schema.Mutation != nil {
		definition.appendCalls(schema.Mutation)
	}
	return definition
}

func (d *ServiceDefinition) appendCalls(root *ast.Definition) {
	needEmpty := false
	for _, field := range root.Fields {
		if strings.HasPrefix(field.Name, "__") || field.Name == "_service" {
			continue
		}

		callName := utils.UppercaseFirst(field.Name)
		input := emptyMessage
		if len(field.Arguments) > 0 {
			input = callName + "Request"
			d.Messages = append(d.Messages, requestMessageOf(input, field.Arguments))
		} else {
			needEmpty = true
		}
		output := callName + "Response"
		d.Messages = append(d.Messages, Message{
			Name: output,
			Fields: []Field{{
				Name:     field.Name,
				Type:     typeNameOf(field.Type),
				Repeated: isListType(field.Type),
				Index:    1,
			}},
		})
		d.Calls = append(d.Calls, RemoteProcedureCall{
			Name:      callName,
			FieldName: field.Name,
			Input:     input,
			Output:    output,
		})
	}
	if needEmpty && !d.containsMessage(emptyMessage) {
		d.Messages = append(d.Messages, Message{Name: emptyMessage})
	}
}

func (d *ServiceDefinition) containsMessage(name string) bool {
	for _, item := range d.Messages {
		if item.Name == name {
			return true
		}
	}
	return false
}

func messageOf(definition *ast.Definition) Message {
	message := Message{Name: definition.Name}
	for index, field := range definition.Fields {
		if strings.HasPrefix(field.Name, "__") {
			continue
		}
		message.Fields = append(message.Fields, Field{
			Name:     field.Name,
			Type:     typeNameOf(field.Type),
			Repeated: isListType(field.Type),
			Required: field.Type.NonNull,
			Index:    index + 1,
		})
	}
	return message
}

func requestMessageOf(name string, arguments ast.ArgumentDefinitionList) Message {
	message := Message{Name: name}
	for index, argument := range arguments {
		message.Fields = append(message.Fields, Field{
			Name:     argument.Name,
			Type:     typeNameOf(argument.Type),
			Repeated: isListType(argument.Type),
			Required: argument.Type.NonNull,
			Index:    index + 1,
		})
	}
	return message
}

func enumOf(definition *ast.Definition) Enum {
	enum := Enum{Name: definition.Name}
	for _, value := range definition.EnumValues {
		enum.Values = append(enum.Values, value.Name)
	}
	return enum
}

func rootTypeNames(schema *ast.Schema) map[string]bool {
	names := make(map[string]bool, 3)
	for _, root := range []*ast.Definition{schema.Query, schema.Mutation, schema.Subscription} {
		if root != nil {
			names[root.Name] = true
		}
	}
	return names
}

func typeNameOf(t *ast.Type) string {
	name := t.Name()
	if scalar, ok := scalarTypes[name]; ok {
		return scalar
	}
	return name
}

func isListType(t *ast.Type) bool {
	return t.Elem != nil
}
