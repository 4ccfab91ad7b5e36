// Package directives
/*
 自定义operation指令的通用代码
 指令参数只允许标量字面量，对象字面量和变量引用视为硬错误
 参数同时解码为原生值map（插件消费）和属性map（span标注消费）
*/
package directives

import (
	"fmt"
	"strconv"

	"augment-gateway/pkg/engine/graphql"
	"github.com/vektah/gqlparser/v2/ast"
)

const ErrorCodeInvalidDirectiveArgs = "INVALID_TYPE_IN_DIRECTIVE_ARGS"

const complexValueMessage = "complex value in operation directive"

// ConvertValueNode 将指令参数的AST值节点转为原生值
// bool/enum/string保留原始字符串，int/float解析为数字，list递归转换，null转为nil
func ConvertValueNode(value *ast.Value) (interface{}, error) {
	switch value.Kind {
	case ast.BooleanValue, ast.EnumValue, ast.StringValue, ast.BlockValue:
		return value.Raw, nil
	case ast.IntValue:
		return strconv.ParseInt(value.Raw, 10, 64)
	case ast.FloatValue:
		return strconv.ParseFloat(value.Raw, 64)
	case ast.ListValue:
		items := make([]interface{}, 0, len(value.Children))
		for _, child := range value.Children {
			item, err := ConvertValueNode(child.Value)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case ast.NullValue:
		return nil, nil
	default:
		return nil, graphql.NewRequestError(complexValueMessage, ErrorCodeInvalidDirectiveArgs)
	}
}

// DirectiveArgs 解析指令参数并返回map，未显式传递的参数回退到默认值
func DirectiveArgs(directive *ast.Directive, defaults map[string]interface{}) (argMap map[string]interface{}, err error) {
	argMap = make(map[string]interface{}, len(defaults))
	for k, v := range defaults {
		argMap[k] = v
	}
	if directive == nil {
		return
	}

	for _, item := range directive.Arguments {
		if item.Value == nil {
			continue
		}

		if argMap[item.Name], err = ConvertValueNode(item.Value); err != nil {
			return nil, err
		}
	}
	return
}

// DirectiveAttributes 解析指令参数为span属性map
// 属性值不允许嵌套类型，null渲染为字符串"null"，数组渲染为字符串数组
func DirectiveAttributes(directive *ast.Directive, defaults map[string]interface{}) (attributes map[string]interface{}, err error) {
	attributes = make(map[string]interface{}, len(defaults))
	for k, v := range defaults {
		attributes[k] = normalizeAttributeValue(v)
	}
	if directive == nil {
		return
	}

	for _, item := range directive.Arguments {
		if item.Value == nil {
			continue
		}

		if attributes[item.Name], err = convertAttributeValueNode(item.Value); err != nil {
			return nil, err
		}
	}
	return
}

func convertAttributeValueNode(value *ast.Value) (interface{}, error) {
	switch value.Kind {
	case ast.ListValue:
		items := make([]string, 0, len(value.Children))
		for _, child := range value.Children {
			item, err := convertAttributeValueNode(child.Value)
			if err != nil {
				return nil, err
			}
			items = append(items, fmt.Sprintf("%v", item))
		}
		return items, nil
	case ast.NullValue:
		return "null", nil
	default:
		return ConvertValueNode(value)
	}
}

func normalizeAttributeValue(value interface{}) interface{} {
	switch convert := value.(type) {
	case nil:
		return "null"
	case []interface{}:
		items := make([]string, 0, len(convert))
		for _, item := range convert {
			if item == nil {
				items = append(items, "null")
				continue
			}
			items = append(items, fmt.Sprintf("%v", item))
		}
		return items
	case []string:
		return convert
	default:
		return convert
	}
}
