package proxy

import (
	"context"
	"net/http"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	json "github.com/json-iterator/go"
	"google.golang.org/protobuf/types/known/structpb"
)

type (
	// InvokeOptions 进程内重入一次GraphQL执行所需的全部输入
	// InjectDirective显式随请求传递，不经过任何进程级共享状态
	InvokeOptions struct {
		OperationName   string
		Query           string
		Variables       map[string]interface{}
		Headers         http.Header
		InjectDirective string
		Response        http.ResponseWriter
	}
	// Bridge 协议适配器和插件的进程内重入入口
	// 直接调用调度器，返回和外部HTTP客户端收到的完全一致的信封
	Bridge struct {
		dispatcher *Dispatcher
	}
)

func NewBridge(dispatcher *Dispatcher) *Bridge {
	return &Bridge{dispatcher: dispatcher}
}

// Invoke 重入网关自身的GraphQL执行路径
// 调用方通过X-Protocol-Encoding标记非原生GraphQL协议时，
// errors和extensions额外做struct编码以兼容无法承载任意JSON的协议
func (b *Bridge) Invoke(ctx context.Context, options *InvokeOptions) *graphql.ExecutionResult {
	request := &graphql.Request{
		OperationName: options.OperationName,
		Query:         options.Query,
		Variables:     options.Variables,
	}
	headers := options.Headers
	if headers == nil {
		headers = http.Header{}
	}

	octx := directives.NewOperationContext(ctx, request, headers)
	octx.InjectDirective = options.InjectDirective
	octx.Response = options.Response
	result := b.dispatcher.Dispatch(octx)
	if headers.Get(consts.HeaderParamProtocolEncoding) == consts.ProtocolEncodingStruct {
		structEncodeResult(result)
	}
	return result
}

func structEncodeResult(result *graphql.ExecutionResult) {
	if result == nil {
		return
	}
	result.Extensions = StructEncode(result.Extensions)
	for _, item := range result.Errors {
		item.Extensions = StructEncode(item.Extensions)
	}
}

// StructEncode 把任意JSON对象编码为google.protobuf.Struct的字面形态
// 编码失败时原样返回，调用方的响应不因编码问题丢失
func StructEncode(values map[string]interface{}) map[string]interface{} {
	if len(values) == 0 {
		return values
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return values
	}
	normalized := make(map[string]interface{}, len(values))
	if err = json.Unmarshal(raw, &normalized); err != nil {
		return values
	}
	encoded, err := structpb.NewStruct(normalized)
	if err != nil {
		return values
	}

	fields := make(map[string]interface{}, len(encoded.GetFields()))
	for k, v := range encoded.GetFields() {
		fields[k] = encodeStructValue(v)
	}
	return map[string]interface{}{"fields": fields}
}

func encodeStructValue(value *structpb.Value) interface{} {
	switch kind := value.GetKind().(type) {
	case *structpb.Value_NullValue:
		return map[string]interface{}{"nullValue": "NULL_VALUE"}
	case *structpb.Value_NumberValue:
		return map[string]interface{}{"numberValue": kind.NumberValue}
	case *structpb.Value_StringValue:
		return map[string]interface{}{"stringValue": kind.StringValue}
	case *structpb.Value_BoolValue:
		return map[string]interface{}{"boolValue": kind.BoolValue}
	case *structpb.Value_StructValue:
		fields := make(map[string]interface{}, len(kind.StructValue.GetFields()))
		for k, v := range kind.StructValue.GetFields() {
			fields[k] = encodeStructValue(v)
		}
		return map[string]interface{}{"structValue": map[string]interface{}{"fields": fields}}
	case *structpb.Value_ListValue:
		values := make([]interface{}, 0, len(kind.ListValue.GetValues()))
		for _, v := range kind.ListValue.GetValues() {
			values = append(values, encodeStructValue(v))
		}
		return map[string]interface{}{"listValue": map[string]interface{}{"values": values}}
	default:
		return nil
	}
}
