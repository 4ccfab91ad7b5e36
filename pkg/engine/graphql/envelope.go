// Package graphql
/*
 网关内部统一的响应信封，上游引擎、重放存储及插件管线共用
 Data固定为根字段名到结果集的映射，Errors使用gqlparser的gqlerror类型
*/
package graphql

import (
	"github.com/vektah/gqlparser/v2/gqlerror"
)

const ErrorCodeExtension = "code"

type ExecutionResult struct {
	Data       map[string]interface{} `json:"data,omitempty"`
	Errors     gqlerror.List          `json:"errors,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// AddError 将插件处理错误追加为携带extensions.code的结构化错误
// 与请求中止不同，追加错误后响应仍会携带已有数据返回
func (r *ExecutionResult) AddError(err error, extensions map[string]interface{}) {
	gqlErr := &gqlerror.Error{Message: err.Error(), Extensions: extensions}
	if convert, ok := err.(*gqlerror.Error); ok {
		gqlErr.Message = convert.Message
		gqlErr.Path = convert.Path
		for k, v := range convert.Extensions {
			if gqlErr.Extensions == nil {
				gqlErr.Extensions = make(map[string]interface{})
			}
			if _, existed := gqlErr.Extensions[k]; !existed {
				gqlErr.Extensions[k] = v
			}
		}
	}
	r.Errors = append(r.Errors, gqlErr)
}

// AddExtensions 合并新键到响应的extensions，后写入的键覆盖先写入的
func (r *ExecutionResult) AddExtensions(item map[string]interface{}) {
	if r.Extensions == nil {
		r.Extensions = make(map[string]interface{}, len(item))
	}
	for k, v := range item {
		r.Extensions[k] = v
	}
}

// NewRequestError 构造携带错误码的请求级错误
func NewRequestError(message, code string) *gqlerror.Error {
	return &gqlerror.Error{
		Message:    message,
		Extensions: map[string]interface{}{ErrorCodeExtension: code},
	}
}
