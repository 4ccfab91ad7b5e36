package graphql

import (
	"errors"
	"strings"

	"augment-gateway/pkg/common/consts"
	"github.com/buger/jsonparser"
	json "github.com/json-iterator/go"
)

type Request struct {
	OperationName string                 `json:"operationName,omitempty"`
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// ParseRequestBody 解析graphql-over-http请求体
// 先窥探query字段，缺失时不做完整反序列化直接拒绝
func ParseRequestBody(body []byte) (request *Request, err error) {
	if PeekQuery(body) == "" {
		return nil, errors.New("missing query in request body")
	}

	request = &Request{}
	err = json.Unmarshal(body, request)
	return
}

// PeekQuery 不做完整反序列化，直接提取请求体中的query文本
func PeekQuery(body []byte) string {
	query, err := jsonparser.GetString(body, consts.GraphqlKeyQuery)
	if err != nil {
		return ""
	}
	return query
}

// IsIntrospectionQuery 判断是否为schema自省查询，自省查询不经过插件管线
func IsIntrospectionQuery(query string) bool {
	return strings.Contains(query, consts.GraphqlIntrospectionField)
}
