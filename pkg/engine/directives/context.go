package directives

import (
	"context"
	"net/http"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/engine/graphql"
	"github.com/vektah/gqlparser/v2/ast"
)

// ReplayDescriptor 重放请求的参数，由retain指令解码得到
// 存在ReplayID或时间范围时，调度器短路上游引擎改走历史存储
type ReplayDescriptor struct {
	Collection    string
	ReplayID      string
	ReplayFrom    string
	ReplayTo      string
	DeltaKey      string
	TimeField     string
	Clean         bool
	OperationName string
}

// Replayable 是否携带了触发重放的参数
func (r *ReplayDescriptor) Replayable() bool {
	return r != nil && (r.ReplayID != "" || r.ReplayFrom != "" || r.ReplayTo != "")
}

// OperationContext 每个入站operation的可变状态
// 由上下文工厂创建一次，插件钩子按注册顺序依次读写，响应发出后丢弃
type OperationContext struct {
	Ctx     context.Context
	Request *graphql.Request
	Headers http.Header
	UserID  string

	// 指令剥离后的文档及其中解析出的operation
	Doc          *ast.QueryDocument
	Operation    *ast.OperationDefinition
	ForwardQuery string
	Schema       *ast.Schema

	IsIntrospection bool
	StopProcessing  bool

	// 插件重写后的operation，后续钩子优先使用
	RevisedOperation *ast.OperationDefinition

	History *ReplayDescriptor

	// 需要直接写回原始字节的插件使用，例如文件下载
	Response http.ResponseWriter

	// 通过Bridge显式传入的待注入指令，取代进程级的临时环境变量
	InjectDirective string
}

// NewOperationContext 上下文工厂
func NewOperationContext(ctx context.Context, request *graphql.Request, headers http.Header) *OperationContext {
	userID := consts.AnonymousUser
	if headers != nil {
		if headerUser := headers.Get(consts.HeaderParamUserId); headerUser != "" {
			userID = headerUser
		}
	}
	return &OperationContext{
		Ctx:             ctx,
		Request:         request,
		Headers:         headers,
		UserID:          userID,
		IsIntrospection: graphql.IsIntrospectionQuery(request.Query),
	}
}

// ResolvedOperation 优先返回插件重写后的operation
func (c *OperationContext) ResolvedOperation() *ast.OperationDefinition {
	if c.RevisedOperation != nil {
		return c.RevisedOperation
	}
	return c.Operation
}

// FindDirective 在已解析的operation上查找指令，优先查找重写后的operation
func (c *OperationContext) FindDirective(name string) *ast.Directive {
	for _, operation := range []*ast.OperationDefinition{c.RevisedOperation, c.Operation} {
		if operation == nil {
			continue
		}
		if directive := operation.Directives.ForName(name); directive != nil {
			return directive
		}
	}
	return nil
}
