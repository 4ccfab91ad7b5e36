package proxy

import (
	"bytes"
	"io"
	"net/http"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	"augment-gateway/pkg/engine/pipeline"
	json "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
	"go.uber.org/zap"
)

const (
	ErrorCodeInvalidGraphql    = "INVALID_GRAPHQL"
	ErrorCodeOperationNotFound = "OPERATION_NOT_FOUND"
	ErrorCodeEngineUnreachable = "ENGINE_UNREACHABLE"
	ErrorCodeEngineBadResponse = "ENGINE_BAD_RESPONSE"
)

// Dispatcher 每个入站operation的状态机
// 解析并校验查询，执行插件钩子，剥离网关指令后转发上游引擎或短路重放
type Dispatcher struct {
	runner *pipeline.Runner
	holder *SchemaHolder
	// 代理专用client，转发的截止时间完全由请求context控制
	client *http.Client
	logger *zap.Logger
}

func NewDispatcher(runner *pipeline.Runner, holder *SchemaHolder) *Dispatcher {
	return &Dispatcher{runner: runner, holder: holder, client: &http.Client{}, logger: zap.L()}
}

// Dispatch 调度一次operation，总是返回可序列化的响应信封
// 上游引擎不可达或返回畸形JSON时直接失败，不做重试
func (d *Dispatcher) Dispatch(octx *directives.OperationContext) *graphql.ExecutionResult {
	result := &graphql.ExecutionResult{}
	if octx.IsIntrospection {
		return d.forward(octx, octx.Request.Query, result)
	}

	if !d.resolveOperation(octx, result) {
		return result
	}

	if err := d.runner.ResolveOperation(octx); err != nil {
		result.AddError(err, nil)
		return result
	}
	if octx.StopProcessing {
		return result
	}

	if !d.resolveReplay(octx, result) {
		return result
	}

	substituted, err := d.runner.ResponseForOperation(octx)
	if err != nil {
		result.AddError(err, nil)
		return result
	}
	if octx.StopProcessing {
		return result
	}
	if substituted != nil {
		result = substituted
	} else {
		result = d.forward(octx, octx.ForwardQuery, result)
	}

	d.runner.TransformResponse(octx, result)
	return result
}

// resolveOperation 解析查询文档，按名称定位operation并剥离网关指令
// 管线钩子上的operation保持原始未剥离版本，指令查找依赖它
func (d *Dispatcher) resolveOperation(octx *directives.OperationContext, result *graphql.ExecutionResult) bool {
	doc, parseErr := parser.ParseQuery(&ast.Source{Name: "operation.graphql", Input: octx.Request.Query})
	if parseErr != nil {
		result.AddError(parseErr, map[string]interface{}{graphql.ErrorCodeExtension: ErrorCodeInvalidGraphql})
		return false
	}

	operation := doc.Operations.ForName(octx.Request.OperationName)
	if operation == nil && octx.Request.OperationName == "" && len(doc.Operations) > 0 {
		operation = doc.Operations[0]
	}
	if operation == nil {
		result.AddError(graphql.NewRequestError("operation not found in query document", ErrorCodeOperationNotFound), nil)
		return false
	}

	octx.Doc, octx.Operation = doc, operation
	octx.Schema = d.holder.Schema()

	directiveNames := directives.DirectiveNames(d.runner.Plugins())
	strippedDoc := StripDirectives(doc, directiveNames)
	octx.ForwardQuery = FormatQuery(strippedDoc)
	if octx.Schema == nil {
		return true
	}

	if listErr := validator.Validate(octx.Schema, doc); len(listErr) > 0 {
		for _, item := range listErr {
			result.AddError(item, map[string]interface{}{graphql.ErrorCodeExtension: ErrorCodeInvalidGraphql})
		}
		return false
	}
	return true
}

// resolveReplay 扫描启用插件的重放钩子，命中重放参数时写入上下文
// History非空即标记本次请求为重放请求，变换管线据此过滤插件
func (d *Dispatcher) resolveReplay(octx *directives.OperationContext, result *graphql.ExecutionResult) bool {
	for _, item := range d.runner.Plugins() {
		provider, ok := item.(directives.ReplayDescriptorProvider)
		if !ok {
			continue
		}
		definition := directives.PluginDirective(item)
		if definition == nil {
			continue
		}
		directive := octx.FindDirective(definition.Name)
		if directive == nil {
			continue
		}

		descriptor, err := provider.ReplayDescriptorFromDirective(octx, directive)
		if err != nil {
			result.AddError(err, nil)
			return false
		}
		if descriptor.Replayable() {
			octx.History = descriptor
			return true
		}
	}
	return true
}

// forward 转发查询到上游引擎并把原始JSON响应规范化为内部信封
func (d *Dispatcher) forward(octx *directives.OperationContext, query string, result *graphql.ExecutionResult) *graphql.ExecutionResult {
	engineUri := utils.GetStringWithLockViper(consts.HasuraUri)
	reqBody, err := buildForwardBody(octx.Request, query)
	if err != nil {
		result.AddError(err, map[string]interface{}{graphql.ErrorCodeExtension: ErrorCodeEngineBadResponse})
		return result
	}

	request, err := http.NewRequestWithContext(octx.Ctx, http.MethodPost, engineUri, bytes.NewReader(reqBody))
	if err != nil {
		result.AddError(err, map[string]interface{}{graphql.ErrorCodeExtension: ErrorCodeEngineUnreachable})
		return result
	}
	for k, v := range octx.Headers {
		if k == consts.HeaderParamContentLength {
			continue
		}
		request.Header[k] = v
	}
	request.Header.Set(consts.HeaderParamContentType, consts.ContentTypeJson)
	if adminSecret := utils.GetStringWithLockViper(consts.HasuraAdminSecret); adminSecret != "" {
		request.Header.Set(consts.HeaderParamAdminSecret, adminSecret)
	}

	response, err := d.client.Do(request)
	if err != nil {
		result.AddError(err, map[string]interface{}{graphql.ErrorCodeExtension: ErrorCodeEngineUnreachable})
		return result
	}
	defer func() { _ = response.Body.Close() }()
	respBody, err := io.ReadAll(response.Body)
	if err != nil {
		result.AddError(err, map[string]interface{}{graphql.ErrorCodeExtension: ErrorCodeEngineUnreachable})
		return result
	}
	if !gjson.ValidBytes(respBody) {
		d.logger.Error("engine returned malformed json", zap.Int("status", response.StatusCode))
		result.AddError(graphql.NewRequestError("backing engine returned malformed response", ErrorCodeEngineBadResponse), nil)
		return result
	}

	forwarded := &graphql.ExecutionResult{}
	if err = json.Unmarshal(respBody, forwarded); err != nil {
		result.AddError(err, map[string]interface{}{graphql.ErrorCodeExtension: ErrorCodeEngineBadResponse})
		return result
	}
	forwarded.Errors = append(result.Errors, forwarded.Errors...)
	return forwarded
}

// buildForwardBody 组装转发请求体，operationName和variables为空时整体省略
func buildForwardBody(request *graphql.Request, query string) (body []byte, err error) {
	if body, err = sjson.SetBytes([]byte(`{}`), consts.GraphqlKeyQuery, query); err != nil {
		return
	}
	if request.OperationName != "" {
		if body, err = sjson.SetBytes(body, consts.GraphqlKeyOperationName, request.OperationName); err != nil {
			return
		}
	}
	if len(request.Variables) > 0 {
		body, err = sjson.SetBytes(body, consts.GraphqlKeyVariables, request.Variables)
	}
	return
}
