// Package pipeline
/*
 按注册顺序编排所有启用插件的生命周期钩子
 钩子严格串行执行，后续钩子可以观察到前序钩子对上下文和响应的变更
 schema自省查询不进入插件钩子，StopProcessing置位后不再执行后续钩子
*/
package pipeline

import (
	"fmt"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	"github.com/opentracing/opentracing-go"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

type Runner struct {
	plugins []directives.Plugin
	logger  *zap.Logger
}

func NewRunner(plugins []directives.Plugin) *Runner {
	return &Runner{plugins: plugins, logger: zap.L()}
}

// Plugins 管线持有的插件，保持注册顺序
func (r *Runner) Plugins() []directives.Plugin {
	return r.plugins
}

// ResolveOperation 执行operation解析完成钩子
// 钩子返回错误会中止请求，错误在上游引擎被调用前返回客户端
func (r *Runner) ResolveOperation(octx *directives.OperationContext) error {
	if octx.IsIntrospection {
		return nil
	}

	for _, item := range r.plugins {
		if octx.StopProcessing {
			return nil
		}

		hook, ok := item.(directives.OperationResolvedHook)
		if !ok {
			continue
		}

		if err := hook.ResolveOperation(octx); err != nil {
			return err
		}
	}
	return nil
}

// ResponseForOperation 执行响应替代钩子，第一个非nil响应生效且上游引擎不再被调用
// 自省查询的识别由钩子自行负责
func (r *Runner) ResponseForOperation(octx *directives.OperationContext) (*graphql.ExecutionResult, error) {
	for _, item := range r.plugins {
		if octx.StopProcessing {
			return nil, nil
		}

		hook, ok := item.(directives.ResponseSubstitution)
		if !ok {
			continue
		}

		result, err := hook.ResponseForOperation(octx)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, nil
}

// TransformResponse 执行响应变换钩子
// 只有query类型的operation会被变换；声明了指令的插件仅在指令出现时执行；
// 重放请求中只执行显式标记ReplayCapable的插件；
// 钩子错误转为结构化错误追加到响应，单个插件异常不会中断代理
func (r *Runner) TransformResponse(octx *directives.OperationContext, result *graphql.ExecutionResult) {
	if octx.IsIntrospection || result == nil {
		return
	}

	for _, item := range r.plugins {
		if octx.StopProcessing {
			return
		}

		transform, ok := item.(directives.ResponseTransform)
		if !ok {
			continue
		}

		operation := octx.ResolvedOperation()
		if operation == nil || operation.Operation != ast.Query {
			continue
		}

		var directive *ast.Directive
		directiveDefinition := directives.PluginDirective(item)
		if directiveDefinition != nil {
			if directive = octx.FindDirective(directiveDefinition.Name); directive == nil {
				continue
			}
		}

		if octx.History != nil {
			if _, replayCapable := item.(directives.ReplayCapable); !replayCapable {
				continue
			}
		}

		r.transformWithPlugin(octx, item, transform, directive, operation, result)
	}
}

func (r *Runner) transformWithPlugin(octx *directives.OperationContext, plugin directives.Plugin,
	transform directives.ResponseTransform, directive *ast.Directive,
	operation *ast.OperationDefinition, result *graphql.ExecutionResult) {
	var defaults map[string]interface{}
	if convert, ok := plugin.(directives.CustomDirective); ok {
		defaults = convert.ArgDefaults()
	}

	errorCode := transform.TransformErrorCode()
	args, err := directives.DirectiveArgs(directive, defaults)
	if err != nil {
		result.AddError(err, nil)
		return
	}
	attributes, err := directives.DirectiveAttributes(directive, defaults)
	if err != nil {
		result.AddError(err, nil)
		return
	}

	span, spanCtx := opentracing.StartSpanFromContext(octx.Ctx, plugin.Name())
	defer span.Finish()
	span.SetTag(consts.GraphqlKeyQuery, octx.Request.Query)
	span.SetTag("userID", octx.UserID)
	span.SetTag("directiveName", directiveName(directive))
	for k, v := range attributes {
		span.SetTag(k, v)
	}

	parentCtx := octx.Ctx
	octx.Ctx = spanCtx
	resolver := &directives.TransformResolver{
		OperationContext: octx,
		Operation:        operation,
		Result:           result,
		Args:             args,
		Attributes:       attributes,
		Span:             span,
	}

	defer func() {
		octx.Ctx = parentCtx
		if recovered := recover(); recovered != nil {
			r.logger.Error("plugin transform panicked",
				zap.String("plugin", plugin.Name()), zap.Any("recovered", recovered))
			result.AddError(fmt.Errorf("plugin %s panicked", plugin.Name()),
				map[string]interface{}{graphql.ErrorCodeExtension: errorCode})
		}
	}()
	if err = transform.TransformResponse(resolver); err != nil {
		result.AddError(err, map[string]interface{}{graphql.ErrorCodeExtension: errorCode})
	}
}

func directiveName(directive *ast.Directive) string {
	if directive == nil {
		return ""
	}
	return directive.Name
}
