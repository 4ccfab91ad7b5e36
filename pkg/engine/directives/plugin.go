// Package directives
/*
 插件契约，需要实现接口Plugin
 CustomDirective 声明插件的operation指令及其补充SDL定义，每个插件至多一个指令
 OperationResolvedHook/ResponseSubstitution/ResponseTransform 为可选的生命周期钩子
 插件在init阶段写入静态注册表，注册顺序即管线执行顺序
*/
package directives

import (
	"strings"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/graphql"
	"github.com/opentracing/opentracing-go"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

type (
	Plugin interface {
		Name() string
	}
	// CustomDirective 声明指令名、带默认值的类型化参数及补充定义
	CustomDirective interface {
		Plugin
		Directive() *ast.DirectiveDefinition
		Definitions() ast.DefinitionList
		ArgDefaults() map[string]interface{}
	}
	// OperationResolvedHook 在schema确定将要执行的operation后调用
	// 用于执行前校验和重写，返回错误会中止整个请求
	OperationResolvedHook interface {
		ResolveOperation(octx *OperationContext) error
	}
	// ResponseSubstitution 在转发上游引擎前调用
	// 返回非nil响应时直接使用该响应，上游引擎不再被调用
	ResponseSubstitution interface {
		ResponseForOperation(octx *OperationContext) (*graphql.ExecutionResult, error)
	}
	// ResponseTransform 在响应返回客户端前调用，可变更响应体
	// 钩子内的错误由管线转为结构化错误追加，不会中断代理
	ResponseTransform interface {
		TransformResponse(resolver *TransformResolver) error
		TransformErrorCode() string
	}
	// ReplayCapable 标记插件的响应变换钩子在重放请求中仍然执行
	ReplayCapable interface {
		UseWithReplays()
	}
	// ReplayDescriptorProvider 从自身指令解码重放参数
	// 调度器在转发上游引擎前调用，Replayable时请求改走历史存储
	ReplayDescriptorProvider interface {
		ReplayDescriptorFromDirective(octx *OperationContext, directive *ast.Directive) (*ReplayDescriptor, error)
	}
)

// TransformResolver 响应变换钩子的入参
type TransformResolver struct {
	*OperationContext
	// 解析完成的operation，优先为插件重写后的版本
	Operation *ast.OperationDefinition
	Result    *graphql.ExecutionResult
	// 一次解码的类型化参数及span属性
	Args       map[string]interface{}
	Attributes map[string]interface{}
	Span       opentracing.Span
}

var registeredPlugins []Plugin

// Register 按顺序注册插件，注册顺序决定钩子执行顺序
func Register(plugins ...Plugin) {
	for _, item := range plugins {
		if slices.ContainsFunc(registeredPlugins, func(existed Plugin) bool { return existed.Name() == item.Name() }) {
			zap.L().Warn("plugin already registered", zap.String("name", item.Name()))
			continue
		}
		registeredPlugins = append(registeredPlugins, item)
	}
}

// RegisteredPlugins 全部已注册插件
func RegisteredPlugins() []Plugin {
	return registeredPlugins
}

// EnabledPlugins 根据PLUGINS配置筛选启用的插件，未配置时全部启用，保持注册顺序
func EnabledPlugins() (result []Plugin) {
	enabled := utils.GetStringWithLockViper(consts.EnabledPlugins)
	if enabled == "" {
		return registeredPlugins
	}

	var enabledNames []string
	for _, item := range strings.Split(enabled, utils.StringComma) {
		if item = strings.TrimSpace(item); item != "" {
			enabledNames = append(enabledNames, item)
		}
	}
	for _, item := range registeredPlugins {
		if slices.Contains(enabledNames, item.Name()) {
			result = append(result, item)
		}
	}
	return
}

// DirectiveNames 所有启用插件声明的指令名，调度器据此剥离网关专属指令
func DirectiveNames(plugins []Plugin) (names []string) {
	for _, item := range plugins {
		if convert, ok := item.(CustomDirective); ok {
			if definition := convert.Directive(); definition != nil {
				names = append(names, definition.Name)
			}
		}
	}
	return
}

// PluginDirective 返回插件声明的指令定义，未声明时为nil
func PluginDirective(plugin Plugin) *ast.DirectiveDefinition {
	if convert, ok := plugin.(CustomDirective); ok {
		return convert.Directive()
	}
	return nil
}
