package plugins

import (
	"fmt"
	"strings"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"go.uber.org/zap"
)

// autoDirective 在operation解析完成后自动补充配置的指令
// 来源有两处：Bridge调用显式携带的待注入指令，以及AUTO_DIRECTIVES全局配置；
// operation上已出现同名指令时不重复注入，注入结果写入RevisedOperation
type autoDirective struct {
	logger *zap.Logger
}

func newAutoDirective() *autoDirective {
	return &autoDirective{logger: zap.L()}
}

func (p *autoDirective) Name() string {
	return "autoDirective"
}

func (p *autoDirective) ResolveOperation(octx *directives.OperationContext) error {
	if octx.Operation == nil || octx.Operation.Operation != ast.Query {
		return nil
	}

	var candidates []string
	if octx.InjectDirective != "" {
		candidates = append(candidates, octx.InjectDirective)
	}
	if configured := utils.GetStringWithLockViper(consts.AutoDirectives); configured != "" {
		for _, item := range strings.Split(configured, utils.StringComma) {
			if item = strings.TrimSpace(item); item != "" {
				candidates = append(candidates, item)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	var injected ast.DirectiveList
	for _, candidate := range candidates {
		directive, err := parseDirectiveUsage(candidate)
		if err != nil {
			// 配置错误只告警，不影响请求
			p.logger.Warn("skipped malformed auto directive",
				zap.String("directive", candidate), zap.Error(err))
			continue
		}
		if octx.FindDirective(directive.Name) != nil {
			continue
		}
		injected = append(injected, directive)
	}
	if len(injected) == 0 {
		return nil
	}

	revised := *octx.Operation
	revised.Directives = append(append(ast.DirectiveList{}, octx.Operation.Directives...), injected...)
	octx.RevisedOperation = &revised
	return nil
}

// parseDirectiveUsage 解析"@name(args...)"形式的指令使用串
func parseDirectiveUsage(usage string) (*ast.Directive, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: "query " + usage + " { __typename }"})
	if err != nil {
		return nil, err
	}

	operation := doc.Operations[0]
	if len(operation.Directives) == 0 {
		return nil, fmt.Errorf("no directive found in %q", usage)
	}
	return operation.Directives[0], nil
}
