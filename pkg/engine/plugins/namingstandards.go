package plugins

import (
	"fmt"
	"strings"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	"github.com/asaskevich/govalidator"
	"github.com/vektah/gqlparser/v2/ast"
	"golang.org/x/exp/slices"
)

const namingErrorCode = "QUERY_NAME_ERROR"

const namingFormHint = "query operation names are required and must be in the form <verb><object-type><optional noun/adjective list>"

// 未配置NAMING_VERBS时允许的动词前缀
var defaultNamingVerbs = []string{
	"get", "list", "find", "fetch", "search", "query", "count",
	"retrieve", "show", "read", "check", "lookup", "load", "view",
}

// namingStandards 校验query的operation名称符合<动词><对象类型><可选修饰词>格式
// 校验失败置位StopProcessing并中止请求，上游引擎不会被调用
type namingStandards struct{}

func newNamingStandards() *namingStandards {
	return &namingStandards{}
}

func (p *namingStandards) Name() string {
	return "namingStandards"
}

func (p *namingStandards) ResolveOperation(octx *directives.OperationContext) error {
	if octx.Operation == nil || octx.Operation.Operation != ast.Query {
		return nil
	}

	operationName := utils.FirstNotEmptyString(octx.Request.OperationName, octx.Operation.Name)
	if operationName == "" {
		return p.abort(octx, "query operation names are required")
	}

	words := utils.SplitCamelCase(operationName)
	if len(words) < 2 {
		return p.abort(octx, namingFormHint)
	}

	verb := strings.ToLower(words[0])
	if !slices.Contains(p.verbs(), verb) {
		return p.abort(octx, fmt.Sprintf("%s. %q is not a verb", namingFormHint, words[0]))
	}

	remainder := strings.Join(words[1:], "")
	matchedType := p.matchObjectType(octx.Schema, remainder)
	if octx.Schema != nil && matchedType == "" {
		return p.abort(octx, fmt.Sprintf("%s. %q does not start with a known Object Type", namingFormHint, remainder))
	}

	for _, word := range utils.SplitCamelCase(remainder[len(matchedType):]) {
		if !govalidator.IsAlpha(word) {
			return p.abort(octx, fmt.Sprintf("%s. %q does not seem to be an adjective or noun", namingFormHint, word))
		}
	}
	return nil
}

func (p *namingStandards) abort(octx *directives.OperationContext, message string) error {
	octx.StopProcessing = true
	return graphql.NewRequestError(message, namingErrorCode)
}

func (p *namingStandards) verbs() []string {
	if configured := utils.GetStringSliceWithLockViper(consts.NamingVerbs); len(configured) > 0 {
		return configured
	}
	return defaultNamingVerbs
}

// matchObjectType 在schema类型表中找operation名称剩余部分的最长前缀匹配
func (p *namingStandards) matchObjectType(schema *ast.Schema, remainder string) (matched string) {
	if schema == nil {
		return
	}

	lowered := strings.ToLower(remainder)
	for name := range schema.Types {
		if strings.HasPrefix(lowered, strings.ToLower(name)) && len(name) > len(matched) {
			matched = name
		}
	}
	return
}
