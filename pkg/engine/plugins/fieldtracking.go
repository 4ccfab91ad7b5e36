package plugins

import (
	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	"github.com/opentracing/opentracing-go"
)

// fieldTracking 不声明指令，对每个query生效
// 把选择集的每个(type, field)对上报为独立span，用于字段级使用度分析
type fieldTracking struct{}

func newFieldTracking() *fieldTracking {
	return &fieldTracking{}
}

func (p *fieldTracking) Name() string {
	return "fieldTracking"
}

func (p *fieldTracking) TransformResponse(resolver *directives.TransformResolver) error {
	if len(resolver.Result.Data) == 0 || resolver.Schema == nil {
		return nil
	}

	pairs, err := graphql.FieldListFromQuery(resolver.Request.Query, resolver.Schema)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		span := opentracing.StartSpan("field-tracking", opentracing.ChildOf(resolver.Span.Context()))
		span.SetTag("directiveName", "field-tracking")
		span.SetTag(consts.GraphqlKeyQuery, resolver.Request.Query)
		span.SetTag("field", utils.JoinString(utils.StringDot, pair.Type, pair.Field))
		span.Finish()
	}
	return nil
}

func (p *fieldTracking) TransformErrorCode() string {
	return "FIELD_TRACKING_ERROR"
}
