package plugins

import (
	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	json "github.com/json-iterator/go"
	"github.com/spf13/cast"
	"github.com/vektah/gqlparser/v2/ast"
)

const clusterDirectiveSDL = `
directive @cluster(
  """Number of clusters. Overrides optimum number of clusters calculation"""
  clusters: Int
) on QUERY
`

const clusterScorerTimeout = 120

// cluster 把响应data发送给外部聚类服务，每条记录的簇编号写入extensions.clusters
// 文本属性由聚类服务向量化，未声明clusters参数时由服务侧推算最优簇数
// 标记了重放可用：对历史数据重新聚类是该插件的主要使用场景
type cluster struct {
	directive *ast.DirectiveDefinition
}

func newCluster() *cluster {
	return &cluster{directive: mustParseDirective(clusterDirectiveSDL)}
}

func (p *cluster) Name() string {
	return "cluster"
}

func (p *cluster) Directive() *ast.DirectiveDefinition {
	return p.directive
}

func (p *cluster) Definitions() ast.DefinitionList {
	return nil
}

func (p *cluster) ArgDefaults() map[string]interface{} {
	return map[string]interface{}{}
}

func (p *cluster) UseWithReplays() {}

func (p *cluster) TransformResponse(resolver *directives.TransformResolver) error {
	scorerUri := utils.GetStringWithLockViper(consts.ClusterScorerUri)
	if scorerUri == "" || len(resolver.Result.Data) == 0 {
		return nil
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		consts.GraphqlKeyData:          resolver.Result.Data,
		"clusters":                     cast.ToInt(resolver.Args["clusters"]),
		consts.GraphqlKeyOperationName: resolver.Request.OperationName,
	})
	if err != nil {
		return err
	}

	respBody, err := utils.HttpPost(scorerUri, reqBody,
		map[string]string{consts.HeaderParamContentType: consts.ContentTypeJson}, clusterScorerTimeout)
	if err != nil {
		return err
	}
	var clusterMap interface{}
	if err = json.Unmarshal(respBody, &clusterMap); err != nil {
		return err
	}

	resolver.Result.AddExtensions(map[string]interface{}{"clusters": clusterMap})
	return nil
}

func (p *cluster) TransformErrorCode() string {
	return "CLUSTER_ERROR"
}
