package plugins

import (
	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	json "github.com/json-iterator/go"
	"github.com/spf13/cast"
	"github.com/vektah/gqlparser/v2/ast"
)

const anomaliesDirectiveSDL = `
directive @anomalies(
  """A value in the range of -.5 to .5, being most anomalous to least anomalous. Defaults 0."""
  threshold: Float = 0
  """If set generates a data detection anomaly model that can be reused. When used will not evaluate for suspicious records."""
  modelOut: ModelOutput = NONE
  """Explain where to retrieve a previous model to reuse it. If NONE creates model from input data."""
  modelIn: ModelInput = NONE
  """When using modelIn of BASE64, this is the binary representation of the model"""
  modelInData: String
) on QUERY
`

const anomaliesDefinitionsSDL = `
"""Model output options"""
enum ModelOutput {
  """base64"""
  BASE64
  """database keyed to selection set"""
  SELECTION_SET
  """database keyed to operation name"""
  OPERATION_NAME
  """do not generate a model - create a model from current dataset and then use it to detect suspicious records"""
  NONE
}

"""Model input options"""
enum ModelInput {
  """base64"""
  BASE64
  """database keyed to selection set"""
  SELECTION_SET
  """database keyed to operation name"""
  OPERATION_NAME
  """use input dataset to generate model - and then detect suspicious records"""
  NONE
}
`

const anomaliesScorerTimeout = 120

// anomalies 把响应data发送给外部打分服务做异常检测，低于阈值的记录写入extensions.anomalies
// 标记了重放可用：对历史数据重新评估是该插件的主要使用场景
type anomalies struct {
	directive   *ast.DirectiveDefinition
	definitions ast.DefinitionList
}

func newAnomalies() *anomalies {
	return &anomalies{
		directive:   mustParseDirective(anomaliesDirectiveSDL),
		definitions: mustParseDefinitions(anomaliesDefinitionsSDL),
	}
}

func (p *anomalies) Name() string {
	return "anomalies"
}

func (p *anomalies) Directive() *ast.DirectiveDefinition {
	return p.directive
}

func (p *anomalies) Definitions() ast.DefinitionList {
	return p.definitions
}

func (p *anomalies) ArgDefaults() map[string]interface{} {
	return map[string]interface{}{"threshold": float64(0), "modelOut": "NONE", "modelIn": "NONE"}
}

func (p *anomalies) UseWithReplays() {}

func (p *anomalies) TransformResponse(resolver *directives.TransformResolver) error {
	scorerUri := utils.GetStringWithLockViper(consts.AnomaliesScorerUri)
	if scorerUri == "" || len(resolver.Result.Data) == 0 {
		return nil
	}

	var selectionHash string
	if resolver.Schema != nil {
		pairs, err := graphql.FieldListFromQuery(resolver.Request.Query, resolver.Schema)
		if err != nil {
			return err
		}
		selectionHash = pairs.SelectionHash()
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		consts.GraphqlKeyData:          resolver.Result.Data,
		"threshold":                    cast.ToFloat64(resolver.Args["threshold"]),
		"modelOut":                     cast.ToString(resolver.Args["modelOut"]),
		"modelIn":                      cast.ToString(resolver.Args["modelIn"]),
		"modelInData":                  cast.ToString(resolver.Args["modelInData"]),
		"selectionSetHash":             selectionHash,
		consts.GraphqlKeyOperationName: resolver.Request.OperationName,
	})
	if err != nil {
		return err
	}

	respBody, err := utils.HttpPost(scorerUri, reqBody,
		map[string]string{consts.HeaderParamContentType: consts.ContentTypeJson}, anomaliesScorerTimeout)
	if err != nil {
		return err
	}
	var scored interface{}
	if err = json.Unmarshal(respBody, &scored); err != nil {
		return err
	}

	resolver.Result.AddExtensions(map[string]interface{}{"anomalies": scored})
	return nil
}

func (p *anomalies) TransformErrorCode() string {
	return "ANOMALIES_ERROR"
}
