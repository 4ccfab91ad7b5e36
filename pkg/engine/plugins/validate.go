package plugins

import (
	"errors"

	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cast"
	"github.com/vektah/gqlparser/v2/ast"
)

const validateDirectiveSDL = `
directive @validate(jsonSchema: String!, verbose: Boolean = true, allErrors: Boolean = true, strict: Boolean = false) on QUERY
`

// validate 用指令内联的JSON Schema校验响应data，校验结果写入extensions.validation
// schema本身不合法时报BAD_JSON_SCHEMA_VALIDATOR，并把schema原文附到错误extensions便于排查
type validate struct {
	directive *ast.DirectiveDefinition
}

func newValidate() *validate {
	return &validate{directive: mustParseDirective(validateDirectiveSDL)}
}

func (p *validate) Name() string {
	return "validate"
}

func (p *validate) Directive() *ast.DirectiveDefinition {
	return p.directive
}

func (p *validate) Definitions() ast.DefinitionList {
	return nil
}

func (p *validate) ArgDefaults() map[string]interface{} {
	return map[string]interface{}{"verbose": "true", "allErrors": "true", "strict": "false"}
}

func (p *validate) TransformResponse(resolver *directives.TransformResolver) error {
	jsonSchema := cast.ToString(resolver.Args["jsonSchema"])
	verbose := cast.ToBool(resolver.Args["verbose"])
	allErrors := cast.ToBool(resolver.Args["allErrors"])
	strict := cast.ToBool(resolver.Args["strict"])

	schema := &openapi3.Schema{}
	if err := schema.UnmarshalJSON([]byte(jsonSchema)); err != nil {
		p.addSchemaError(resolver, jsonSchema, err)
		return nil
	}
	if strict {
		if err := schema.Validate(resolver.Ctx); err != nil {
			p.addSchemaError(resolver, jsonSchema, err)
			return nil
		}
	}

	data := make(map[string]interface{}, len(resolver.Result.Data))
	for k, v := range resolver.Result.Data {
		data[k] = v
	}
	var visitOptions []openapi3.SchemaValidationOption
	if allErrors {
		visitOptions = append(visitOptions, openapi3.MultiErrors())
	}
	validationErrors := collectValidationErrors(schema.VisitJSON(data, visitOptions...), verbose)
	resolver.Result.AddExtensions(map[string]interface{}{
		"validation": map[string]interface{}{"errors": validationErrors},
	})
	return nil
}

func (p *validate) TransformErrorCode() string {
	return "BAD_JSON_SCHEMA_VALIDATOR"
}

func (p *validate) addSchemaError(resolver *directives.TransformResolver, jsonSchema string, err error) {
	resolver.Result.AddError(err, map[string]interface{}{
		graphql.ErrorCodeExtension: p.TransformErrorCode(),
		"jsonSchema":               jsonSchema,
	})
}

// collectValidationErrors 展开校验错误，verbose时携带字段定位和实际值
func collectValidationErrors(err error, verbose bool) []interface{} {
	validationErrors := make([]interface{}, 0)
	if err == nil {
		return validationErrors
	}

	items := []error{err}
	var multiError openapi3.MultiError
	if errors.As(err, &multiError) {
		items = multiError
	}
	for _, item := range items {
		var schemaError *openapi3.SchemaError
		if verbose && errors.As(item, &schemaError) {
			validationErrors = append(validationErrors, map[string]interface{}{
				"message":     schemaError.Error(),
				"reason":      schemaError.Reason,
				"schemaField": schemaError.SchemaField,
				"value":       schemaError.Value,
			})
			continue
		}
		validationErrors = append(validationErrors, map[string]interface{}{"message": item.Error()})
	}
	return validationErrors
}
