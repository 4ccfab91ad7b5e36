package servicedef

import (
	"github.com/getkin/kin-openapi/openapi3"
	json "github.com/json-iterator/go"
)

// JSONSchema 把中间表示渲染为JSON Schema文档，供REST和JSON-RPC适配器消费
func (d *ServiceDefinition) JSONSchema() ([]byte, error) {
	schemas := make(openapi3.Schemas, len(d.Messages)+len(d.Enums))
	for _, enum := range d.Enums {
		values := make([]interface{}, 0, len(enum.Values))
		for _, value := range enum.Values {
			values = append(values, value)
		}
		schemas[enum.Name] = openapi3.NewSchemaRef("", &openapi3.Schema{
			Type: openapi3.TypeString,
			Enum: values,
		})
	}
	for _, message := range d.Messages {
		schemas[message.Name] = openapi3.NewSchemaRef("", messageSchema(message))
	}

	return json.MarshalIndent(map[string]interface{}{
		"service": d.Service,
		"schemas": schemas,
		"calls":   d.Calls,
	}, "", "  ")
}

func messageSchema(message Message) *openapi3.Schema {
	schema := &openapi3.Schema{
		Type:       openapi3.TypeObject,
		Properties: make(openapi3.Schemas, len(message.Fields)),
	}
	for _, field := range message.Fields {
		fieldRef := fieldSchemaRef(field.Type)
		if field.Repeated {
			fieldRef = openapi3.NewSchemaRef("", &openapi3.Schema{
				Type:  openapi3.TypeArray,
				Items: fieldRef,
			})
		}
		schema.Properties[field.Name] = fieldRef
		if field.Required {
			schema.Required = append(schema.Required, field.Name)
		}
	}
	return schema
}

func fieldSchemaRef(typeName string) *openapi3.SchemaRef {
	switch typeName {
	case "int64":
		return openapi3.NewSchemaRef("", &openapi3.Schema{Type: openapi3.TypeInteger, Format: "int64"})
	case "double":
		return openapi3.NewSchemaRef("", &openapi3.Schema{Type: openapi3.TypeNumber, Format: "double"})
	case "bool":
		return openapi3.NewSchemaRef("", &openapi3.Schema{Type: openapi3.TypeBoolean})
	case "string":
		return openapi3.NewSchemaRef("", &openapi3.Schema{Type: openapi3.TypeString})
	default:
		return openapi3.NewSchemaRef("#/schemas/"+typeName, nil)
	}
}
