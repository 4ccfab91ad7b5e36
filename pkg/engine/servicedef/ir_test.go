package servicedef

import (
	"strings"
	"testing"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

const serviceSchemaSDL = `
type Query {
  items(limit: Int!, status: Status): [Item]
  totals: Totals
}

type Item {
  id: ID!
  name: String
  score: Float
}

type Totals {
  count: Int
}

enum Status {
  ACTIVE
  ARCHIVED
}
`

func loadServiceSchema(t *testing.T) *ast.Schema {
	t.Helper()
	schema, err := gqlparser.LoadSchema(&ast.Source{Input: serviceSchemaSDL})
	if err != nil {
		t.Fatalf("load schema failed: %v", err)
	}
	return schema
}

func findMessage(definition *ServiceDefinition, name string) *Message {
	for index := range definition.Messages {
		if definition.Messages[index].Name == name {
			return &definition.Messages[index]
		}
	}
	return nil
}

func TestFromSchema(t *testing.T) {
	definition := FromSchema(loadServiceSchema(t), "AugmentGateway")

	if definition.Service != "AugmentGateway" {
		t.Errorf("service = %s", definition.Service)
	}
	if len(definition.Enums) != 1 || definition.Enums[0].Name != "Status" || len(definition.Enums[0].Values) != 2 {
		t.Errorf("enums = %v, want Status with two values", definition.Enums)
	}

	item := findMessage(definition, "Item")
	if item == nil {
		t.Fatalf("Item message missing, messages = %v", definition.Messages)
	}
	if len(item.Fields) != 3 {
		t.Fatalf("Item fields = %v", item.Fields)
	}
	if item.Fields[0].Type != "string" || !item.Fields[0].Required || item.Fields[0].Index != 1 {
		t.Errorf("id field = %+v, want required string at index 1", item.Fields[0])
	}
	if item.Fields[2].Type != "double" {
		t.Errorf("score field = %+v, want double", item.Fields[2])
	}

	if findMessage(definition, "Query") != nil {
		t.Errorf("root type leaked into messages")
	}
	for _, message := range definition.Messages {
		if strings.HasPrefix(message.Name, "__") {
			t.Errorf("introspection type leaked: %s", message.Name)
		}
	}
}

func TestFromSchemaCalls(t *testing.T) {
	definition := FromSchema(loadServiceSchema(t), "AugmentGateway")

	if len(definition.Calls) != 2 {
		t.Fatalf("calls = %v, want Items and Totals", definition.Calls)
	}

	items := definition.Calls[0]
	if items.Name != "Items" || items.FieldName != "items" {
		t.Errorf("first call = %+v", items)
	}
	if items.Input != "ItemsRequest" || items.Output != "ItemsResponse" {
		t.Errorf("items call wiring = %+v", items)
	}
	request := findMessage(definition, "ItemsRequest")
	if request == nil || len(request.Fields) != 2 {
		t.Fatalf("ItemsRequest = %v", request)
	}
	if request.Fields[0].Name != "limit" || request.Fields[0].Type != "int64" || !request.Fields[0].Required {
		t.Errorf("limit argument = %+v", request.Fields[0])
	}
	response := findMessage(definition, "ItemsResponse")
	if response == nil || len(response.Fields) != 1 || !response.Fields[0].Repeated || response.Fields[0].Type != "Item" {
		t.Errorf("ItemsResponse = %v", response)
	}

	totals := definition.Calls[1]
	if totals.Input != "Empty" {
		t.Errorf("argument free call input = %s, want Empty", totals.Input)
	}
	if findMessage(definition, "Empty") == nil {
		t.Errorf("Empty message not synthesized")
	}
}

func TestRenderProto(t *testing.T) {
	definition := FromSchema(loadServiceSchema(t), "AugmentGateway")
	rendered, err := definition.RenderProto("gateway")
	if err != nil {
		t.Fatalf("RenderProto failed: %v", err)
	}

	for _, want := range []string{
		"syntax = \"proto3\";",
		"package gateway;",
		"service AugmentGateway",
		"message Item",
		"enum Status",
		"repeated Item items",
		"rpc Items(ItemsRequest) returns (ItemsResponse);",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("rendered proto missing %q:\n%s", want, rendered)
		}
	}
}
