package directives

import (
	"testing"

	"augment-gateway/pkg/engine/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

func parseOperationDirective(t *testing.T, query string) *ast.Directive {
	t.Helper()
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		t.Fatalf("parse query failed: %v", err)
	}
	return doc.Operations[0].Directives[0]
}

func TestConvertValueNode(t *testing.T) {
	directive := parseOperationDirective(t,
		`query @probe(count: 42, ratio: 0.5, label: "hello", flag: true, mode: FULL, keys: ["a", "b"], empty: null) { f }`)

	args, err := DirectiveArgs(directive, nil)
	if err != nil {
		t.Fatalf("DirectiveArgs failed: %v", err)
	}
	if args["count"] != int64(42) {
		t.Errorf("count = %v (%T), want int64 42", args["count"], args["count"])
	}
	if args["ratio"] != 0.5 {
		t.Errorf("ratio = %v, want 0.5", args["ratio"])
	}
	if args["label"] != "hello" {
		t.Errorf("label = %v, want hello", args["label"])
	}
	if args["flag"] != "true" {
		t.Errorf("flag = %v (%T), want raw string true", args["flag"], args["flag"])
	}
	if args["mode"] != "FULL" {
		t.Errorf("mode = %v, want FULL", args["mode"])
	}
	keys, ok := args["keys"].([]interface{})
	if !ok || len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v, want [a b]", args["keys"])
	}
	if value, existed := args["empty"]; !existed || value != nil {
		t.Errorf("empty = %v, want nil", value)
	}
}

func TestConvertValueNodeRejectsComplexValues(t *testing.T) {
	for name, query := range map[string]string{
		"object":   `query @probe(filter: {id: 1}) { f }`,
		"variable": `query ($v: Int) @probe(count: $v) { f }`,
	} {
		directive := parseOperationDirective(t, query)
		_, err := DirectiveArgs(directive, nil)
		if err == nil {
			t.Fatalf("%s value accepted, want error", name)
		}
		gqlErr, ok := err.(*gqlerror.Error)
		if !ok {
			t.Fatalf("%s error type = %T, want *gqlerror.Error", name, err)
		}
		if code := gqlErr.Extensions[graphql.ErrorCodeExtension]; code != ErrorCodeInvalidDirectiveArgs {
			t.Errorf("%s error code = %v, want %s", name, code, ErrorCodeInvalidDirectiveArgs)
		}
	}
}

func TestDirectiveArgsDefaults(t *testing.T) {
	directive := parseOperationDirective(t, `query @probe(count: 3) { f }`)
	args, err := DirectiveArgs(directive, map[string]interface{}{"count": int64(1), "random": "false"})
	if err != nil {
		t.Fatalf("DirectiveArgs failed: %v", err)
	}
	if args["count"] != int64(3) {
		t.Errorf("explicit count = %v, want 3", args["count"])
	}
	if args["random"] != "false" {
		t.Errorf("default random = %v, want false", args["random"])
	}

	args, err = DirectiveArgs(nil, map[string]interface{}{"count": int64(1)})
	if err != nil || args["count"] != int64(1) {
		t.Errorf("nil directive args = %v, %v, want defaults only", args, err)
	}
}

func TestDirectiveAttributes(t *testing.T) {
	directive := parseOperationDirective(t, `query @probe(keys: [1, "b"], empty: null) { f }`)
	attributes, err := DirectiveAttributes(directive, map[string]interface{}{"count": int64(1)})
	if err != nil {
		t.Fatalf("DirectiveAttributes failed: %v", err)
	}
	keys, ok := attributes["keys"].([]string)
	if !ok || len(keys) != 2 || keys[0] != "1" || keys[1] != "b" {
		t.Errorf("keys attribute = %v, want [1 b]", attributes["keys"])
	}
	if attributes["empty"] != "null" {
		t.Errorf("null attribute = %v, want string null", attributes["empty"])
	}
	if attributes["count"] != int64(1) {
		t.Errorf("default attribute = %v, want 1", attributes["count"])
	}
}
