package pipeline

import (
	"context"
	"testing"

	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const probeDirectiveSDL = `directive @probe(count: Int!, random: Boolean = false) on QUERY`

type probePlugin struct {
	directive *ast.DirectiveDefinition
	calls     int
	lastArgs  map[string]interface{}
	err       error
}

func newProbePlugin(t *testing.T) *probePlugin {
	t.Helper()
	definition, err := directives.ParseDirectiveSDL(probeDirectiveSDL)
	if err != nil {
		t.Fatalf("parse directive failed: %v", err)
	}
	return &probePlugin{directive: definition}
}

func (p *probePlugin) Name() string { return "probe" }

func (p *probePlugin) Directive() *ast.DirectiveDefinition { return p.directive }

func (p *probePlugin) Definitions() ast.DefinitionList { return nil }

func (p *probePlugin) ArgDefaults() map[string]interface{} {
	return map[string]interface{}{"random": "false"}
}

func (p *probePlugin) TransformResponse(resolver *directives.TransformResolver) error {
	p.calls++
	p.lastArgs = resolver.Args
	return p.err
}

func (p *probePlugin) TransformErrorCode() string { return "PROBE_ERROR" }

// replayProbePlugin 在重放请求中仍然执行
type replayProbePlugin struct {
	probePlugin
}

func (p *replayProbePlugin) UseWithReplays() {}

type resolveHookPlugin struct {
	name  string
	calls int
	fn    func(octx *directives.OperationContext) error
}

func (p *resolveHookPlugin) Name() string { return p.name }

func (p *resolveHookPlugin) ResolveOperation(octx *directives.OperationContext) error {
	p.calls++
	if p.fn != nil {
		return p.fn(octx)
	}
	return nil
}

type substitutionPlugin struct {
	name   string
	calls  int
	result *graphql.ExecutionResult
}

func (p *substitutionPlugin) Name() string { return p.name }

func (p *substitutionPlugin) ResponseForOperation(octx *directives.OperationContext) (*graphql.ExecutionResult, error) {
	p.calls++
	return p.result, nil
}

func newTestOperationContext(t *testing.T, query string) *directives.OperationContext {
	t.Helper()
	octx := directives.NewOperationContext(context.Background(), &graphql.Request{Query: query}, nil)
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		t.Fatalf("parse query failed: %v", err)
	}
	octx.Doc = doc
	octx.Operation = doc.Operations[0]
	return octx
}

func TestTransformResponseDirectiveGating(t *testing.T) {
	plugin := newProbePlugin(t)
	runner := NewRunner([]directives.Plugin{plugin})
	result := &graphql.ExecutionResult{Data: map[string]interface{}{"items": []interface{}{}}}

	runner.TransformResponse(newTestOperationContext(t, `query { items { id } }`), result)
	if plugin.calls != 0 {
		t.Fatalf("plugin ran without its directive, calls = %d", plugin.calls)
	}

	runner.TransformResponse(newTestOperationContext(t, `query @probe(count: 2) { items { id } }`), result)
	if plugin.calls != 1 {
		t.Fatalf("plugin did not run with directive present, calls = %d", plugin.calls)
	}
	if plugin.lastArgs["count"] != int64(2) {
		t.Errorf("decoded count = %v, want 2", plugin.lastArgs["count"])
	}
	if plugin.lastArgs["random"] != "false" {
		t.Errorf("default random = %v, want false", plugin.lastArgs["random"])
	}
}

func TestTransformResponseSkipsMutations(t *testing.T) {
	plugin := newProbePlugin(t)
	runner := NewRunner([]directives.Plugin{plugin})
	result := &graphql.ExecutionResult{}

	runner.TransformResponse(newTestOperationContext(t, `mutation @probe(count: 2) { insert { id } }`), result)
	if plugin.calls != 0 {
		t.Errorf("plugin ran on mutation, calls = %d", plugin.calls)
	}
}

func TestTransformResponseStopProcessing(t *testing.T) {
	plugin := newProbePlugin(t)
	runner := NewRunner([]directives.Plugin{plugin})
	octx := newTestOperationContext(t, `query @probe(count: 2) { items { id } }`)
	octx.StopProcessing = true

	runner.TransformResponse(octx, &graphql.ExecutionResult{})
	if plugin.calls != 0 {
		t.Errorf("plugin ran after stopProcessing, calls = %d", plugin.calls)
	}
}

func TestTransformResponseReplayGating(t *testing.T) {
	plain := newProbePlugin(t)
	replayable := &replayProbePlugin{probePlugin: *newProbePlugin(t)}
	runner := NewRunner([]directives.Plugin{plain, replayable})
	octx := newTestOperationContext(t, `query @probe(count: 2) { items { id } }`)
	octx.History = &directives.ReplayDescriptor{ReplayID: "replay-1"}

	runner.TransformResponse(octx, &graphql.ExecutionResult{})
	if plain.calls != 0 {
		t.Errorf("plain plugin ran during replay, calls = %d", plain.calls)
	}
	if replayable.calls != 1 {
		t.Errorf("replay capable plugin skipped during replay, calls = %d", replayable.calls)
	}
}

func TestTransformResponseTrapsError(t *testing.T) {
	plugin := newProbePlugin(t)
	plugin.err = graphql.NewRequestError("boom", "PROBE_ERROR")
	runner := NewRunner([]directives.Plugin{plugin})
	result := &graphql.ExecutionResult{Data: map[string]interface{}{"items": []interface{}{}}}

	runner.TransformResponse(newTestOperationContext(t, `query @probe(count: 2) { items { id } }`), result)
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want one trapped error", result.Errors)
	}
	if code := result.Errors[0].Extensions[graphql.ErrorCodeExtension]; code != "PROBE_ERROR" {
		t.Errorf("error code = %v, want PROBE_ERROR", code)
	}
	if result.Data == nil {
		t.Errorf("data dropped after trapped error")
	}
}

func TestResolveOperationAbort(t *testing.T) {
	first := &resolveHookPlugin{name: "first", fn: func(octx *directives.OperationContext) error {
		return graphql.NewRequestError("bad name", "QUERY_NAME_ERROR")
	}}
	second := &resolveHookPlugin{name: "second"}
	runner := NewRunner([]directives.Plugin{first, second})

	err := runner.ResolveOperation(newTestOperationContext(t, `query { items { id } }`))
	if err == nil {
		t.Fatalf("hook error swallowed")
	}
	if second.calls != 0 {
		t.Errorf("later hook ran after abort, calls = %d", second.calls)
	}
}

func TestResolveOperationStopProcessing(t *testing.T) {
	first := &resolveHookPlugin{name: "first", fn: func(octx *directives.OperationContext) error {
		octx.StopProcessing = true
		return nil
	}}
	second := &resolveHookPlugin{name: "second"}
	runner := NewRunner([]directives.Plugin{first, second})

	if err := runner.ResolveOperation(newTestOperationContext(t, `query { items { id } }`)); err != nil {
		t.Fatalf("ResolveOperation failed: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("later hook ran after stopProcessing, calls = %d", second.calls)
	}
}

func TestResponseForOperationShortCircuit(t *testing.T) {
	first := &substitutionPlugin{name: "first"}
	second := &substitutionPlugin{name: "second", result: &graphql.ExecutionResult{
		Data: map[string]interface{}{"items": []interface{}{map[string]interface{}{"id": 1}}},
	}}
	third := &substitutionPlugin{name: "third"}
	runner := NewRunner([]directives.Plugin{first, second, third})

	result, err := runner.ResponseForOperation(newTestOperationContext(t, `query { items { id } }`))
	if err != nil {
		t.Fatalf("ResponseForOperation failed: %v", err)
	}
	if result != second.result {
		t.Errorf("result = %v, want substitution from second plugin", result)
	}
	if third.calls != 0 {
		t.Errorf("later substitution ran after short circuit, calls = %d", third.calls)
	}
}
