package directives

import (
	"strings"
	"testing"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const probeDirectiveSDL = `
"""
采样条数裁剪
"""
directive @probe(count: Int!, random: Boolean = false, mode: ProbeMode = HEAD) on QUERY
`

const probeDefinitionsSDL = `
enum ProbeMode {
  HEAD
  TAIL
}
`

func TestRenderDirectiveSDLRoundTrip(t *testing.T) {
	definition, err := ParseDirectiveSDL(probeDirectiveSDL)
	if err != nil {
		t.Fatalf("parse directive failed: %v", err)
	}

	rendered := RenderDirectiveSDL(definition, nil)
	parsed, err := ParseDirectiveSDL(rendered)
	if err != nil {
		t.Fatalf("parse rendered sdl failed: %v", err)
	}
	if parsed == nil || parsed.Name != definition.Name {
		t.Fatalf("round trip name = %v, want %s", parsed, definition.Name)
	}
	if len(parsed.Arguments) != len(definition.Arguments) {
		t.Fatalf("round trip argument count = %d, want %d", len(parsed.Arguments), len(definition.Arguments))
	}
	for index, argument := range definition.Arguments {
		parsedArgument := parsed.Arguments[index]
		if parsedArgument.Name != argument.Name {
			t.Errorf("argument %d name = %s, want %s", index, parsedArgument.Name, argument.Name)
		}
		if parsedArgument.Type.String() != argument.Type.String() {
			t.Errorf("argument %s type = %s, want %s", argument.Name, parsedArgument.Type.String(), argument.Type.String())
		}
		if argument.DefaultValue != nil {
			if parsedArgument.DefaultValue == nil || parsedArgument.DefaultValue.Raw != argument.DefaultValue.Raw {
				t.Errorf("argument %s default = %v, want %s", argument.Name, parsedArgument.DefaultValue, argument.DefaultValue.Raw)
			}
		}
	}
}

func TestRenderPluginsSDL(t *testing.T) {
	definition, err := ParseDirectiveSDL(probeDirectiveSDL)
	if err != nil {
		t.Fatalf("parse directive failed: %v", err)
	}
	plugin := &fakeDirectivePlugin{name: "probe", directive: definition}

	sdl := RenderPluginsSDL([]Plugin{plugin, &fakePlugin{name: "plain"}})
	if !strings.Contains(sdl, "directive @probe") {
		t.Errorf("rendered sdl missing directive declaration:\n%s", sdl)
	}
	if !strings.Contains(sdl, "enum ProbeMode") {
		t.Errorf("rendered sdl missing supplemental definitions:\n%s", sdl)
	}
}

type fakePlugin struct {
	name string
}

func (p *fakePlugin) Name() string { return p.name }

type fakeDirectivePlugin struct {
	name      string
	directive *ast.DirectiveDefinition
}

func (p *fakeDirectivePlugin) Name() string { return p.name }

func (p *fakeDirectivePlugin) Directive() *ast.DirectiveDefinition { return p.directive }

func (p *fakeDirectivePlugin) Definitions() ast.DefinitionList {
	doc, err := parser.ParseSchema(&ast.Source{Input: probeDefinitionsSDL})
	if err != nil {
		panic(err)
	}
	return doc.Definitions
}

func (p *fakeDirectivePlugin) ArgDefaults() map[string]interface{} { return nil }
