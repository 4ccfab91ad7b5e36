package plugins

import (
	"strings"
	"testing"
)

func renderDataset() []interface{} {
	return []interface{}{
		map[string]interface{}{
			"id":    1,
			"name":  "alpha",
			"owner": map[string]interface{}{"email": "a@example.com"},
			"tags":  []interface{}{"x", "y"},
		},
		map[string]interface{}{
			"id":   2,
			"name": "beta",
		},
	}
}

func TestTabularize(t *testing.T) {
	headers, rows := tabularize(renderDataset())

	want := []string{"id", "name", "owner.email", "tags.0", "tags.1"}
	if len(headers) != len(want) {
		t.Fatalf("headers = %v, want %v", headers, want)
	}
	for index, header := range want {
		if headers[index] != header {
			t.Errorf("headers[%d] = %s, want %s", index, headers[index], header)
		}
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][2] != "a@example.com" || rows[0][3] != "x" {
		t.Errorf("row 0 = %v, want flattened nested values", rows[0])
	}
	if rows[1][2] != "" {
		t.Errorf("missing column = %q, want empty cell", rows[1][2])
	}
}

func TestTabularizeScalarItems(t *testing.T) {
	headers, rows := tabularize([]interface{}{1, "two"})
	if len(headers) != 1 || headers[0] != "value" {
		t.Fatalf("headers = %v, want single value column", headers)
	}
	if rows[0][0] != "1" || rows[1][0] != "two" {
		t.Errorf("rows = %v", rows)
	}
}

func TestRenderSeparated(t *testing.T) {
	headers, rows := tabularize(renderDataset())
	rendered, err := renderSeparated(headers, rows, ',')
	if err != nil {
		t.Fatalf("renderSeparated failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(rendered), "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered lines = %d, want header plus two rows:\n%s", len(lines), rendered)
	}
	if lines[0] != "id,name,owner.email,tags.0,tags.1" {
		t.Errorf("header line = %s", lines[0])
	}

	tabbed, err := renderSeparated(headers, rows, '\t')
	if err != nil {
		t.Fatalf("renderSeparated tab failed: %v", err)
	}
	if !strings.Contains(tabbed, "id\tname") {
		t.Errorf("tab rendering = %s", tabbed)
	}
}

func TestRenderHTML(t *testing.T) {
	rendered := renderHTML([]string{"name"}, [][]string{{`<b>&"bold"</b>`}})
	if !strings.Contains(rendered, "<th>name</th>") {
		t.Errorf("missing header cell:\n%s", rendered)
	}
	if !strings.Contains(rendered, "&lt;b&gt;&amp;&quot;bold&quot;&lt;/b&gt;") {
		t.Errorf("cell not escaped:\n%s", rendered)
	}
}

func TestRenderMarkdown(t *testing.T) {
	rendered := renderMarkdown([]string{"id", "name"}, [][]string{{"1", "a|b"}})
	lines := strings.Split(strings.TrimSpace(rendered), "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered lines = %d, want header, separator and row:\n%s", len(lines), rendered)
	}
	if lines[1] != "| --- | --- |" {
		t.Errorf("separator line = %s", lines[1])
	}
	if !strings.Contains(lines[2], `a\|b`) {
		t.Errorf("pipe not escaped in cell: %s", lines[2])
	}
}
