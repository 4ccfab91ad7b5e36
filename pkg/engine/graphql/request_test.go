package graphql

import (
	"testing"
)

func TestPeekQuery(t *testing.T) {
	body := []byte(`{"operationName":"getItems","query":"query getItems { items { id } }","variables":{"limit":5}}`)
	if query := PeekQuery(body); query != "query getItems { items { id } }" {
		t.Errorf("PeekQuery = %q", query)
	}
	if query := PeekQuery([]byte(`{"operationName":"getItems"}`)); query != "" {
		t.Errorf("PeekQuery without query = %q", query)
	}
	if query := PeekQuery([]byte(`not json`)); query != "" {
		t.Errorf("PeekQuery on malformed body = %q", query)
	}
}

func TestParseRequestBody(t *testing.T) {
	request, err := ParseRequestBody([]byte(`{"query":"query { items { id } }","variables":{"limit":5}}`))
	if err != nil {
		t.Fatalf("ParseRequestBody failed: %v", err)
	}
	if request.Query != "query { items { id } }" {
		t.Errorf("query = %q", request.Query)
	}
	if request.Variables["limit"] != float64(5) {
		t.Errorf("variables = %v", request.Variables)
	}
}

func TestParseRequestBodyRejectsMissingQuery(t *testing.T) {
	for name, body := range map[string]string{
		"no query field": `{"operationName":"getItems"}`,
		"empty query":    `{"query":""}`,
		"malformed":      `{]`,
	} {
		if _, err := ParseRequestBody([]byte(body)); err == nil {
			t.Errorf("%s accepted", name)
		}
	}
}
