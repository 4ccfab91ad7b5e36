package plugins

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/graphql"
	"github.com/tidwall/gjson"
)

func TestClusterDelegatesToScorer(t *testing.T) {
	var scorerBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scorerBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"items":[0,1,0]}`))
	}))
	defer server.Close()
	utils.SetWithLockViper(consts.ClusterScorerUri, server.URL)
	defer utils.SetWithLockViper(consts.ClusterScorerUri, "")

	result := &graphql.ExecutionResult{Data: map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"id": 1},
			map[string]interface{}{"id": 2},
			map[string]interface{}{"id": 3},
		},
	}}
	resolver := &directives.TransformResolver{
		OperationContext: &directives.OperationContext{Request: &graphql.Request{OperationName: "getItems"}},
		Result:           result,
		Args:             map[string]interface{}{"clusters": int64(2)},
	}
	if err := newCluster().TransformResponse(resolver); err != nil {
		t.Fatalf("TransformResponse failed: %v", err)
	}

	parsed := gjson.ParseBytes(scorerBody)
	if parsed.Get("clusters").Int() != 2 {
		t.Errorf("scorer request clusters = %s", parsed.Get("clusters").Raw)
	}
	if parsed.Get("operationName").String() != "getItems" {
		t.Errorf("scorer request operationName = %s", parsed.Get("operationName").Raw)
	}
	if len(parsed.Get("data.items").Array()) != 3 {
		t.Errorf("scorer request data = %s", parsed.Get("data").Raw)
	}

	clusters, ok := result.Extensions["clusters"].(map[string]interface{})
	if !ok {
		t.Fatalf("extensions.clusters = %v", result.Extensions["clusters"])
	}
	if assignments, ok := clusters["items"].([]interface{}); !ok || len(assignments) != 3 {
		t.Errorf("cluster assignments = %v", clusters["items"])
	}
}

func TestClusterSkipsWithoutScorer(t *testing.T) {
	utils.SetWithLockViper(consts.ClusterScorerUri, "")
	result := &graphql.ExecutionResult{Data: map[string]interface{}{"items": []interface{}{}}}
	resolver := &directives.TransformResolver{
		OperationContext: &directives.OperationContext{Request: &graphql.Request{}},
		Result:           result,
		Args:             map[string]interface{}{},
	}
	if err := newCluster().TransformResponse(resolver); err != nil {
		t.Fatalf("TransformResponse failed: %v", err)
	}
	if _, existed := result.Extensions["clusters"]; existed {
		t.Errorf("extensions set without scorer configured")
	}
}
