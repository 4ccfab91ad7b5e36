package proxy

import (
	"testing"
)

func TestStructEncode(t *testing.T) {
	encoded := StructEncode(map[string]interface{}{
		"replayID": "replay-1",
		"counts":   []interface{}{1, 2},
		"nested":   map[string]interface{}{"enabled": true},
		"missing":  nil,
	})

	fields, ok := encoded["fields"].(map[string]interface{})
	if !ok {
		t.Fatalf("encoded = %v, want fields wrapper", encoded)
	}

	replayID, ok := fields["replayID"].(map[string]interface{})
	if !ok || replayID["stringValue"] != "replay-1" {
		t.Errorf("replayID = %v, want stringValue", fields["replayID"])
	}

	counts, ok := fields["counts"].(map[string]interface{})
	if !ok {
		t.Fatalf("counts = %v, want listValue wrapper", fields["counts"])
	}
	listValue := counts["listValue"].(map[string]interface{})
	values := listValue["values"].([]interface{})
	if len(values) != 2 || values[0].(map[string]interface{})["numberValue"] != float64(1) {
		t.Errorf("counts values = %v, want numberValue entries", values)
	}

	nested, ok := fields["nested"].(map[string]interface{})
	if !ok {
		t.Fatalf("nested = %v, want structValue wrapper", fields["nested"])
	}
	structValue := nested["structValue"].(map[string]interface{})
	nestedFields := structValue["fields"].(map[string]interface{})
	if enabled := nestedFields["enabled"].(map[string]interface{}); enabled["boolValue"] != true {
		t.Errorf("nested enabled = %v, want boolValue true", nestedFields["enabled"])
	}

	missing, ok := fields["missing"].(map[string]interface{})
	if !ok || missing["nullValue"] != "NULL_VALUE" {
		t.Errorf("missing = %v, want nullValue", fields["missing"])
	}
}

func TestStructEncodeEmpty(t *testing.T) {
	if encoded := StructEncode(nil); encoded != nil {
		t.Errorf("encoded nil = %v, want nil", encoded)
	}
	empty := map[string]interface{}{}
	if encoded := StructEncode(empty); len(encoded) != 0 {
		t.Errorf("encoded empty = %v, want unchanged", encoded)
	}
}
