package history

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func historyRecord(root string, index int, fields map[string]interface{}) map[string]interface{} {
	record := map[string]interface{}{
		"_id":      primitive.NewObjectID(),
		"replayID": "replay-1",
		"_index":   index,
		"metadata": map[string]interface{}{"root": root},
	}
	for k, v := range fields {
		record[k] = v
	}
	return record
}

func TestGroupByRootAndStripBookkeeping(t *testing.T) {
	records := []map[string]interface{}{
		historyRecord("items", 0, map[string]interface{}{"id": 1, "_timestamp": "2026-01-01 00:00:00"}),
		historyRecord("totals", 0, map[string]interface{}{"count": 7, "_timestamp": "2026-01-01 00:00:00"}),
		historyRecord("items", 1, map[string]interface{}{"id": 2, "_timestamp": "2026-01-01 00:00:01"}),
	}

	grouped := GroupByRoot(records)
	if len(grouped) != 2 {
		t.Fatalf("grouped roots = %d, want 2", len(grouped))
	}
	if len(grouped["items"]) != 2 || len(grouped["totals"]) != 1 {
		t.Fatalf("group sizes = %d/%d, want 2/1", len(grouped["items"]), len(grouped["totals"]))
	}
	if grouped["items"][0]["id"] != 1 || grouped["items"][1]["id"] != 2 {
		t.Errorf("group order not preserved: %v", grouped["items"])
	}

	stripped := StripBookkeeping(grouped["items"][0], "_timestamp")
	if len(stripped) != 1 || stripped["id"] != 1 {
		t.Errorf("stripped = %v, want only id", stripped)
	}

	kept := StripBookkeeping(grouped["items"][0], "")
	if _, existed := kept["_timestamp"]; !existed {
		t.Errorf("timestamp removed with empty timeField: %v", kept)
	}
}

func TestNormalizeRecord(t *testing.T) {
	objectID := primitive.NewObjectID()
	normalized := NormalizeRecord(map[string]interface{}{
		"_id":    objectID,
		"nested": primitive.M{"values": primitive.A{int32(1), int32(2)}},
	})

	if normalized["_id"] != objectID.Hex() {
		t.Errorf("_id = %v, want hex string", normalized["_id"])
	}
	nested, ok := normalized["nested"].(map[string]interface{})
	if !ok {
		t.Fatalf("nested = %T, want plain map", normalized["nested"])
	}
	if values, ok := nested["values"].([]interface{}); !ok || len(values) != 2 {
		t.Errorf("nested values = %v, want plain slice", nested["values"])
	}
}

func TestSortForDelta(t *testing.T) {
	records := []map[string]interface{}{
		{"station": 2, "_timestamp": "2026-01-01 00:00:02"},
		{"station": 1, "_timestamp": "2026-01-01 00:00:01"},
		{"station": 1, "_timestamp": "2026-01-01 00:00:00"},
		{"station": 10, "_timestamp": "2026-01-01 00:00:00"},
	}

	SortForDelta(records, "station", "_timestamp")
	wantStations := []int{1, 1, 2, 10}
	for index, want := range wantStations {
		if records[index]["station"] != want {
			t.Fatalf("records[%d].station = %v, want %d (numeric order)", index, records[index]["station"], want)
		}
	}
	if records[0]["_timestamp"] != "2026-01-01 00:00:00" {
		t.Errorf("time tiebreak not applied: %v", records[0])
	}
}

func TestComputeDeltas(t *testing.T) {
	records := []map[string]interface{}{
		historyRecord("items", 0, map[string]interface{}{
			"station": 1, "temperature": 20.5, "status": "OK", "_timestamp": "2026-01-01 00:00:00",
		}),
		historyRecord("items", 1, map[string]interface{}{
			"station": 1, "temperature": 21.0, "status": "OK", "_timestamp": "2026-01-01 00:00:01",
		}),
		historyRecord("items", 2, map[string]interface{}{
			"station": 1, "temperature": 21.0, "status": "OK", "_timestamp": "2026-01-01 00:00:02",
		}),
		historyRecord("items", 3, map[string]interface{}{
			"station": 2, "temperature": 18.0, "status": "OK", "_timestamp": "2026-01-01 00:00:03",
		}),
	}

	result := ComputeDeltas(records, "station", "_timestamp")
	if len(result) != 3 {
		t.Fatalf("deltas = %d records, want 3 (full, delta, next key full)", len(result))
	}

	if result[0]["temperature"] != 20.5 || result[0]["status"] != "OK" {
		t.Errorf("first record not kept in full: %v", result[0])
	}

	delta := result[1]
	if delta["temperature"] != 21.0 {
		t.Errorf("delta temperature = %v, want 21.0", delta["temperature"])
	}
	if _, existed := delta["status"]; existed {
		t.Errorf("unchanged field kept in delta: %v", delta)
	}
	if delta["station"] != 1 || delta["_timestamp"] != "2026-01-01 00:00:01" {
		t.Errorf("delta missing key or timestamp decoration: %v", delta)
	}

	if result[2]["station"] != 2 || result[2]["temperature"] != 18.0 {
		t.Errorf("new key record not kept in full: %v", result[2])
	}
}

func TestShapeRangeRecordsCleanOnlyAffectsFullRecords(t *testing.T) {
	records := []map[string]interface{}{
		historyRecord("items", 0, map[string]interface{}{
			"station": 1, "temperature": 20.5, "_timestamp": "2026-01-01 00:00:00",
		}),
		historyRecord("items", 1, map[string]interface{}{
			"station": 1, "temperature": 21.0, "_timestamp": "2026-01-01 00:00:01",
		}),
	}
	deltas := ComputeDeltas(records, "station", "_timestamp")

	shaped := shapeRangeRecords(deltas, "_timestamp", true)
	if len(shaped) != 2 {
		t.Fatalf("shaped = %d records, want 2", len(shaped))
	}
	if _, existed := shaped[0]["_timestamp"]; existed {
		t.Errorf("clean kept timestamp on full record: %v", shaped[0])
	}
	if _, existed := shaped[0]["metadata"]; existed {
		t.Errorf("bookkeeping kept on full record: %v", shaped[0])
	}
	if shaped[1]["_timestamp"] != "2026-01-01 00:00:01" {
		t.Errorf("delta record lost its timestamp decoration: %v", shaped[1])
	}

	kept := shapeRangeRecords(deltas, "_timestamp", false)
	if kept[0]["_timestamp"] != "2026-01-01 00:00:00" {
		t.Errorf("timestamp stripped from full record without clean: %v", kept[0])
	}
}

func TestComputeDeltasRemovedField(t *testing.T) {
	records := []map[string]interface{}{
		historyRecord("items", 0, map[string]interface{}{"station": 1, "remark": "first"}),
		historyRecord("items", 1, map[string]interface{}{"station": 1}),
	}

	result := ComputeDeltas(records, "station", "_timestamp")
	if len(result) != 2 {
		t.Fatalf("deltas = %d records, want 2", len(result))
	}
	if value, existed := result[1]["remark"]; !existed || value != nil {
		t.Errorf("removed field not marked nil: %v", result[1])
	}
}
