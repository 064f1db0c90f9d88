package showcase

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/glintlabs/glint/internal/ui"
)

func TestSampleTable_Deterministic(t *testing.T) {
	first := SampleTable(20)
	second := SampleTable(20)

	if len(first.Rows) != 20 {
		t.Fatalf("Expected 20 rows, got %d", len(first.Rows))
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical tables for the same row count")
	}

	other := SampleTable(21)
	if reflect.DeepEqual(first.Rows[0], other.Rows[0]) {
		t.Error("Expected different data for a different row count")
	}
}

func TestSampleTable_RowShape(t *testing.T) {
	table := SampleTable(3)
	if len(table.Columns) != 4 {
		t.Fatalf("Expected 4 columns, got %v", table.Columns)
	}
	for i, row := range table.Rows {
		if len(row) != 4 {
			t.Fatalf("Row %d has %d cells", i, len(row))
		}
		if _, ok := row[0].(float64); !ok {
			t.Errorf("Row %d: expected float in Category A, got %T", i, row[0])
		}
		group, ok := row[2].(string)
		if !ok || (group != "X" && group != "Y" && group != "Z") {
			t.Errorf("Row %d: unexpected group %v", i, row[2])
		}
	}
}

func TestTableFromAny_JSONRoundTrip(t *testing.T) {
	original := SampleTable(5)

	// A shared cache backend hands back the JSON-decoded shape.
	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	got, err := tableFromAny(decoded)
	if err != nil {
		t.Fatalf("tableFromAny failed: %v", err)
	}
	if !reflect.DeepEqual(got.Columns, original.Columns) {
		t.Errorf("Columns mismatch: %v vs %v", got.Columns, original.Columns)
	}
	if len(got.Rows) != len(original.Rows) {
		t.Fatalf("Expected %d rows, got %d", len(original.Rows), len(got.Rows))
	}
	if ui.Float(got.Rows[0][0]) != ui.Float(original.Rows[0][0]) {
		t.Errorf("Row value mismatch: %v vs %v", got.Rows[0][0], original.Rows[0][0])
	}
}

func TestTableFromAny_RejectsUnknownShape(t *testing.T) {
	if _, err := tableFromAny(42); err == nil {
		t.Error("Expected error for unexpected cached type")
	}
	if _, err := tableFromAny(map[string]any{"columns": []any{"a"}}); err == nil {
		t.Error("Expected error for missing rows")
	}
}

func TestGroupMeans(t *testing.T) {
	groups := []string{"X", "Y", "X"}
	catA := []float64{1, 10, 3}
	catB := []float64{2, 20, 4}

	labels, series := groupMeans(groups, catA, catB)
	if !reflect.DeepEqual(labels, []string{"X", "Y"}) {
		t.Fatalf("Unexpected labels: %v", labels)
	}
	if len(series) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(series))
	}
	if series[0].Values[0] != 2 || series[0].Values[1] != 10 {
		t.Errorf("Unexpected Category A means: %v", series[0].Values)
	}
	if series[1].Values[0] != 3 || series[1].Values[1] != 20 {
		t.Errorf("Unexpected Category B means: %v", series[1].Values)
	}
}
