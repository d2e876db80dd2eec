package merge

import (
	"reflect"
	"testing"

	"pulseboard/api/internal/dashboard"
)

func int64Ptr(v int64) *int64 { return &v }

func TestResolveCleanOverwrite(t *testing.T) {
	current := dashboard.Empty()
	current["focus"] = "old"
	incoming := map[string]any{"focus": "new"}

	res, err := Resolve(current, incoming, 3, int64Ptr(3))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.MergeApplied {
		t.Error("matching baseRevision must not trigger a merge")
	}
	if res.Revision != 4 {
		t.Errorf("revision = %d, want 4", res.Revision)
	}
	if res.Document["focus"] != "new" {
		t.Errorf("focus = %v, want new", res.Document["focus"])
	}
	if !reflect.DeepEqual(res.Document, dashboard.Normalize(incoming)) {
		t.Error("clean write output must equal the normalized incoming payload")
	}
}

func TestResolveMissingBaseRevisionIsClean(t *testing.T) {
	res, err := Resolve(dashboard.Empty(), map[string]any{"focus": "new"}, 7, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.MergeApplied {
		t.Error("absent baseRevision must be treated as a clean write")
	}
	if res.Revision != 8 {
		t.Errorf("revision = %d, want 8", res.Revision)
	}
}

func TestResolveStaleWriteMerges(t *testing.T) {
	current := dashboard.Empty()
	current["tasks"] = []any{map[string]any{"id": "t1", "title": "Water plants"}}
	incoming := map[string]any{
		"tasks": []any{map[string]any{"id": "t2", "title": "Buy soil"}},
	}

	res, err := Resolve(current, incoming, 10, int64Ptr(8))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.MergeApplied {
		t.Error("stale baseRevision must trigger a merge")
	}
	if res.Revision != 11 {
		t.Errorf("revision = %d, want 11", res.Revision)
	}
	tasks := res.Document["tasks"].([]any)
	if len(tasks) != 2 {
		t.Errorf("stale write must not drop the concurrent task, got %v", tasks)
	}
}

func TestResolveMergeTriggersExactlyOnStaleness(t *testing.T) {
	for base := int64(0); base < 5; base++ {
		res, err := Resolve(dashboard.Empty(), map[string]any{}, 2, int64Ptr(base))
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if want := base != 2; res.MergeApplied != want {
			t.Errorf("base=%d: mergeApplied = %v, want %v", base, res.MergeApplied, want)
		}
		if res.Revision != 3 {
			t.Errorf("base=%d: revision = %d, want 3", base, res.Revision)
		}
	}
}

func TestResolveNormalizesMalformedPayloads(t *testing.T) {
	incoming := map[string]any{
		"tasks":       "definitely not an array",
		"userProfile": []any{"wrong shape"},
		"focus":       12.0,
	}

	res, err := Resolve(dashboard.Empty(), incoming, 0, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if tasks, ok := res.Document["tasks"].([]any); !ok || len(tasks) != 0 {
		t.Errorf("non-array collection must normalize to empty, got %v", res.Document["tasks"])
	}
	profile, ok := res.Document["userProfile"].(map[string]any)
	if !ok || profile["name"] != "" {
		t.Errorf("non-object profile must fall back to default, got %v", res.Document["userProfile"])
	}
	if res.Document["focus"] != "" {
		t.Errorf("non-string focus must fall back to empty, got %v", res.Document["focus"])
	}
}

func TestResolveScalarsAreLastWriterWholeUnit(t *testing.T) {
	current := dashboard.Empty()
	current["userProfile"] = map[string]any{"name": "Avery", "role": "Engineer", "bio": "old bio"}
	current["mapView"] = map[string]any{"lat": 48.8, "lng": 2.3, "zoom": 11.0}
	incoming := map[string]any{
		"userProfile": map[string]any{"name": "Avery", "role": "Staff Engineer", "bio": ""},
	}

	res, err := Resolve(current, incoming, 5, int64Ptr(4))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	profile := res.Document["userProfile"].(map[string]any)
	if profile["role"] != "Staff Engineer" || profile["bio"] != "" {
		t.Errorf("incoming profile replaces the whole object, got %v", profile)
	}
	mapView := res.Document["mapView"].(map[string]any)
	if mapView["lat"] != 48.8 {
		t.Errorf("scalar absent from incoming keeps the current value, got %v", mapView)
	}
}

func TestResolveNilCurrentDocument(t *testing.T) {
	if _, err := Resolve(nil, map[string]any{}, 0, nil); err != ErrNilDocument {
		t.Errorf("expected ErrNilDocument, got %v", err)
	}
}
