package merge

import (
	"reflect"
	"testing"
)

func TestMergeCollectionsNoLoss(t *testing.T) {
	current := []any{
		map[string]any{"id": "a", "title": "Read"},
		map[string]any{"id": "b", "title": "Write"},
	}
	incoming := []any{
		map[string]any{"id": "c", "title": "Run"},
		map[string]any{"id": "d", "title": "Rest"},
	}

	merged := MergeCollections(current, incoming)
	if len(merged) != len(current)+len(incoming) {
		t.Fatalf("disjoint collections must union: got %d records, want %d", len(merged), 4)
	}
}

func TestMergeCollectionsOrderContract(t *testing.T) {
	current := []any{
		map[string]any{"note": "current unkeyed"},
		map[string]any{"id": "b", "title": "Write"},
		map[string]any{"id": "a", "title": "Read (stale)"},
	}
	incoming := []any{
		map[string]any{"note": "incoming unkeyed"},
		map[string]any{"id": "a", "title": "Read (fresh)"},
		map[string]any{"id": "c", "title": "Run"},
	}

	merged := MergeCollections(current, incoming)

	want := []any{
		map[string]any{"note": "incoming unkeyed"},
		map[string]any{"id": "a", "title": "Read (fresh)"},
		map[string]any{"id": "c", "title": "Run"},
		map[string]any{"id": "b", "title": "Write"},
		map[string]any{"note": "current unkeyed"},
	}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("merged order mismatch:\n got  %v\n want %v", merged, want)
	}
}

func TestMergeCollectionsConflictPrefersNewerTimestamp(t *testing.T) {
	current := []any{
		map[string]any{"id": "a", "title": "newer", "updatedAt": "2026-03-01T12:00:00Z"},
	}
	incoming := []any{
		map[string]any{"id": "a", "title": "older", "updatedAt": "2026-03-01T09:00:00Z"},
	}

	merged := MergeCollections(current, incoming)
	if len(merged) != 1 {
		t.Fatalf("expected 1 record, got %d", len(merged))
	}
	if merged[0].(map[string]any)["title"] != "newer" {
		t.Errorf("record with later updatedAt must win, got %v", merged[0])
	}
}

func TestMergeCollectionsIncomingSelfConflict(t *testing.T) {
	incoming := []any{
		map[string]any{"id": "a", "title": "first", "updatedAt": "2026-03-01T09:00:00Z"},
		map[string]any{"id": "a", "title": "second", "updatedAt": "2026-03-01T11:00:00Z"},
	}

	merged := MergeCollections(nil, incoming)
	if len(merged) != 1 {
		t.Fatalf("duplicate incoming keys must collapse, got %d records", len(merged))
	}
	if merged[0].(map[string]any)["title"] != "second" {
		t.Errorf("later duplicate should win, got %v", merged[0])
	}
}

func TestMergeCollectionsUnkeyedDedup(t *testing.T) {
	shared := map[string]any{"date": "2026-01-05", "targetMinutes": 45.0}
	current := []any{
		map[string]any{"date": "2026-01-05", "targetMinutes": 45.0},
		map[string]any{"date": "2026-01-06", "targetMinutes": 30.0},
	}
	incoming := []any{shared}

	merged := MergeCollections(current, incoming)
	if len(merged) != 2 {
		t.Fatalf("exact-duplicate unkeyed record must merge away, got %d records", len(merged))
	}

	matches := 0
	want := Fingerprint(shared)
	for _, record := range merged {
		if Fingerprint(record) == want {
			matches++
		}
	}
	if matches != 1 {
		t.Errorf("expected exactly one record with the shared fingerprint, got %d", matches)
	}
}

func TestMergeCollectionsDailyTargetsStayUnkeyed(t *testing.T) {
	// Two targets for the same date but different minutes have different
	// fingerprints, so both survive. Date alone never keys a record.
	current := []any{map[string]any{"date": "2026-01-05", "targetMinutes": 45.0}}
	incoming := []any{map[string]any{"date": "2026-01-05", "targetMinutes": 60.0}}

	merged := MergeCollections(current, incoming)
	if len(merged) != 2 {
		t.Errorf("same-date targets with different minutes both survive, got %d records", len(merged))
	}
}

func TestMergeCollectionsCoercesNonArrays(t *testing.T) {
	got := MergeCollections("not an array", map[string]any{"also": "wrong"})
	if len(got) != 0 {
		t.Errorf("non-array inputs coerce to empty, got %v", got)
	}

	keyed := []any{map[string]any{"id": "a"}}
	if merged := MergeCollections(nil, keyed); len(merged) != 1 {
		t.Errorf("nil current side must not drop incoming records, got %v", merged)
	}
	if merged := MergeCollections(keyed, nil); len(merged) != 1 {
		t.Errorf("nil incoming side must not drop current records, got %v", merged)
	}
}
