package search

import (
	"context"
	"encoding/json"
	"testing"
)

func TestItemsFromDocument(t *testing.T) {
	doc := map[string]any{
		"tasks": []any{
			map[string]any{"id": "t1", "title": "Water plants", "notes": "balcony first"},
			map[string]any{"id": "t2"}, // no text, skipped
		},
		"goals": []any{
			map[string]any{"id": "g1", "title": "Learn piano"},
		},
		"mapPins": []any{
			map[string]any{"id": "p1", "title": "Favorite cafe"}, // not an indexed collection
		},
		"recipes": "not an array",
	}

	items := ItemsFromDocument("user-1", doc)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	for _, item := range items {
		if item.UserID != "user-1" {
			t.Errorf("item should carry the user id, got %+v", item)
		}
		for _, r := range item.ID {
			ok := r == '-' || r == '_' ||
				(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !ok {
				t.Errorf("item id %q contains meilisearch-unsafe rune %q", item.ID, r)
			}
		}
	}
}

func TestItemsFromDocumentStableIDs(t *testing.T) {
	doc := map[string]any{
		"tasks": []any{map[string]any{"id": "t1", "title": "Water plants"}},
	}
	first := ItemsFromDocument("user-1", doc)
	second := ItemsFromDocument("user-1", doc)
	if first[0].ID != second[0].ID {
		t.Error("reindexing the same document must produce the same ids")
	}
}

type fakePayloadReader struct {
	payload []byte
}

func (f *fakePayloadReader) ScanPayload(context.Context, string) ([]byte, error) {
	return f.payload, nil
}

func TestStoreScanSearch(t *testing.T) {
	doc := map[string]any{
		"tasks": []any{
			map[string]any{"id": "t1", "title": "Water plants"},
			map[string]any{"id": "t2", "title": "Buy soil", "notes": "for the plants"},
			map[string]any{"id": "t3", "title": "Call dentist"},
		},
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	scan := NewStoreScan(&fakePayloadReader{payload: payload})
	results, total, err := scan.Search(context.Background(), Query{UserID: "user-1", Text: "PLANTS"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Fatalf("expected 2 case-insensitive matches, got total=%d results=%+v", total, results)
	}
}

func TestStoreScanEmptyQuery(t *testing.T) {
	scan := NewStoreScan(&fakePayloadReader{payload: []byte(`{}`)})
	results, total, err := scan.Search(context.Background(), Query{UserID: "user-1", Text: "  "})
	if err != nil || total != 0 || len(results) != 0 {
		t.Errorf("blank query should match nothing, got %v %d %v", results, total, err)
	}
}
