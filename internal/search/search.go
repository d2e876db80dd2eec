package search

import (
	"strings"

	"pulseboard/api/internal/dashboard"
	"pulseboard/api/internal/merge"
)

// ItemKind identifies which dashboard collection a search hit came from.
type ItemKind string

const (
	KindTask   ItemKind = "task"
	KindGoal   ItemKind = "goal"
	KindPost   ItemKind = "post"
	KindRecipe ItemKind = "recipe"
	KindJob    ItemKind = "job"
)

// indexedCollections maps collection field names to the kind they index as.
var indexedCollections = []struct {
	field string
	kind  ItemKind
}{
	{"tasks", KindTask},
	{"goals", KindGoal},
	{"posts", KindPost},
	{"recipes", KindRecipe},
	{"jobs", KindJob},
}

// ItemRecord is the flattened form of one dashboard item pushed into the
// search index.
type ItemRecord struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Date   string `json:"date"`
}

// Result is a single search hit returned to the caller.
type Result struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
}

// Query describes a search request, always scoped to one user.
type Query struct {
	UserID string
	Text   string
	Limit  int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// ItemsFromDocument flattens the searchable collections of a dashboard
// document into index records. Items without any text are skipped; the
// record id is derived from the merge key (or the structural fingerprint
// for unkeyed items) so reindexing the same document is idempotent.
func ItemsFromDocument(userID string, doc map[string]any) []ItemRecord {
	var items []ItemRecord
	for _, col := range indexedCollections {
		for _, raw := range dashboard.List(doc[col.field]) {
			obj, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			title, _ := obj["title"].(string)
			body := firstString(obj, "description", "notes", "body", "content")
			if strings.TrimSpace(title) == "" && strings.TrimSpace(body) == "" {
				continue
			}
			identity, keyed := merge.Key(obj)
			if !keyed {
				identity = merge.Fingerprint(obj)
			}
			date, _ := obj["date"].(string)
			items = append(items, ItemRecord{
				ID:     recordID(userID, string(col.kind), identity),
				UserID: userID,
				Kind:   string(col.kind),
				Title:  title,
				Body:   body,
				Date:   date,
			})
		}
	}
	return items
}

func firstString(obj map[string]any, fields ...string) string {
	for _, field := range fields {
		if value, ok := obj[field].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// recordID builds a Meilisearch-safe document id (only [a-zA-Z0-9-_] are
// accepted as primary key values).
func recordID(parts ...string) string {
	joined := strings.Join(parts, "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, joined)
}
