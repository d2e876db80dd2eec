// Package merge reconciles two diverged copies of a user's dashboard
// document: a structural, key-based collection merge with last-writer-wins
// conflict resolution, driven by an optimistic-concurrency revision check.
// The engine is pure and total over its input domain; malformed shapes are
// normalized, never rejected.
package merge

// Key derives a stable identity for a collection record so two versions of
// the same record can be matched across document copies. Rules are tried in
// order, first match wins:
//
//  1. non-empty "id"                  -> "id:<id>"
//  2. non-empty "date" + "timestamp"  -> "dt:<date>|<timestamp>"
//  3. non-empty "date" + "title"      -> "date-title:<date>|<title>"
//
// The id is authoritative when present; date+timestamp covers session-like
// records, date+title covers single-per-day titled records. Anything else,
// including records carrying only a date, is unkeyed.
func Key(record any) (string, bool) {
	obj, ok := record.(map[string]any)
	if !ok {
		return "", false
	}
	if id := stringField(obj, "id"); id != "" {
		return "id:" + id, true
	}
	date := stringField(obj, "date")
	if date == "" {
		return "", false
	}
	if ts := stringField(obj, "timestamp"); ts != "" {
		return "dt:" + date + "|" + ts, true
	}
	if title := stringField(obj, "title"); title != "" {
		return "date-title:" + date + "|" + title, true
	}
	return "", false
}

func stringField(obj map[string]any, field string) string {
	value, _ := obj[field].(string)
	return value
}
