// Package dashboard defines the per-user dashboard document shape: its
// scalar fields, its named collections, and the defensive normalization
// applied to anything a client submits.
package dashboard

const (
	FieldUserProfile = "userProfile"
	FieldFocus       = "focus"
	FieldMapView     = "mapView"
	FieldGoals       = "goals"
)

// CollectionFields lists every top-level collection of the document, in the
// order they are normalized and merged.
var CollectionFields = []string{
	"skills",
	"jobs",
	"tasks",
	"focusSessions",
	"goals",
	"recentActivities",
	"mapPins",
	"recipes",
	"posts",
}

// ScalarFields lists the non-collection fields. Each is merged as a whole
// (last writer wins), never field by field.
var ScalarFields = []string{FieldUserProfile, FieldFocus, FieldMapView}

// Empty returns a fresh document with default scalars and empty collections.
func Empty() map[string]any {
	return Normalize(nil)
}

// Normalize coerces an arbitrary payload into the document shape. Missing or
// malformed fields fall back to defaults instead of failing: non-array
// collections become empty slices, non-object scalars become their zero
// shape. Unknown fields are dropped. Indexing a nil map is safe, so
// Normalize(nil) yields an empty document.
func Normalize(raw map[string]any) map[string]any {
	doc := make(map[string]any, len(CollectionFields)+len(ScalarFields))
	doc[FieldUserProfile] = asObject(raw[FieldUserProfile], defaultProfile)
	doc[FieldFocus] = asString(raw[FieldFocus])
	doc[FieldMapView] = asObject(raw[FieldMapView], defaultMapView)
	for _, field := range CollectionFields {
		doc[field] = List(raw[field])
	}
	return doc
}

// List coerces a value to a collection slice, returning an empty (non-nil)
// slice for anything that is not array-shaped.
func List(value any) []any {
	if items, ok := value.([]any); ok {
		return items
	}
	return make([]any, 0)
}

func asObject(value any, fallback func() map[string]any) map[string]any {
	if obj, ok := value.(map[string]any); ok {
		return obj
	}
	return fallback()
}

func asString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func defaultProfile() map[string]any {
	return map[string]any{"name": "", "role": "", "bio": ""}
}

func defaultMapView() map[string]any {
	return map[string]any{"lat": 0.0, "lng": 0.0, "zoom": 2.0}
}
