package merge

import "pulseboard/api/internal/dashboard"

// MergeDocuments reconciles two copies of a dashboard document field by
// field: every named collection goes through MergeCollections (goals through
// MergeGoals), and each scalar field is taken wholesale from the incoming
// side when it defines one, otherwise from the current side. The result is
// normalized to the full document shape.
func MergeDocuments(current, incoming map[string]any) map[string]any {
	doc := make(map[string]any, len(dashboard.CollectionFields)+len(dashboard.ScalarFields))
	for _, field := range dashboard.CollectionFields {
		if field == dashboard.FieldGoals {
			doc[field] = MergeGoals(current[field], incoming[field])
			continue
		}
		doc[field] = MergeCollections(current[field], incoming[field])
	}
	for _, field := range dashboard.ScalarFields {
		if value, ok := incoming[field]; ok {
			doc[field] = value
			continue
		}
		if value, ok := current[field]; ok {
			doc[field] = value
		}
	}
	return dashboard.Normalize(doc)
}
