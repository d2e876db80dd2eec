package merge

import "pulseboard/api/internal/dashboard"

// MergeCollections merges two versions of an unordered collection. Keyed
// records are matched by Key and conflict-resolved; keyed records present on
// only one side always survive. The output order is a contract:
//
//	[incoming unkeyed..., merged keyed in first-seen order, surviving current unkeyed...]
//
// Current-side unkeyed records whose fingerprint exactly matches an incoming
// unkeyed record are dropped, so a client re-submitting an unkeyed item it
// already had does not duplicate it.
func MergeCollections(current, incoming any) []any {
	currentItems := dashboard.List(current)
	incomingItems := dashboard.List(incoming)

	merged := make(map[string]any, len(incomingItems)+len(currentItems))
	order := make([]string, 0, len(incomingItems)+len(currentItems))
	incomingUnkeyed := make([]any, 0)
	currentUnkeyed := make([]any, 0)

	for _, record := range incomingItems {
		key, keyed := Key(record)
		if !keyed {
			incomingUnkeyed = append(incomingUnkeyed, record)
			continue
		}
		if existing, seen := merged[key]; seen {
			// The incoming side can conflict with itself when a client
			// submits the same key twice.
			merged[key] = resolveConflict(existing, record)
			continue
		}
		merged[key] = record
		order = append(order, key)
	}

	for _, record := range currentItems {
		key, keyed := Key(record)
		if !keyed {
			currentUnkeyed = append(currentUnkeyed, record)
			continue
		}
		if existing, seen := merged[key]; seen {
			merged[key] = resolveConflict(record, existing)
			continue
		}
		merged[key] = record
		order = append(order, key)
	}

	incomingPrints := make(map[string]struct{}, len(incomingUnkeyed))
	for _, record := range incomingUnkeyed {
		incomingPrints[Fingerprint(record)] = struct{}{}
	}

	out := make([]any, 0, len(incomingUnkeyed)+len(order)+len(currentUnkeyed))
	out = append(out, incomingUnkeyed...)
	for _, key := range order {
		out = append(out, merged[key])
	}
	for _, record := range currentUnkeyed {
		if _, duplicate := incomingPrints[Fingerprint(record)]; duplicate {
			continue
		}
		out = append(out, record)
	}
	return out
}
