package merge

import "pulseboard/api/internal/dashboard"

// MergeGoals merges the goals collection. Goals are matched by id and are
// the single entity with owned nested collections: when a goal exists on
// both sides its scalar fields are shallow-merged (incoming wins) and its
// roadmap and dailyTargets sub-collections are merged recursively through
// MergeCollections. Goals only the incoming side carries are kept as-is;
// goals only the current side carries are appended after all
// incoming-derived goals, in their original order.
func MergeGoals(current, incoming any) []any {
	currentItems := dashboard.List(current)
	incomingItems := dashboard.List(incoming)

	currentByID := make(map[string]map[string]any, len(currentItems))
	for _, record := range currentItems {
		if goal, ok := record.(map[string]any); ok {
			if id := stringField(goal, "id"); id != "" {
				currentByID[id] = goal
			}
		}
	}

	out := make([]any, 0, len(incomingItems)+len(currentItems))
	matched := make(map[string]struct{}, len(incomingItems))
	for _, record := range incomingItems {
		goal, ok := record.(map[string]any)
		if !ok {
			out = append(out, record)
			continue
		}
		id := stringField(goal, "id")
		currentGoal, exists := currentByID[id]
		if id == "" || !exists {
			out = append(out, record)
			continue
		}
		matched[id] = struct{}{}
		out = append(out, mergeGoalPair(currentGoal, goal))
	}

	for _, record := range currentItems {
		goal, ok := record.(map[string]any)
		if ok {
			if id := stringField(goal, "id"); id != "" {
				if _, seen := matched[id]; seen {
					continue
				}
			}
		}
		out = append(out, record)
	}
	return out
}

func mergeGoalPair(current, incoming map[string]any) map[string]any {
	goal := make(map[string]any, len(current)+len(incoming))
	for field, value := range current {
		goal[field] = value
	}
	for field, value := range incoming {
		goal[field] = value
	}
	if hasField(current, "roadmap") || hasField(incoming, "roadmap") {
		goal["roadmap"] = MergeCollections(current["roadmap"], incoming["roadmap"])
	}
	if hasField(current, "dailyTargets") || hasField(incoming, "dailyTargets") {
		goal["dailyTargets"] = MergeCollections(current["dailyTargets"], incoming["dailyTargets"])
	}
	return goal
}

func hasField(obj map[string]any, field string) bool {
	_, ok := obj[field]
	return ok
}
