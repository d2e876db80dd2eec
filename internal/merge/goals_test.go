package merge

import (
	"sort"
	"testing"
)

func goalIDs(t *testing.T, items []any) []string {
	t.Helper()
	out := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			t.Fatalf("expected goal object, got %T", item)
		}
		id, _ := obj["id"].(string)
		out = append(out, id)
	}
	return out
}

func findGoal(t *testing.T, items []any, id string) map[string]any {
	t.Helper()
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok && obj["id"] == id {
			return obj
		}
	}
	t.Fatalf("goal %q not found", id)
	return nil
}

func TestMergeGoalsRoadmapPreservation(t *testing.T) {
	current := []any{map[string]any{
		"id":    "g1",
		"title": "Learn piano",
		"roadmap": []any{
			map[string]any{"id": "a", "title": "Scales", "done": true},
			map[string]any{"id": "b", "title": "Chords", "done": false},
		},
	}}
	incoming := []any{map[string]any{
		"id":    "g1",
		"title": "Learn piano",
		"roadmap": []any{
			map[string]any{"id": "a", "title": "Scales", "done": true},
			map[string]any{"id": "c", "title": "Arpeggios", "done": false},
		},
	}}

	merged := MergeGoals(current, incoming)
	if len(merged) != 1 {
		t.Fatalf("expected one merged goal, got %d", len(merged))
	}

	roadmap, ok := merged[0].(map[string]any)["roadmap"].([]any)
	if !ok {
		t.Fatal("merged goal is missing its roadmap")
	}
	ids := goalIDs(t, roadmap)
	sort.Strings(ids)
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("roadmap must contain each of a, b, c exactly once, got %v", ids)
	}
}

func TestMergeGoalsIncomingScalarsWin(t *testing.T) {
	current := []any{map[string]any{
		"id":       "g1",
		"title":    "Learn piano",
		"status":   "active",
		"progress": 20.0,
		"category": "music",
	}}
	incoming := []any{map[string]any{
		"id":       "g1",
		"title":    "Learn jazz piano",
		"progress": 35.0,
	}}

	merged := MergeGoals(current, incoming)
	goal := findGoal(t, merged, "g1")
	if goal["title"] != "Learn jazz piano" || goal["progress"] != 35.0 {
		t.Errorf("incoming scalars must overlay current, got %v", goal)
	}
	if goal["status"] != "active" || goal["category"] != "music" {
		t.Errorf("current-only scalars must survive, got %v", goal)
	}
}

func TestMergeGoalsDailyTargetsRecursion(t *testing.T) {
	current := []any{map[string]any{
		"id": "g1",
		"dailyTargets": []any{
			map[string]any{"date": "2026-01-05", "targetMinutes": 45.0, "actualMinutes": 30.0, "isComplete": false},
		},
	}}
	incoming := []any{map[string]any{
		"id": "g1",
		"dailyTargets": []any{
			map[string]any{"date": "2026-01-06", "targetMinutes": 45.0, "actualMinutes": 0.0, "isComplete": false},
		},
	}}

	merged := MergeGoals(current, incoming)
	targets, ok := findGoal(t, merged, "g1")["dailyTargets"].([]any)
	if !ok {
		t.Fatal("merged goal is missing dailyTargets")
	}
	if len(targets) != 2 {
		t.Errorf("targets from both sides must survive, got %v", targets)
	}
}

func TestMergeGoalsOneSidedGoalsSurvive(t *testing.T) {
	current := []any{
		map[string]any{"id": "g1", "title": "Current only"},
		map[string]any{"id": "g2", "title": "Shared"},
	}
	incoming := []any{
		map[string]any{"id": "g2", "title": "Shared (edited)"},
		map[string]any{"id": "g3", "title": "Incoming only"},
	}

	merged := MergeGoals(current, incoming)
	ids := goalIDs(t, merged)
	// Incoming-derived goals first, current-only goals appended after.
	want := []string{"g2", "g3", "g1"}
	if len(ids) != 3 || ids[0] != want[0] || ids[1] != want[1] || ids[2] != want[2] {
		t.Errorf("goal order = %v, want %v", ids, want)
	}
}

func TestMergeGoalsRoadmapReplacedWhenEitherSideDefinesIt(t *testing.T) {
	current := []any{map[string]any{
		"id": "g1",
		"roadmap": []any{
			map[string]any{"id": "a", "title": "Step", "done": false},
		},
	}}
	incoming := []any{map[string]any{"id": "g1", "title": "No roadmap here"}}

	merged := MergeGoals(current, incoming)
	roadmap, ok := findGoal(t, merged, "g1")["roadmap"].([]any)
	if !ok {
		t.Fatal("roadmap defined on one side must appear merged")
	}
	if len(roadmap) != 1 {
		t.Errorf("current-side roadmap steps must survive, got %v", roadmap)
	}
}
