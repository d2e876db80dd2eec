package merge

import (
	"errors"
	"time"
)

var errNoTimestamp = errors.New("record has no updatedAt")

// resolveConflict picks the winner between two versions of the same keyed
// record. Non-object sides lose to the incoming version unconditionally.
// When both carry a parseable updatedAt the later one wins, with ties kept
// on the current (stored) side. A missing or unparsable timestamp on either
// side means the incoming write is treated as authoritative.
func resolveConflict(current, incoming any) any {
	currentObj, currentOK := current.(map[string]any)
	incomingObj, incomingOK := incoming.(map[string]any)
	if !currentOK || !incomingOK {
		return incoming
	}

	currentAt, currentErr := parseUpdatedAt(currentObj)
	incomingAt, incomingErr := parseUpdatedAt(incomingObj)
	if currentErr != nil || incomingErr != nil {
		return incoming
	}
	if currentAt.Before(incomingAt) {
		return incoming
	}
	return current
}

func parseUpdatedAt(obj map[string]any) (time.Time, error) {
	raw, _ := obj["updatedAt"].(string)
	if raw == "" {
		return time.Time{}, errNoTimestamp
	}
	return time.Parse(time.RFC3339, raw)
}
