package merge

import (
	"errors"

	"pulseboard/api/internal/dashboard"
)

// ErrNilDocument is returned when Resolve is called without a stored
// document to resolve against.
var ErrNilDocument = errors.New("merge: current document is nil")

// Resolution is the outcome of resolving one write against stored state.
type Resolution struct {
	Document     map[string]any
	Revision     int64
	MergeApplied bool
}

// Resolve decides whether an incoming write is a clean overwrite or must be
// merged. A write carrying no baseRevision, or a baseRevision equal to the
// store's current revision, replaces the stored document outright. Any other
// baseRevision means a concurrent write landed after the client's last read,
// so the stored and incoming documents are structurally merged. Either way
// the revision advances by exactly one.
//
// The caller must apply the returned state as a single atomic
// read-modify-write against the backing store; Resolve itself never re-reads
// and cannot detect a lost update on its own.
func Resolve(current, incoming map[string]any, currentRevision int64, baseRevision *int64) (Resolution, error) {
	if current == nil {
		return Resolution{}, ErrNilDocument
	}
	if baseRevision == nil || *baseRevision == currentRevision {
		return Resolution{
			Document:     dashboard.Normalize(incoming),
			Revision:     currentRevision + 1,
			MergeApplied: false,
		}, nil
	}
	return Resolution{
		Document:     MergeDocuments(current, incoming),
		Revision:     currentRevision + 1,
		MergeApplied: true,
	}, nil
}
