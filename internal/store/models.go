package store

import "time"

// Dashboard is one user's stored dashboard document plus the revision
// counter used for optimistic concurrency. Revision is owned by the write
// path; clients only echo back the revision they last read.
type Dashboard struct {
	UserID    string
	Document  map[string]any
	Revision  int64
	UpdatedAt time.Time
}

// WriteEntry is one accepted write in a user's dashboard history.
type WriteEntry struct {
	Hash     string    `json:"hash"`
	Message  string    `json:"message"`
	Author   string    `json:"author"`
	Revision int64     `json:"revision"`
	Merged   bool      `json:"merged"`
	When     time.Time `json:"when"`
}
