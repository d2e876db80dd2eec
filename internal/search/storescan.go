package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
)

// payloadReader is satisfied by the Postgres document store.
type payloadReader interface {
	ScanPayload(ctx context.Context, userID string) ([]byte, error)
}

// StoreScan is the fallback searcher used when Meilisearch is down. It
// fetches the user's stored payload and does a case-insensitive substring
// match over the flattened items. Adequate for a single user's document;
// never ranks.
type StoreScan struct {
	store payloadReader
}

func NewStoreScan(store payloadReader) *StoreScan {
	return &StoreScan{store: store}
}

func (s *StoreScan) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	payload, err := s.store.ScanPayload(ctx, q.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, 0, err
	}

	needle := strings.ToLower(q.Text)
	var results []Result
	total := 0
	for _, item := range ItemsFromDocument(q.UserID, doc) {
		if !strings.Contains(strings.ToLower(item.Title), needle) &&
			!strings.Contains(strings.ToLower(item.Body), needle) {
			continue
		}
		total++
		if len(results) < limit {
			results = append(results, Result{
				Kind:    item.Kind,
				Title:   item.Title,
				Snippet: item.Body,
				Date:    item.Date,
			})
		}
	}
	return results, total, nil
}
