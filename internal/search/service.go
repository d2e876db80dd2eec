package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to a
// scan of the stored document.
type Service struct {
	meili *Meili
	scan  *StoreScan
}

// NewService creates a search service. meili may be nil if Meilisearch is
// not configured.
func NewService(meili *Meili, scan *StoreScan) *Service {
	return &Service{meili: meili, scan: scan}
}

// Search tries Meilisearch if healthy, otherwise falls back to the store
// scan.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to store scan: %v", err)
	}

	results, total, err := s.scan.Search(ctx, q)
	if err != nil {
		log.Printf("search: store scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexDashboard replaces the indexed items for a user with the items of
// the given document (fire-and-forget to Meilisearch).
func (s *Service) IndexDashboard(userID string, doc map[string]any) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	items := ItemsFromDocument(userID, doc)
	go func() {
		if err := s.meili.ReindexUser(userID, items); err != nil {
			log.Printf("search: reindex user %s: %v", userID, err)
		}
	}()
}

// RemoveDashboard drops all indexed items for a user (fire-and-forget).
func (s *Service) RemoveDashboard(userID string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeindexUser(userID); err != nil {
			log.Printf("search: deindex user %s: %v", userID, err)
		}
	}()
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}
