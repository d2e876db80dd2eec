package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"pulseboard/api/internal/archive"
	"pulseboard/api/internal/cache"
	"pulseboard/api/internal/config"
	"pulseboard/api/internal/dashboard"
	"pulseboard/api/internal/history"
	"pulseboard/api/internal/merge"
	"pulseboard/api/internal/search"
	"pulseboard/api/internal/store"
)

// maxWriteAttempts bounds the resolve-and-CAS retry loop. Each attempt
// re-reads current state, so losing the race turns the next attempt into a
// merge instead of a clean overwrite.
const maxWriteAttempts = 5

type dataStore interface {
	GetDashboard(ctx context.Context, userID string) (store.Dashboard, error)
	InsertDashboard(ctx context.Context, userID string, document map[string]any, revision int64) (bool, error)
	UpdateDashboard(ctx context.Context, userID string, document map[string]any, expectedRevision, newRevision int64) (bool, error)
	DeleteDashboard(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
}

type documentCache interface {
	Get(ctx context.Context, userID string) (store.Dashboard, error)
	Set(ctx context.Context, userID string, document map[string]any, revision int64) error
	Invalidate(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
}

type historyService interface {
	RecordWrite(userID string, document map[string]any, revision int64, merged bool) (store.WriteEntry, error)
	Log(userID string, limit int) ([]store.WriteEntry, error)
	Remove(userID string) error
}

type searchService interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexDashboard(userID string, document map[string]any)
	RemoveDashboard(userID string)
}

type snapshotArchive interface {
	StoreSnapshot(ctx context.Context, userID string, revision int64, document map[string]any) error
}

type Service struct {
	cfg     config.Config
	store   dataStore
	cache   documentCache
	history historyService
	search  searchService
	archive snapshotArchive
}

func New(cfg config.Config, dataStore *store.PostgresStore, documentCache *cache.RedisCache, historySvc *history.Service, searchSvc *search.Service) *Service {
	return &Service{
		cfg:     cfg,
		store:   dataStore,
		cache:   documentCache,
		history: historySvc,
		search:  searchSvc,
	}
}

// NewWithArchive additionally wires object-storage snapshots of accepted
// writes.
func NewWithArchive(cfg config.Config, dataStore *store.PostgresStore, documentCache *cache.RedisCache, historySvc *history.Service, searchSvc *search.Service, archiveSvc *archive.Service) *Service {
	svc := New(cfg, dataStore, documentCache, historySvc, searchSvc)
	svc.archive = archiveSvc
	return svc
}

func (s *Service) UserHeader() string {
	return s.cfg.UserHeader
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) PingCache(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// GetDashboard returns a user's document and revision, hitting the Redis
// cache before Postgres. A user with no stored document gets an empty
// normalized document at revision 0; nothing is persisted until their
// first write.
func (s *Service) GetDashboard(ctx context.Context, userID string) (store.Dashboard, error) {
	if cached, err := s.cache.Get(ctx, userID); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("cache: read for %s: %v", userID, err)
	}

	item, err := s.store.GetDashboard(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Dashboard{
			UserID:   userID,
			Document: dashboard.Empty(),
			Revision: 0,
		}, nil
	}
	if err != nil {
		return store.Dashboard{}, err
	}

	if err := s.cache.Set(ctx, userID, item.Document, item.Revision); err != nil {
		log.Printf("cache: fill for %s: %v", userID, err)
	}
	return item, nil
}

// PutDashboard resolves an incoming write against stored state and persists
// the outcome atomically. The read, resolve, and compare-and-swap write run
// in a loop: losing the CAS race means another write landed in between, so
// the next attempt re-reads and resolves against the fresh state (which
// also flips a formerly clean write onto the merge path, exactly as the
// revision protocol demands). Reads go straight to Postgres here - the
// cache must never feed the resolve step stale state.
func (s *Service) PutDashboard(ctx context.Context, userID string, incoming map[string]any, baseRevision *int64) (store.Dashboard, bool, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		current := dashboard.Empty()
		var revision int64
		firstWrite := false

		item, err := s.store.GetDashboard(ctx, userID)
		if errors.Is(err, sql.ErrNoRows) {
			firstWrite = true
		} else if err != nil {
			return store.Dashboard{}, false, err
		} else {
			current = item.Document
			revision = item.Revision
		}

		resolution, err := merge.Resolve(current, incoming, revision, baseRevision)
		if err != nil {
			return store.Dashboard{}, false, err
		}

		var applied bool
		if firstWrite {
			applied, err = s.store.InsertDashboard(ctx, userID, resolution.Document, resolution.Revision)
		} else {
			applied, err = s.store.UpdateDashboard(ctx, userID, resolution.Document, revision, resolution.Revision)
		}
		if err != nil {
			return store.Dashboard{}, false, err
		}
		if !applied {
			continue
		}

		s.afterWrite(ctx, userID, resolution)
		return store.Dashboard{
			UserID:   userID,
			Document: resolution.Document,
			Revision: resolution.Revision,
		}, resolution.MergeApplied, nil
	}
	return store.Dashboard{}, false, domainError(http.StatusConflict, "WRITE_CONTENTION", "Too many concurrent writes, retry", nil)
}

// afterWrite fans the accepted state out to the cache, the git history,
// the search index, and the snapshot archive. All of these are best-effort:
// the Postgres row is already durable and authoritative.
func (s *Service) afterWrite(ctx context.Context, userID string, resolution merge.Resolution) {
	if err := s.cache.Set(ctx, userID, resolution.Document, resolution.Revision); err != nil {
		log.Printf("cache: refresh for %s: %v", userID, err)
	}
	if _, err := s.history.RecordWrite(userID, resolution.Document, resolution.Revision, resolution.MergeApplied); err != nil {
		log.Printf("history: record write for %s: %v", userID, err)
	}
	s.search.IndexDashboard(userID, resolution.Document)
	if s.archive != nil {
		go func() {
			archiveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.archive.StoreSnapshot(archiveCtx, userID, resolution.Revision, resolution.Document); err != nil {
				log.Printf("archive: snapshot %s rev %d: %v", userID, resolution.Revision, err)
			}
		}()
	}
}

// DeleteDashboard removes a user's document entirely, bypassing the merge
// engine.
func (s *Service) DeleteDashboard(ctx context.Context, userID string) error {
	if err := s.store.DeleteDashboard(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Printf("cache: invalidate for %s: %v", userID, err)
	}
	if err := s.history.Remove(userID); err != nil {
		log.Printf("history: remove for %s: %v", userID, err)
	}
	s.search.RemoveDashboard(userID)
	return nil
}

// History returns the most recent accepted writes for a user. The limit
// defaults to 20 and is capped at 100.
func (s *Service) History(userID string, limit int) ([]store.WriteEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.history.Log(userID, limit)
}

// SearchItems searches a user's indexed dashboard items.
func (s *Service) SearchItems(ctx context.Context, userID, text string, limit int) search.Response {
	return s.search.Search(ctx, search.Query{UserID: userID, Text: text, Limit: limit})
}
