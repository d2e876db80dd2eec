package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists one dashboard document per user in a single JSONB
// row. It never does partial-field updates; the write path always replaces
// the whole document together with its revision, guarded by a
// compare-and-swap on the revision column so two concurrent resolutions
// cannot silently overwrite each other.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetDashboard returns the stored document and revision for a user.
// sql.ErrNoRows passes through when the user has no document yet.
func (s *PostgresStore) GetDashboard(ctx context.Context, userID string) (Dashboard, error) {
	var (
		item    Dashboard
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, payload, revision, updated_at
		FROM dashboards
		WHERE user_id = $1
	`, userID).Scan(&item.UserID, &payload, &item.Revision, &item.UpdatedAt)
	if err != nil {
		return Dashboard{}, err
	}
	if err := json.Unmarshal(payload, &item.Document); err != nil {
		return Dashboard{}, fmt.Errorf("decode dashboard payload: %w", err)
	}
	return item, nil
}

// InsertDashboard creates the first revision of a user's document. Returns
// false without error when another writer inserted the row first; the
// caller is expected to re-read and retry.
func (s *PostgresStore) InsertDashboard(ctx context.Context, userID string, document map[string]any, revision int64) (bool, error) {
	payload, err := json.Marshal(document)
	if err != nil {
		return false, fmt.Errorf("encode dashboard payload: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO dashboards (user_id, payload, revision, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, userID, payload, revision)
	if err != nil {
		return false, fmt.Errorf("insert dashboard: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert dashboard rows: %w", err)
	}
	return inserted == 1, nil
}

// UpdateDashboard replaces the stored document only if the row still
// carries expectedRevision. Returns false without error on a CAS miss.
func (s *PostgresStore) UpdateDashboard(ctx context.Context, userID string, document map[string]any, expectedRevision, newRevision int64) (bool, error) {
	payload, err := json.Marshal(document)
	if err != nil {
		return false, fmt.Errorf("encode dashboard payload: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE dashboards
		SET payload = $2, revision = $3, updated_at = NOW()
		WHERE user_id = $1 AND revision = $4
	`, userID, payload, newRevision, expectedRevision)
	if err != nil {
		return false, fmt.Errorf("update dashboard: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update dashboard rows: %w", err)
	}
	return updated == 1, nil
}

func (s *PostgresStore) DeleteDashboard(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dashboards WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete dashboard: %w", err)
	}
	return nil
}

// ScanPayload returns the raw stored payload for a user, used by the search
// fallback when Meilisearch is unavailable.
func (s *PostgresStore) ScanPayload(ctx context.Context, userID string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM dashboards WHERE user_id = $1`, userID).Scan(&payload)
	if err != nil {
		return nil, err
	}
	return payload, nil
}
