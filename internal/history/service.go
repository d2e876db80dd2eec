// Package history records every accepted dashboard write as a commit in a
// per-user git repository, giving each user an inspectable audit trail of
// their document without any extra database tables.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"pulseboard/api/internal/store"
)

const dashboardFile = "dashboard.json"

// Service manages one git repository per user under baseDir. A per-user
// mutex serializes repository access; git worktrees are not safe for
// concurrent mutation.
type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// RecordWrite commits the accepted document state for a user. The commit
// message carries the revision and whether the write went through the merge
// path, so Log can reconstruct the write history without extra storage.
func (s *Service) RecordWrite(userID string, document map[string]any, revision int64, merged bool) (store.WriteEntry, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.ensureRepo(userID)
	if err != nil {
		return store.WriteEntry{}, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return store.WriteEntry{}, fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return store.WriteEntry{}, fmt.Errorf("marshal dashboard: %w", err)
	}
	repoRoot := worktree.Filesystem.Root()
	if err := os.WriteFile(filepath.Join(repoRoot, dashboardFile), append(payload, '\n'), 0o644); err != nil {
		return store.WriteEntry{}, fmt.Errorf("write %s: %w", dashboardFile, err)
	}
	if _, err := worktree.Add(dashboardFile); err != nil {
		return store.WriteEntry{}, fmt.Errorf("git add dashboard: %w", err)
	}

	message := commitMessage(revision, merged)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  userID,
			Email: fmt.Sprintf("%s@local.pulseboard.dev", sanitizeEmail(userID)),
			When:  time.Now(),
		},
	})
	if err != nil {
		return store.WriteEntry{}, fmt.Errorf("commit dashboard: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return store.WriteEntry{}, fmt.Errorf("read commit object: %w", err)
	}
	return toWriteEntry(commitObj), nil
}

// Log returns the most recent accepted writes for a user, newest first.
// A user with no history yet gets an empty log, not an error.
func (s *Service) Log(userID string, limit int) ([]store.WriteEntry, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(userID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return []store.WriteEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []store.WriteEntry{}, nil
		}
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	entries := make([]store.WriteEntry, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		entries = append(entries, toWriteEntry(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return entries, nil
}

// Snapshot reads the committed document at a given commit hash.
func (s *Service) Snapshot(userID, hash string) (map[string]any, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(userID))
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	commitObj, err := repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}

	file, err := commitObj.File(dashboardFile)
	if err != nil {
		return nil, fmt.Errorf("load %s from commit: %w", dashboardFile, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("open snapshot reader: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read snapshot bytes: %w", err)
	}
	var document map[string]any
	if err := json.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return document, nil
}

// Remove deletes a user's history repository entirely.
func (s *Service) Remove(userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.RemoveAll(s.repoPath(userID)); err != nil {
		return fmt.Errorf("remove repo: %w", err)
	}
	return nil
}

func (s *Service) ensureRepo(userID string) (*git.Repository, error) {
	path := s.repoPath(userID)
	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return repo, nil
}

func (s *Service) repoPath(userID string) string {
	return filepath.Join(s.baseDir, pathSafeID(userID))
}

// pathSafeID encodes a caller-supplied user id into a single flat path
// segment. Anything outside [a-zA-Z0-9-_] is percent-encoded, '%' included,
// so distinct ids never collide and separators or dot segments cannot
// escape the base dir.
func pathSafeID(userID string) string {
	if userID == "" {
		return "_"
	}
	var b strings.Builder
	for _, c := range []byte(userID) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02x", c)
		}
	}
	return b.String()
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func commitMessage(revision int64, merged bool) string {
	if merged {
		return fmt.Sprintf("revision %d merged", revision)
	}
	return fmt.Sprintf("revision %d clean", revision)
}

func toWriteEntry(commitObj *object.Commit) store.WriteEntry {
	entry := store.WriteEntry{
		Hash:    commitObj.Hash.String(),
		Message: commitObj.Message,
		Author:  commitObj.Author.Name,
		When:    commitObj.Author.When,
	}
	var mode string
	if _, err := fmt.Sscanf(strings.TrimSpace(commitObj.Message), "revision %d %s", &entry.Revision, &mode); err == nil {
		entry.Merged = mode == "merged"
	}
	return entry
}

func sanitizeEmail(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
	if cleaned == "" {
		return "user"
	}
	return cleaned
}
