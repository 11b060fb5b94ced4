package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"goalbingo/internal/gamestate"
	"goalbingo/internal/models"
)

var safeUserID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// fileRecord is the on-disk layout of one user's file
type fileRecord struct {
	State    gamestate.GameState    `json:"state"`
	Activity []models.ActivityEntry `json:"activity"`
}

// FileStore keeps one JSON file per user under dir. Writes go to a temp
// file and are renamed into place so a crash never leaves a torn file.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir, creating it if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) pathFor(userID string) (string, error) {
	if !safeUserID.MatchString(userID) {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	return filepath.Join(s.dir, userID+".json"), nil
}

func (s *FileStore) read(userID string) (fileRecord, error) {
	path, err := s.pathFor(userID)
	if err != nil {
		return fileRecord{}, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fileRecord{State: gamestate.New()}, nil
	}
	if err != nil {
		return fileRecord{}, fmt.Errorf("read state file: %w", err)
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fileRecord{}, fmt.Errorf("decode state file %s: %w", filepath.Base(path), err)
	}
	rec.State = normalize(rec.State)
	return rec, nil
}

func (s *FileStore) write(userID string, rec fileRecord) error {
	path, err := s.pathFor(userID)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, userID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		tmp.Close()
		return fmt.Errorf("encode state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, userID string) (gamestate.GameState, error) {
	if err := ctx.Err(); err != nil {
		return gamestate.GameState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(userID)
	if err != nil {
		return gamestate.GameState{}, err
	}
	return rec.State, nil
}

func (s *FileStore) Save(ctx context.Context, userID string, state gamestate.GameState) (gamestate.GameState, error) {
	if err := ctx.Err(); err != nil {
		return gamestate.GameState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(userID)
	if err != nil {
		return gamestate.GameState{}, err
	}
	if rec.State.Version != state.Version {
		return gamestate.GameState{}, ErrVersionConflict
	}
	rec.State = normalize(state.Clone())
	rec.State.Version++
	if err := s.write(userID, rec); err != nil {
		return gamestate.GameState{}, err
	}
	return rec.State.Clone(), nil
}

func (s *FileStore) AppendActivity(ctx context.Context, entry models.ActivityEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(entry.UserID)
	if err != nil {
		return err
	}
	entry.ID = int64(len(rec.Activity)) + 1
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	rec.Activity = append(rec.Activity, entry)
	return s.write(entry.UserID, rec)
}

func (s *FileStore) RecentActivity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(userID)
	if err != nil {
		return nil, err
	}
	return newestFirst(rec.Activity, limit), nil
}

func (s *FileStore) ActivitySince(ctx context.Context, userID, fromDate string) ([]models.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(userID)
	if err != nil {
		return nil, err
	}
	return since(rec.Activity, fromDate), nil
}
