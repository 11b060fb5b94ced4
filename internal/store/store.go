// Package store persists game state snapshots and the completion activity log.
package store

import (
	"context"
	"errors"
	"fmt"

	"goalbingo/internal/database"
	"goalbingo/internal/gamestate"
	"goalbingo/internal/models"
)

// ErrVersionConflict is returned by Save when the stored version no longer
// matches the version the caller loaded
var ErrVersionConflict = errors.New("game state was modified concurrently")

// GameStateStore loads and saves per-user game state.
//
// Save is a compare-and-swap: it succeeds only if state.Version equals the
// stored version (0 for a user with no stored state) and returns the saved
// state with Version incremented. Load of an unknown user returns
// gamestate.New().
type GameStateStore interface {
	Load(ctx context.Context, userID string) (gamestate.GameState, error)
	Save(ctx context.Context, userID string, state gamestate.GameState) (gamestate.GameState, error)
	AppendActivity(ctx context.Context, entry models.ActivityEntry) error
	RecentActivity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error)
	// ActivitySince returns entries dated on or after fromDate, oldest first
	ActivitySince(ctx context.Context, userID, fromDate string) ([]models.ActivityEntry, error)
}

func normalize(s gamestate.GameState) gamestate.GameState {
	if s.EarnedBadgeIDs == nil {
		s.EarnedBadgeIDs = []gamestate.BadgeID{}
	}
	if s.ActivityDates == nil {
		s.ActivityDates = []string{}
	}
	return s
}

// newestFirst returns at most limit entries from an append-ordered log, newest first
func newestFirst(log []models.ActivityEntry, limit int) []models.ActivityEntry {
	out := []models.ActivityEntry{}
	for i := len(log) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, log[i])
	}
	return out
}

// since filters an append-ordered log to entries dated on or after fromDate.
// Dates use gamestate.DateLayout, so they order as strings.
func since(log []models.ActivityEntry, fromDate string) []models.ActivityEntry {
	out := []models.ActivityEntry{}
	for _, e := range log {
		if e.Date >= fromDate {
			out = append(out, e)
		}
	}
	return out
}

// Open returns the store named by kind: sql, memory or file. The sql store
// needs db; the file store keeps its files under dir.
func Open(kind string, db *database.DB, dir string) (GameStateStore, error) {
	switch kind {
	case "sql", "":
		if db == nil {
			return nil, errors.New("sql game state store needs a database")
		}
		return NewSQLStore(db), nil
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		fs, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown game state store: %s", kind)
	}
}
