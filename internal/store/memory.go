package store

import (
	"context"
	"sync"
	"time"

	"goalbingo/internal/gamestate"
	"goalbingo/internal/models"
)

// MemoryStore keeps everything in process memory. It backs tests and
// single-process deployments that accept losing state on restart.
type MemoryStore struct {
	mu       sync.Mutex
	states   map[string]gamestate.GameState
	activity map[string][]models.ActivityEntry
	nextID   int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:   make(map[string]gamestate.GameState),
		activity: make(map[string][]models.ActivityEntry),
	}
}

func (m *MemoryStore) Load(ctx context.Context, userID string) (gamestate.GameState, error) {
	if err := ctx.Err(); err != nil {
		return gamestate.GameState{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[userID]
	if !ok {
		return gamestate.New(), nil
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, userID string, state gamestate.GameState) (gamestate.GameState, error) {
	if err := ctx.Err(); err != nil {
		return gamestate.GameState{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.states[userID].Version != state.Version {
		return gamestate.GameState{}, ErrVersionConflict
	}
	saved := normalize(state.Clone())
	saved.Version++
	m.states[userID] = saved
	return saved.Clone(), nil
}

func (m *MemoryStore) AppendActivity(ctx context.Context, entry models.ActivityEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	entry.ID = m.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.activity[entry.UserID] = append(m.activity[entry.UserID], entry)
	return nil
}

func (m *MemoryStore) RecentActivity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.activity[userID], limit), nil
}

func (m *MemoryStore) ActivitySince(ctx context.Context, userID, fromDate string) ([]models.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return since(m.activity[userID], fromDate), nil
}
