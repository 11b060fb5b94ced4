package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"goalbingo/internal/battle"
	"goalbingo/internal/database"
	"goalbingo/internal/database/dbtest"
	"goalbingo/internal/gamestate"
	"goalbingo/internal/models"
	"goalbingo/internal/repository"
	"goalbingo/internal/store"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db      *database.DB
	users   *repository.UserRepository
	cards   *repository.CardRepository
	battles *repository.BattleRepository
	friends *repository.FriendRepository
	store   store.GameStateStore
	game    *GameService
	card    *CardService
	friend  *FriendService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, nil)
}

// newTestEnvWithStore wires services against a fresh database. A nil store
// selects a MemoryStore.
func newTestEnvWithStore(t *testing.T, st store.GameStateStore) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	if st == nil {
		st = store.NewMemoryStore()
	}
	env := &testEnv{
		db:      db,
		users:   repository.NewUserRepository(db),
		cards:   repository.NewCardRepository(db),
		battles: repository.NewBattleRepository(db),
		friends: repository.NewFriendRepository(db),
		store:   st,
	}
	env.game = NewGameService(st, env.cards, env.battles, gamestate.FixedClock{T: testNow}, false)
	env.card = NewCardService(env.cards, env.game, nil)
	env.friend = NewFriendService(env.friends, env.users, env.game, false)
	return env
}

func (e *testEnv) addUser(t *testing.T, id string) models.User {
	t.Helper()
	u := models.User{ID: id, Email: id + "@example.com", PasswordHash: "x", DisplayName: id}
	if err := e.users.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("CreateUser(%s) error = %v", id, err)
	}
	return u
}

// befriend makes a and b accepted friends
func (e *testEnv) befriend(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	req, err := e.friend.RequestFriend(ctx, a, b+"@example.com")
	if err != nil {
		t.Fatalf("RequestFriend(%s, %s) error = %v", a, b, err)
	}
	if _, err := e.friend.AcceptFriend(ctx, b, req.FriendshipID); err != nil {
		t.Fatalf("AcceptFriend(%s) error = %v", b, err)
	}
}

func (e *testEnv) addCard(t *testing.T, userID string, size int, freeCenter bool) *CardView {
	t.Helper()
	card, err := e.card.CreateCard(context.Background(), userID, "Goals", size, freeCenter)
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	return card
}

// scriptedStore wraps a store and fails Save according to the test's script
type scriptedStore struct {
	store.GameStateStore

	mu        sync.Mutex
	conflicts int
	saveErr   error
	saves     int
	onSave    func()
}

func (s *scriptedStore) Save(ctx context.Context, userID string, state gamestate.GameState) (gamestate.GameState, error) {
	s.mu.Lock()
	s.saves++
	hook := s.onSave
	s.onSave = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return gamestate.GameState{}, store.ErrVersionConflict
	}
	err := s.saveErr
	s.mu.Unlock()
	if err != nil {
		return gamestate.GameState{}, err
	}
	return s.GameStateStore.Save(ctx, userID, state)
}

// setOnSave runs fn once, at the start of the next Save
func (s *scriptedStore) setOnSave(fn func()) {
	s.mu.Lock()
	s.onSave = fn
	s.mu.Unlock()
}

func (s *scriptedStore) setSaveErr(err error) {
	s.mu.Lock()
	s.saveErr = err
	s.mu.Unlock()
}

// stubFilter blocks any text containing one of its words
type stubFilter []string

func (f stubFilter) ContainsBadWord(_ context.Context, text string) (bool, error) {
	lower := strings.ToLower(text)
	for _, w := range f {
		if strings.Contains(lower, w) {
			return true, nil
		}
	}
	return false, nil
}

// recordingNotifier captures notifications instead of sending them
type recordingNotifier struct {
	mu       sync.Mutex
	welcomes []string
	invites  []string
	results  []string
}

func (n *recordingNotifier) SendWelcome(_ context.Context, to models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, to.Email)
	return nil
}

func (n *recordingNotifier) SendBattleInvite(_ context.Context, to, _ models.User, _ models.Battle) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invites = append(n.invites, to.Email)
	return nil
}

func (n *recordingNotifier) SendBattleResult(_ context.Context, to, _ models.User, _ models.Battle, _ battle.Stats) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, to.Email)
	return nil
}
