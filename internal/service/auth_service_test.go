package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"goalbingo/internal/gamestate"
	"goalbingo/internal/security"
	"goalbingo/internal/store"
)

func newAuthEnv(t *testing.T) (*testEnv, *AuthService, *recordingNotifier) {
	t.Helper()
	env := newTestEnv(t)
	notifier := &recordingNotifier{}
	tokens := security.NewTokenIssuer("test-secret", time.Hour)
	return env, NewAuthService(env.users, tokens, stubFilter{"darn"}, notifier), notifier
}

func TestRegisterAndLogin(t *testing.T) {
	_, auth, notifier := newAuthEnv(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, " Alice@Example.com ", "correct-horse", "Alice")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lower-cased", user.Email)
	}
	if len(notifier.welcomes) != 1 {
		t.Errorf("welcome emails = %v", notifier.welcomes)
	}

	if _, err := auth.Register(ctx, "alice@example.com", "another-pass", "Alice2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate Register() error = %v, want %v", err, ErrEmailTaken)
	}

	if _, _, _, err := auth.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with wrong password error = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, _, _, err := auth.Login(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() unknown user error = %v, want %v", err, ErrInvalidCredentials)
	}

	session, token, loggedIn, err := auth.Login(ctx, "ALICE@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.ID != user.ID || session.UserID != user.ID {
		t.Errorf("Login() user = %s, session user = %s, want %s", loggedIn.ID, session.UserID, user.ID)
	}

	gotSession, gotUser, err := auth.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if gotSession.ID != session.ID || gotUser.ID != user.ID {
		t.Errorf("ValidateToken() = %s/%s", gotSession.ID, gotUser.ID)
	}

	if err := auth.Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, _, err := auth.ValidateToken(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateToken() after logout error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestRegisterDisplayNames(t *testing.T) {
	_, auth, _ := newAuthEnv(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "anon@example.com", "correct-horse", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !strings.Contains(user.DisplayName, "-") {
		t.Errorf("generated DisplayName = %q, want adjective-noun", user.DisplayName)
	}

	if _, err := auth.Register(ctx, "rude@example.com", "correct-horse", "Darn Dave"); !errors.Is(err, ErrInappropriate) {
		t.Errorf("Register() with filtered name error = %v, want %v", err, ErrInappropriate)
	}

	renamed, err := auth.UpdateDisplayName(ctx, user.ID, "Captain Goals")
	if err != nil {
		t.Fatalf("UpdateDisplayName() error = %v", err)
	}
	if renamed.DisplayName != "Captain Goals" {
		t.Errorf("DisplayName = %q", renamed.DisplayName)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, auth, _ := newAuthEnv(t)
	if _, _, err := auth.ValidateToken(context.Background(), "not-a-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateToken() error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestLeaderboard(t *testing.T) {
	env, auth, _ := newAuthEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")
	env.addUser(t, "bob")
	// the leaderboard reads the profiles table, so points must go through the SQL store
	game := NewGameService(store.NewSQLStore(env.db), env.cards, env.battles, gamestate.FixedClock{T: testNow}, false)

	if _, err := game.AwardBonus(ctx, "bob", 900); err != nil {
		t.Fatalf("AwardBonus() error = %v", err)
	}
	if _, err := game.AwardBonus(ctx, "alice", 100); err != nil {
		t.Fatalf("AwardBonus() error = %v", err)
	}

	board, err := auth.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(board) != 2 || board[0].UserID != "bob" || board[0].Rank != 1 || board[0].Level != 4 {
		t.Errorf("board = %+v", board)
	}
}
