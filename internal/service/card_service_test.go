package service

import (
	"context"
	"errors"
	"testing"

	"goalbingo/internal/validation"
)

func TestCreateCard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")

	tests := []struct {
		name       string
		title      string
		size       int
		freeCenter bool
		wantErr    error
		wantCells  int
	}{
		{name: "default size", title: "2026", size: 0, wantCells: 25},
		{name: "free centre", title: "Fitness", size: 3, freeCenter: true, wantCells: 9},
		{name: "too small", title: "Tiny", size: 2, wantErr: ErrInvalidSize},
		{name: "too large", title: "Huge", size: 10, wantErr: ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := env.card.CreateCard(ctx, "alice", tt.title, tt.size, tt.freeCenter)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateCard() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(card.Cells) != tt.wantCells {
				t.Errorf("cells = %d, want %d", len(card.Cells), tt.wantCells)
			}
			if tt.freeCenter && card.Stats.CompletedCells != 1 {
				t.Errorf("free centre not pre-completed: %+v", card.Stats)
			}
		})
	}

	t.Run("empty title", func(t *testing.T) {
		_, err := env.card.CreateCard(ctx, "alice", "   ", 3, false)
		var verr validation.ValidationError
		if !errors.As(err, &verr) || verr.Field != "title" {
			t.Errorf("CreateCard() error = %v, want title validation error", err)
		}
	})
}

func TestCreateCardActivatesFirstOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")

	first := env.addCard(t, "alice", 3, false)
	second := env.addCard(t, "alice", 3, false)
	if !first.IsActive || second.IsActive {
		t.Fatalf("active flags = %v, %v; want true, false", first.IsActive, second.IsActive)
	}

	if err := env.card.ActivateCard(ctx, "alice", second.ID); err != nil {
		t.Fatalf("ActivateCard() error = %v", err)
	}
	cards, err := env.card.ListCards(ctx, "alice")
	if err != nil {
		t.Fatalf("ListCards() error = %v", err)
	}
	active := 0
	for _, c := range cards {
		if c.IsActive {
			active++
			if c.ID != second.ID {
				t.Errorf("active card = %s, want %s", c.ID, second.ID)
			}
		}
	}
	if active != 1 {
		t.Errorf("active cards = %d, want 1", active)
	}
}

func TestCardOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")
	env.addUser(t, "bob")
	card := env.addCard(t, "alice", 3, false)

	if _, err := env.card.GetCard(ctx, "bob", card.ID); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("GetCard() error = %v, want %v", err, ErrCardNotFound)
	}
	if err := env.card.DeleteCard(ctx, "bob", card.ID); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("DeleteCard() error = %v, want %v", err, ErrCardNotFound)
	}
	if err := env.card.DeleteCard(ctx, "alice", card.ID); err != nil {
		t.Fatalf("DeleteCard() error = %v", err)
	}
	if _, err := env.card.GetCard(ctx, "alice", card.ID); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("GetCard() after delete error = %v, want %v", err, ErrCardNotFound)
	}
}

func TestResizeCardResetsCells(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")
	card := env.addCard(t, "alice", 3, false)
	if _, err := env.game.CompleteCell(ctx, "alice", card.ID, 0); err != nil {
		t.Fatalf("CompleteCell() error = %v", err)
	}

	if _, err := env.card.ResizeCard(ctx, "alice", card.ID, 11, false); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("ResizeCard(11) error = %v, want %v", err, ErrInvalidSize)
	}

	resized, err := env.card.ResizeCard(ctx, "alice", card.ID, 5, true)
	if err != nil {
		t.Fatalf("ResizeCard() error = %v", err)
	}
	if resized.Size != 5 || len(resized.Cells) != 25 || resized.Stats.CompletedCells != 1 {
		t.Errorf("resized = size %d, %d cells, %+v", resized.Size, len(resized.Cells), resized.Stats)
	}

	state, err := env.game.State(ctx, "alice")
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state.TotalPoints != 100 {
		t.Errorf("TotalPoints = %d after resize, want 100", state.TotalPoints)
	}
}

func TestUpdateGoal(t *testing.T) {
	env := newTestEnv(t)
	env.card = NewCardService(env.cards, env.game, stubFilter{"darn"})
	ctx := context.Background()
	env.addUser(t, "alice")
	card := env.addCard(t, "alice", 3, true)

	tests := []struct {
		name     string
		position int
		update   GoalUpdate
		wantErr  error
	}{
		{name: "valid", position: 0, update: GoalUpdate{GoalText: "Run 5k", Category: "health", Difficulty: 3}},
		{name: "default difficulty", position: 1, update: GoalUpdate{GoalText: "Read a book"}},
		{name: "free cell", position: 4, update: GoalUpdate{GoalText: "Nap"}, wantErr: ErrFreeCell},
		{name: "bad category", position: 0, update: GoalUpdate{GoalText: "x", Category: "chores"}, wantErr: ErrInvalidCategory},
		{name: "filtered word", position: 0, update: GoalUpdate{GoalText: "Fix the darn shed"}, wantErr: ErrInappropriate},
		{name: "off the card", position: 12, update: GoalUpdate{GoalText: "Swim"}, wantErr: ErrInvalidPosition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, err := env.card.UpdateGoal(ctx, "alice", card.ID, tt.position, tt.update)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UpdateGoal() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (cell.GoalText != tt.update.GoalText || cell.Difficulty < 1) {
				t.Errorf("cell = %+v", cell)
			}
		})
	}

	t.Run("bad difficulty", func(t *testing.T) {
		_, err := env.card.UpdateGoal(ctx, "alice", card.ID, 0, GoalUpdate{GoalText: "x", Difficulty: 9})
		var verr validation.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("UpdateGoal() error = %v, want validation error", err)
		}
	})
}

func TestSetThemeAwardsCustomizer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")
	card := env.addCard(t, "alice", 3, false)

	if _, _, err := env.card.SetTheme(ctx, "alice", card.ID, "neon"); !errors.Is(err, ErrInvalidTheme) {
		t.Errorf("SetTheme(neon) error = %v, want %v", err, ErrInvalidTheme)
	}

	view, badges, err := env.card.SetTheme(ctx, "alice", card.ID, "ocean")
	if err != nil {
		t.Fatalf("SetTheme() error = %v", err)
	}
	if view.Theme != "ocean" {
		t.Errorf("Theme = %q, want ocean", view.Theme)
	}
	if len(badges) != 1 || badges[0] != "customizer" {
		t.Errorf("badges = %v, want [customizer]", badges)
	}

	_, badges, err = env.card.SetTheme(ctx, "alice", card.ID, "forest")
	if err != nil {
		t.Fatalf("SetTheme() error = %v", err)
	}
	if len(badges) != 0 {
		t.Errorf("second theme change badges = %v, want none", badges)
	}
}
