package battle

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"goalbingo/internal/models"
)

// DefaultBonusPoints is awarded to the winner when the creator does not choose a bonus
const DefaultBonusPoints = 1000

// AllowedDurations are the battle lengths, in days, a creator can choose
var AllowedDurations = []int{3, 7, 14, 30}

var (
	ErrInvalidTransition = errors.New("invalid battle status transition")
	ErrNotParticipant    = errors.New("user is not allowed to act on this battle")
	ErrSelfBattle        = errors.New("cannot battle yourself")
	ErrInvalidDuration   = errors.New("invalid battle duration")
	ErrNotFinished       = errors.New("battle window has not elapsed")
)

// CanTransition reports whether a battle may move from one status to another.
// Statuses only move forward; completed and cancelled are terminal.
func CanTransition(from, to models.BattleStatus) bool {
	switch from {
	case models.BattlePending:
		return to == models.BattleActive || to == models.BattleCancelled
	case models.BattleActive:
		return to == models.BattleCompleted
	}
	return false
}

// New creates a pending battle. The window is provisional until the opponent accepts.
func New(creatorID, opponentID string, durationDays, bonusPoints int, now time.Time) (models.Battle, error) {
	if creatorID == opponentID {
		return models.Battle{}, ErrSelfBattle
	}
	if !slices.Contains(AllowedDurations, durationDays) {
		return models.Battle{}, fmt.Errorf("%w: %d days", ErrInvalidDuration, durationDays)
	}
	if bonusPoints <= 0 {
		bonusPoints = DefaultBonusPoints
	}
	now = now.UTC()
	return models.Battle{
		ID:           uuid.New().String(),
		CreatorID:    creatorID,
		OpponentID:   opponentID,
		DurationDays: durationDays,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, durationDays),
		Status:       models.BattlePending,
		BonusPoints:  bonusPoints,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func transition(b *models.Battle, to models.BattleStatus, now time.Time) error {
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	b.UpdatedAt = now.UTC()
	return nil
}

// Accept starts the battle. Only the opponent may accept; the window restarts at acceptance.
func Accept(b *models.Battle, userID string, now time.Time) error {
	if userID != b.OpponentID {
		return ErrNotParticipant
	}
	if err := transition(b, models.BattleActive, now); err != nil {
		return err
	}
	now = now.UTC()
	b.StartDate = now
	b.EndDate = now.AddDate(0, 0, b.DurationDays)
	return nil
}

// Reject declines a pending battle on behalf of the opponent
func Reject(b *models.Battle, userID string, now time.Time) error {
	if userID != b.OpponentID {
		return ErrNotParticipant
	}
	return transition(b, models.BattleCancelled, now)
}

// Cancel withdraws a pending battle on behalf of the creator
func Cancel(b *models.Battle, userID string, now time.Time) error {
	if userID != b.CreatorID {
		return ErrNotParticipant
	}
	return transition(b, models.BattleCancelled, now)
}

// Complete closes an active battle whose window has elapsed and records the winner
func Complete(b *models.Battle, ledger []models.BattlePoints, now time.Time) (Resolution, error) {
	if b.Status == models.BattleActive && now.Before(b.EndDate) {
		return Resolution{}, ErrNotFinished
	}
	if err := transition(b, models.BattleCompleted, now); err != nil {
		return Resolution{}, err
	}
	res := Resolve(ledger, *b)
	b.IsDraw = res.IsDraw
	if res.WinnerID != "" {
		winner := res.WinnerID
		b.WinnerID = &winner
	}
	return res, nil
}

// IsScoring reports whether points earned at t count toward b
func IsScoring(b models.Battle, t time.Time) bool {
	return b.Status == models.BattleActive && !t.Before(b.StartDate) && t.Before(b.EndDate)
}
