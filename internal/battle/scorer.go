// Package battle scores and advances two-player point races.
package battle

import (
	"math"
	"time"

	"goalbingo/internal/models"
)

const day = 24 * time.Hour

// Outcome names a side of a battle
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeCreator  Outcome = "creator"
	OutcomeOpponent Outcome = "opponent"
	OutcomeDraw     Outcome = "draw"
)

// Standing is one participant's points in a battle
type Standing struct {
	UserID      string                `json:"user_id"`
	TotalPoints int                   `json:"total_points"`
	DailyPoints []models.BattlePoints `json:"daily_points"`
}

// Stats is the derived view of a battle at a point in time
type Stats struct {
	BattleID        string   `json:"battle_id"`
	Creator         Standing `json:"creator"`
	Opponent        Standing `json:"opponent"`
	DaysElapsed     int      `json:"days_elapsed"`
	DaysRemaining   int      `json:"days_remaining"`
	TotalDays       int      `json:"total_days"`
	ProgressPercent int      `json:"progress_percent"`
	IsActive        bool     `json:"is_active"`
	Leader          Outcome  `json:"leader"`
	Winner          Outcome  `json:"winner"`
}

// Resolution is the winner determination at window close
type Resolution struct {
	WinnerID string
	IsDraw   bool
}

// Score aggregates the ledger for b as seen at now. Ledger rows for other
// battles or other users are ignored.
func Score(ledger []models.BattlePoints, b models.Battle, now time.Time) Stats {
	creator := Standing{UserID: b.CreatorID, DailyPoints: []models.BattlePoints{}}
	opponent := Standing{UserID: b.OpponentID, DailyPoints: []models.BattlePoints{}}

	for _, p := range ledger {
		if p.BattleID != "" && p.BattleID != b.ID {
			continue
		}
		switch p.UserID {
		case b.CreatorID:
			creator.TotalPoints += p.DailyPoints
			creator.DailyPoints = append(creator.DailyPoints, p)
		case b.OpponentID:
			opponent.TotalPoints += p.DailyPoints
			opponent.DailyPoints = append(opponent.DailyPoints, p)
		}
	}

	elapsed := int(math.Floor(float64(now.Sub(b.StartDate)) / float64(day)))
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := int(math.Ceil(float64(b.EndDate.Sub(now)) / float64(day)))
	if remaining < 0 {
		remaining = 0
	}

	stats := Stats{
		BattleID:        b.ID,
		Creator:         creator,
		Opponent:        opponent,
		DaysElapsed:     elapsed,
		DaysRemaining:   remaining,
		TotalDays:       b.DurationDays,
		ProgressPercent: progressPercent(elapsed, b.DurationDays),
		IsActive:        b.Status == models.BattleActive,
		Leader:          compare(creator.TotalPoints, opponent.TotalPoints),
	}

	if b.Status == models.BattleCompleted {
		stats.Winner = storedOutcome(b)
		if stats.Winner == OutcomeNone {
			stats.Winner = stats.Leader
		}
	}
	return stats
}

// Resolve decides the winner from ledger totals. The bonus is not applied here.
func Resolve(ledger []models.BattlePoints, b models.Battle) Resolution {
	s := Score(ledger, b, b.EndDate)
	switch s.Leader {
	case OutcomeCreator:
		return Resolution{WinnerID: b.CreatorID}
	case OutcomeOpponent:
		return Resolution{WinnerID: b.OpponentID}
	default:
		return Resolution{IsDraw: true}
	}
}

func progressPercent(elapsed, durationDays int) int {
	if durationDays <= 0 {
		return 100
	}
	pct := (elapsed*200 + durationDays) / (2 * durationDays)
	return min(100, pct)
}

func compare(creatorTotal, opponentTotal int) Outcome {
	switch {
	case creatorTotal > opponentTotal:
		return OutcomeCreator
	case opponentTotal > creatorTotal:
		return OutcomeOpponent
	default:
		return OutcomeDraw
	}
}

func storedOutcome(b models.Battle) Outcome {
	switch {
	case b.IsDraw:
		return OutcomeDraw
	case b.WinnerID == nil:
		return OutcomeNone
	case *b.WinnerID == b.CreatorID:
		return OutcomeCreator
	case *b.WinnerID == b.OpponentID:
		return OutcomeOpponent
	}
	return OutcomeNone
}
