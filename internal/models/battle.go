package models

import "time"

// BattleStatus is the lifecycle state of a battle
type BattleStatus string

const (
	BattlePending   BattleStatus = "pending"
	BattleActive    BattleStatus = "active"
	BattleCompleted BattleStatus = "completed"
	BattleCancelled BattleStatus = "cancelled"
)

// Battle is a fixed-duration, two-participant point race
type Battle struct {
	ID           string       `json:"id"`
	CreatorID    string       `json:"creator_id"`
	OpponentID   string       `json:"opponent_id"`
	DurationDays int          `json:"duration_days"`
	StartDate    time.Time    `json:"start_date"`
	EndDate      time.Time    `json:"end_date"`
	Status       BattleStatus `json:"status"`
	BonusPoints  int          `json:"bonus_points"`
	WinnerID     *string      `json:"winner_id"`
	IsDraw       bool         `json:"is_draw"`
	BonusAwarded bool         `json:"bonus_awarded"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsParticipant reports whether userID is the creator or the opponent
func (b *Battle) IsParticipant(userID string) bool {
	return userID != "" && (b.CreatorID == userID || b.OpponentID == userID)
}

// OwesBonus reports whether the battle has a winner whose bonus is still unpaid
func (b *Battle) OwesBonus() bool {
	return b.Status == BattleCompleted && b.WinnerID != nil && b.BonusPoints > 0 && !b.BonusAwarded
}

// BattlePoints is one ledger row: points a user earned on a calendar day
type BattlePoints struct {
	BattleID    string `json:"battle_id"`
	UserID      string `json:"user_id"`
	Date        string `json:"date"`
	DailyPoints int    `json:"daily_points"`
}
