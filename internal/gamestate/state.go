// Package gamestate tracks a player's points, streaks and badges and applies
// completion events to them.
package gamestate

import (
	"slices"
	"sort"

	"goalbingo/internal/scoring"
)

// GameState is the per-user progression snapshot.
//
// Level is not stored; it is always derived from TotalPoints. Version is
// bumped by stores on every successful save and is used for compare-and-swap.
type GameState struct {
	TotalPoints         int       `json:"total_points"`
	EarnedBadgeIDs      []BadgeID `json:"earned_badge_ids"`
	CurrentStreak       int       `json:"current_streak"`
	MaxStreak           int       `json:"max_streak"`
	LastActivityDate    string    `json:"last_activity_date,omitempty"`
	ActivityDates       []string  `json:"activity_dates"`
	TotalCellsCompleted int       `json:"total_cells_completed"`
	TotalBingos         int       `json:"total_bingos"`
	TotalShares         int       `json:"total_shares"`
	Version             int64     `json:"version"`
}

// New returns the state of a player who has never completed anything
func New() GameState {
	return GameState{
		EarnedBadgeIDs: []BadgeID{},
		ActivityDates:  []string{},
	}
}

// Level derives the level from TotalPoints
func (s GameState) Level() int {
	return scoring.LevelFromPoints(s.TotalPoints)
}

// HasBadge reports whether id has already been earned
func (s GameState) HasBadge(id BadgeID) bool {
	return slices.Contains(s.EarnedBadgeIDs, id)
}

// HasActivityOn reports whether day is in ActivityDates
func (s GameState) HasActivityOn(day string) bool {
	return slices.Contains(s.ActivityDates, day)
}

// Clone returns a copy that shares no slices with s
func (s GameState) Clone() GameState {
	cp := s
	cp.EarnedBadgeIDs = append([]BadgeID{}, s.EarnedBadgeIDs...)
	cp.ActivityDates = append([]string{}, s.ActivityDates...)
	return cp
}

// Merge combines two snapshots of the same player without letting any
// monotonic counter regress. Badges and activity days are unioned; the streak
// is taken from whichever side was active most recently.
func Merge(a, b GameState) GameState {
	out := a.Clone()
	out.TotalPoints = max(a.TotalPoints, b.TotalPoints)
	out.TotalCellsCompleted = max(a.TotalCellsCompleted, b.TotalCellsCompleted)
	out.TotalBingos = max(a.TotalBingos, b.TotalBingos)
	out.TotalShares = max(a.TotalShares, b.TotalShares)
	out.MaxStreak = max(a.MaxStreak, b.MaxStreak)
	out.Version = max(a.Version, b.Version)

	if b.LastActivityDate > a.LastActivityDate {
		out.LastActivityDate = b.LastActivityDate
		out.CurrentStreak = b.CurrentStreak
	} else if b.LastActivityDate == a.LastActivityDate {
		out.CurrentStreak = max(a.CurrentStreak, b.CurrentStreak)
	}
	out.MaxStreak = max(out.MaxStreak, out.CurrentStreak)

	for _, id := range b.EarnedBadgeIDs {
		if !out.HasBadge(id) {
			out.EarnedBadgeIDs = append(out.EarnedBadgeIDs, id)
		}
	}
	for _, day := range b.ActivityDates {
		if !out.HasActivityOn(day) {
			out.ActivityDates = append(out.ActivityDates, day)
		}
	}
	sort.Strings(out.ActivityDates)
	return out
}
