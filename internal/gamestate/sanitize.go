package gamestate

import (
	"time"

	"goalbingo/internal/validation"
)

// Sanitize checks a snapshot that came from a client before it is merged.
// Negative counters and a malformed LastActivityDate are rejected. Unknown
// badges and activity days that do not parse or lie after today are dropped,
// and a LastActivityDate after today is pulled back to today.
func Sanitize(s GameState, today string) (GameState, error) {
	counters := []struct {
		field string
		value int
	}{
		{"total_points", s.TotalPoints},
		{"current_streak", s.CurrentStreak},
		{"max_streak", s.MaxStreak},
		{"total_cells_completed", s.TotalCellsCompleted},
		{"total_bingos", s.TotalBingos},
		{"total_shares", s.TotalShares},
	}
	for _, c := range counters {
		if c.value < 0 {
			return GameState{}, validation.ValidationError{Field: c.field, Message: "must not be negative"}
		}
	}

	out := s.Clone()
	out.Version = 0

	if out.LastActivityDate != "" {
		if !validDay(out.LastActivityDate) {
			return GameState{}, validation.ValidationError{Field: "last_activity_date", Message: "must be a date in " + DateLayout + " format"}
		}
		if out.LastActivityDate > today {
			out.LastActivityDate = today
		}
	}

	out.EarnedBadgeIDs = out.EarnedBadgeIDs[:0]
	for _, id := range s.EarnedBadgeIDs {
		if _, ok := LookupBadge(id); ok && !out.HasBadge(id) {
			out.EarnedBadgeIDs = append(out.EarnedBadgeIDs, id)
		}
	}

	out.ActivityDates = out.ActivityDates[:0]
	for _, day := range s.ActivityDates {
		if validDay(day) && day <= today && !out.HasActivityOn(day) {
			out.ActivityDates = append(out.ActivityDates, day)
		}
	}
	return out, nil
}

// validDay reports whether day is a calendar day written in DateLayout.
// Round-tripping rejects forms time.Parse accepts loosely.
func validDay(day string) bool {
	t, err := time.Parse(DateLayout, day)
	return err == nil && t.Format(DateLayout) == day
}
