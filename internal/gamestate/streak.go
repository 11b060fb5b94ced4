package gamestate

// AdvanceStreak records activity on today.
//
// Activity on the same day as the last one leaves the streak alone, activity
// the day after extends it, anything else (a gap, no prior activity, an
// unreadable last date) starts a new streak of 1.
func AdvanceStreak(state GameState, today string) GameState {
	next := state.Clone()

	switch {
	case state.LastActivityDate == today:
	case state.LastActivityDate != "" && state.LastActivityDate == previousDay(today):
		next.CurrentStreak = state.CurrentStreak + 1
	default:
		next.CurrentStreak = 1
	}

	next.MaxStreak = max(next.MaxStreak, next.CurrentStreak)
	next.LastActivityDate = today
	if !next.HasActivityOn(today) {
		next.ActivityDates = append(next.ActivityDates, today)
	}
	return next
}
