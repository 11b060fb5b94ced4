package gamestate

import (
	"goalbingo/internal/bingo"
	"goalbingo/internal/models"
	"goalbingo/internal/scoring"
)

// Result is the outcome of applying one event to a GameState
type Result struct {
	State         GameState   `json:"state"`
	PointsAwarded int         `json:"points_awarded"`
	BadgesEarned  []Badge     `json:"badges_earned"`
	LeveledUp     bool        `json:"leveled_up"`
	NewLevel      int         `json:"new_level,omitempty"`
	NewBingoLines int         `json:"new_bingo_lines"`
	Stats         bingo.Stats `json:"stats"`
}

// PrimaryBadge returns the first badge earned by the event, the one a client shows as a popup
func (r Result) PrimaryBadge() (Badge, bool) {
	if len(r.BadgesEarned) == 0 {
		return Badge{}, false
	}
	return r.BadgesEarned[0], true
}

// Engine applies completion events to game state. It holds no per-user state
// and never persists anything; callers must hand it a current snapshot and
// serialize events for the same user.
type Engine struct {
	clock Clock
}

// NewEngine creates an engine reading "today" from clock
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{clock: clock}
}

// Today returns the engine's current UTC calendar day
func (e *Engine) Today() string {
	return Today(e.clock)
}

// OnCellComplete applies one cell completion. cells is the card after the
// completion; bingoLinesBefore is the complete-line count observed before it.
func (e *Engine) OnCellComplete(prior GameState, cells []models.Cell, size, bingoLinesBefore int) Result {
	stats := bingo.CalculateStats(cells, size)

	newLines := stats.BingoLines - bingoLinesBefore
	if newLines < 0 {
		newLines = 0
	}

	// the multiplier uses the streak before today's activity is counted
	points := scoring.CellPoints(1, prior.CurrentStreak) + scoring.BingoBonus(newLines)

	next := AdvanceStreak(prior, e.Today())
	next.TotalPoints = prior.TotalPoints + points
	next.TotalCellsCompleted = prior.TotalCellsCompleted + 1
	next.TotalBingos = prior.TotalBingos + newLines

	badges := awardBadges(&next, event{
		cellsBefore:     prior.TotalCellsCompleted,
		cells:           next.TotalCellsCompleted,
		bingosBefore:    prior.TotalBingos,
		bingos:          next.TotalBingos,
		linesThisAction: newLines,
		completionRate:  stats.CompletionRate,
		streak:          next.CurrentStreak,
	})

	return e.result(prior, next, points, badges, newLines, stats)
}

// OnThemeCustomized records a card theme change
func (e *Engine) OnThemeCustomized(prior GameState) Result {
	next := prior.Clone()
	badges := awardBadges(&next, e.passiveEvent(next, true))
	return e.result(prior, next, 0, badges, 0, bingo.Stats{})
}

// OnShare records that the player shared a card
func (e *Engine) OnShare(prior GameState) Result {
	next := prior.Clone()
	next.TotalShares++
	badges := awardBadges(&next, e.passiveEvent(next, false))
	return e.result(prior, next, 0, badges, 0, bingo.Stats{})
}

// AwardPoints adds points that do not come from a cell, such as a battle win bonus
func (e *Engine) AwardPoints(prior GameState, points int) Result {
	next := prior.Clone()
	if points > 0 {
		next.TotalPoints += points
	} else {
		points = 0
	}
	return e.result(prior, next, points, nil, 0, bingo.Stats{})
}

// passiveEvent describes an event that completes nothing, so only the
// theme and share triggers can fire
func (e *Engine) passiveEvent(s GameState, themeCustomized bool) event {
	return event{
		cellsBefore:     s.TotalCellsCompleted,
		cells:           s.TotalCellsCompleted,
		bingosBefore:    s.TotalBingos,
		bingos:          s.TotalBingos,
		completionRate:  -1,
		streak:          0,
		themeCustomized: themeCustomized,
		shares:          s.TotalShares,
	}
}

func (e *Engine) result(prior, next GameState, points int, badges []Badge, newLines int, stats bingo.Stats) Result {
	if badges == nil {
		badges = []Badge{}
	}
	r := Result{
		State:         next,
		PointsAwarded: points,
		BadgesEarned:  badges,
		NewBingoLines: newLines,
		Stats:         stats,
	}
	if lvl := next.Level(); lvl > prior.Level() {
		r.LeveledUp = true
		r.NewLevel = lvl
	}
	return r
}
