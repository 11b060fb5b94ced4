package gamestate

import (
	"testing"
	"time"

	"goalbingo/internal/bingo"
	"goalbingo/internal/models"
)

var testDay = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(FixedClock{T: testDay})
}

// complete marks position done and runs the reducer the way a caller would
func complete(e *Engine, state GameState, cells []models.Cell, size, position int) Result {
	before := bingo.CalculateStats(cells, size).BingoLines
	cells[position].IsCompleted = true
	return e.OnCellComplete(state, cells, size, before)
}

func badgeIDs(badges []Badge) []BadgeID {
	ids := make([]BadgeID, len(badges))
	for i, b := range badges {
		ids[i] = b.ID
	}
	return ids
}

func TestOnCellCompleteFirstCell(t *testing.T) {
	e := newTestEngine()
	cells := bingo.NewCells(5, false)

	r := complete(e, New(), cells, 5, 7)

	if r.PointsAwarded != 100 {
		t.Errorf("PointsAwarded = %d, want 100", r.PointsAwarded)
	}
	if r.State.TotalPoints != 100 || r.State.TotalCellsCompleted != 1 {
		t.Errorf("state = %+v", r.State)
	}
	if r.State.CurrentStreak != 1 || r.State.LastActivityDate != "2026-03-10" {
		t.Errorf("streak = %d on %q", r.State.CurrentStreak, r.State.LastActivityDate)
	}
	if !r.LeveledUp || r.NewLevel != 2 {
		t.Errorf("LeveledUp = %v NewLevel = %d, want true 2", r.LeveledUp, r.NewLevel)
	}
	primary, ok := r.PrimaryBadge()
	if !ok || primary.ID != BadgeFirstStep {
		t.Errorf("primary badge = %v %v, want first_step", primary.ID, ok)
	}
}

func TestOnCellCompleteUsesStreakBeforeUpdate(t *testing.T) {
	e := newTestEngine()
	prior := GameState{
		TotalPoints:         500,
		CurrentStreak:       4,
		MaxStreak:           4,
		LastActivityDate:    "2026-03-09",
		TotalCellsCompleted: 5,
		EarnedBadgeIDs:      []BadgeID{BadgeFirstStep},
	}
	cells := bingo.NewCells(5, false)

	r := complete(e, prior, cells, 5, 0)

	// 1.4x from the 4-day streak, not 1.5x from the updated one
	if r.PointsAwarded != 140 {
		t.Errorf("PointsAwarded = %d, want 140", r.PointsAwarded)
	}
	if r.State.CurrentStreak != 5 {
		t.Errorf("CurrentStreak = %d, want 5", r.State.CurrentStreak)
	}
}

func TestOnCellCompleteCornerClosesRowAndDiagonal(t *testing.T) {
	e := newTestEngine()
	prior := GameState{TotalCellsCompleted: 10, EarnedBadgeIDs: []BadgeID{BadgeFirstStep}}

	// row 0 missing position 0, main diagonal missing position 0
	cells := bingo.NewCells(5, false)
	for _, p := range []int{1, 2, 3, 4, 6, 12, 18, 24} {
		cells[p].IsCompleted = true
	}

	r := complete(e, prior, cells, 5, 0)

	if r.NewBingoLines != 2 {
		t.Fatalf("NewBingoLines = %d, want 2", r.NewBingoLines)
	}
	if r.PointsAwarded != 100+1000 {
		t.Errorf("PointsAwarded = %d, want 1100", r.PointsAwarded)
	}
	if r.State.TotalBingos != 2 {
		t.Errorf("TotalBingos = %d, want 2", r.State.TotalBingos)
	}
	ids := badgeIDs(r.BadgesEarned)
	if len(ids) != 1 || ids[0] != BadgeFirstBingo {
		t.Errorf("badges = %v, want [first_bingo]", ids)
	}
}

func TestOnCellCompleteTripleLineAndBlackout(t *testing.T) {
	e := newTestEngine()
	cells := bingo.NewCells(3, false)
	for p := range cells {
		if p != 0 {
			cells[p].IsCompleted = true
		}
	}
	// everything but the corner: rows 1,2, columns 1,2 and the anti diagonal are complete
	prior := GameState{TotalCellsCompleted: 8, TotalBingos: 5, EarnedBadgeIDs: []BadgeID{BadgeFirstStep, BadgeFirstBingo}}

	r := complete(e, prior, cells, 3, 0)

	if r.NewBingoLines != 3 {
		t.Fatalf("NewBingoLines = %d, want 3 (row 0, column 0, main diagonal)", r.NewBingoLines)
	}
	ids := badgeIDs(r.BadgesEarned)
	if len(ids) != 2 || ids[0] != BadgeTripleLine || ids[1] != BadgeBlackout {
		t.Errorf("badges = %v, want [triple_line blackout]", ids)
	}
	if r.Stats.CompletionRate != 100 {
		t.Errorf("CompletionRate = %d", r.Stats.CompletionRate)
	}
}

func TestOnCellCompleteNoLinesNoBonus(t *testing.T) {
	e := newTestEngine()
	prior := GameState{TotalCellsCompleted: 3, TotalPoints: 400, EarnedBadgeIDs: []BadgeID{BadgeFirstStep}, LastActivityDate: "2026-03-10", CurrentStreak: 1, MaxStreak: 1, ActivityDates: []string{"2026-03-10"}}
	cells := bingo.NewCells(4, false)

	r := complete(e, prior, cells, 4, 5)

	if r.NewBingoLines != 0 || r.PointsAwarded != 110 {
		t.Errorf("NewBingoLines = %d PointsAwarded = %d, want 0 110", r.NewBingoLines, r.PointsAwarded)
	}
	if len(r.BadgesEarned) != 0 {
		t.Errorf("badges = %v, want none", badgeIDs(r.BadgesEarned))
	}
	if r.LeveledUp {
		t.Error("should not level up from 400 to 510")
	}
}

func TestOnCellCompleteStaleBeforeCountClamps(t *testing.T) {
	e := newTestEngine()
	cells := bingo.NewCells(3, false)
	cells[0].IsCompleted = true

	r := e.OnCellComplete(New(), cells, 3, 4)
	if r.NewBingoLines != 0 || r.State.TotalBingos != 0 {
		t.Errorf("NewBingoLines = %d TotalBingos = %d, want 0 0", r.NewBingoLines, r.State.TotalBingos)
	}
}

func TestStreakBadges(t *testing.T) {
	e := newTestEngine()
	prior := GameState{
		TotalCellsCompleted: 40,
		CurrentStreak:       29,
		MaxStreak:           29,
		LastActivityDate:    "2026-03-09",
		EarnedBadgeIDs:      []BadgeID{BadgeFirstStep},
	}

	r := complete(e, prior, bingo.NewCells(5, false), 5, 3)

	ids := badgeIDs(r.BadgesEarned)
	if len(ids) != 2 || ids[0] != BadgeWeekStreak || ids[1] != BadgeMonthStreak {
		t.Errorf("badges = %v, want [week_streak month_streak]", ids)
	}
	if r.State.CurrentStreak != 30 {
		t.Errorf("CurrentStreak = %d, want 30", r.State.CurrentStreak)
	}
}

func TestBadgesAreNotAwardedTwice(t *testing.T) {
	e := newTestEngine()
	prior := GameState{
		CurrentStreak:    8,
		MaxStreak:        8,
		LastActivityDate: "2026-03-10",
		EarnedBadgeIDs:   []BadgeID{BadgeWeekStreak},
	}
	cells := bingo.NewCells(3, false)

	first := complete(e, prior, cells, 3, 4)
	second := complete(e, first.State, cells, 3, 5)

	for _, id := range badgeIDs(first.BadgesEarned) {
		if id == BadgeWeekStreak {
			t.Error("week_streak re-awarded on first call")
		}
	}
	if len(second.BadgesEarned) != 0 {
		t.Errorf("second call earned %v, want none", badgeIDs(second.BadgesEarned))
	}
	count := 0
	for _, id := range second.State.EarnedBadgeIDs {
		if id == BadgeWeekStreak {
			count++
		}
	}
	if count != 1 {
		t.Errorf("week_streak appears %d times in %v", count, second.State.EarnedBadgeIDs)
	}
}

func TestOnCellCompleteDoesNotMutatePrior(t *testing.T) {
	e := newTestEngine()
	prior := GameState{EarnedBadgeIDs: make([]BadgeID, 0, 8), ActivityDates: make([]string, 0, 8)}
	_ = complete(e, prior, bingo.NewCells(3, false), 3, 0)
	if prior.TotalPoints != 0 || len(prior.EarnedBadgeIDs) != 0 || len(prior.ActivityDates) != 0 {
		t.Errorf("prior mutated: %+v", prior)
	}
}

func TestOnThemeCustomizedAndShare(t *testing.T) {
	e := newTestEngine()

	r := e.OnThemeCustomized(New())
	if ids := badgeIDs(r.BadgesEarned); len(ids) != 1 || ids[0] != BadgeCustomizer {
		t.Errorf("theme badges = %v, want [customizer]", ids)
	}
	if again := e.OnThemeCustomized(r.State); len(again.BadgesEarned) != 0 {
		t.Errorf("customizer awarded twice")
	}

	state := New()
	for i := 1; i <= 5; i++ {
		r = e.OnShare(state)
		state = r.State
		if i < 5 && len(r.BadgesEarned) != 0 {
			t.Fatalf("share %d earned %v", i, badgeIDs(r.BadgesEarned))
		}
	}
	if ids := badgeIDs(r.BadgesEarned); len(ids) != 1 || ids[0] != BadgeSocialButterfly {
		t.Errorf("share badges = %v, want [social_butterfly]", ids)
	}
	if state.TotalShares != 5 {
		t.Errorf("TotalShares = %d", state.TotalShares)
	}
}

func TestAwardPoints(t *testing.T) {
	e := newTestEngine()
	r := e.AwardPoints(GameState{TotalPoints: 50}, 1000)
	if r.State.TotalPoints != 1050 || !r.LeveledUp || r.NewLevel != 4 {
		t.Errorf("result = %+v", r)
	}
	r = e.AwardPoints(GameState{TotalPoints: 50}, -10)
	if r.State.TotalPoints != 50 || r.PointsAwarded != 0 {
		t.Errorf("negative award changed points: %+v", r)
	}
}

func TestCatalogLookup(t *testing.T) {
	for _, b := range Catalog {
		got, ok := LookupBadge(b.ID)
		if !ok || got.Name != b.Name {
			t.Errorf("LookupBadge(%s) = %v %v", b.ID, got, ok)
		}
	}
	if _, ok := LookupBadge("nope"); ok {
		t.Error("LookupBadge of unknown id should fail")
	}
}
