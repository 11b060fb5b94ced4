package battle

import (
	"errors"
	"testing"
	"time"

	"goalbingo/internal/models"
)

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func activeBattle(durationDays int, startedAgo time.Duration) models.Battle {
	start := now.Add(-startedAgo)
	return models.Battle{
		ID:           "b1",
		CreatorID:    "alice",
		OpponentID:   "bob",
		DurationDays: durationDays,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, durationDays),
		Status:       models.BattleActive,
		BonusPoints:  DefaultBonusPoints,
	}
}

func TestScoreWindow(t *testing.T) {
	b := activeBattle(7, 3*day)

	s := Score(nil, b, now)

	if s.DaysElapsed != 3 {
		t.Errorf("DaysElapsed = %d, want 3", s.DaysElapsed)
	}
	if s.ProgressPercent != 43 {
		t.Errorf("ProgressPercent = %d, want 43", s.ProgressPercent)
	}
	if s.DaysRemaining != 4 {
		t.Errorf("DaysRemaining = %d, want 4", s.DaysRemaining)
	}
	if !s.IsActive || s.Winner != OutcomeNone {
		t.Errorf("IsActive = %v Winner = %q", s.IsActive, s.Winner)
	}
}

func TestScoreClamps(t *testing.T) {
	tests := []struct {
		name          string
		battle        models.Battle
		wantElapsed   int
		wantRemaining int
		wantProgress  int
	}{
		{name: "not started yet", battle: activeBattle(7, -2*day), wantElapsed: 0, wantRemaining: 9, wantProgress: 0},
		{name: "past the end", battle: activeBattle(3, 10*day), wantElapsed: 10, wantRemaining: 0, wantProgress: 100},
		{name: "partial day remaining rounds up", battle: activeBattle(3, 36*time.Hour), wantElapsed: 1, wantRemaining: 2, wantProgress: 33},
		{name: "zero duration", battle: activeBattle(0, 0), wantElapsed: 0, wantRemaining: 0, wantProgress: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Score(nil, tt.battle, now)
			if s.DaysElapsed != tt.wantElapsed || s.DaysRemaining != tt.wantRemaining || s.ProgressPercent != tt.wantProgress {
				t.Errorf("elapsed/remaining/progress = %d/%d/%d, want %d/%d/%d",
					s.DaysElapsed, s.DaysRemaining, s.ProgressPercent,
					tt.wantElapsed, tt.wantRemaining, tt.wantProgress)
			}
		})
	}
}

func TestScoreTotals(t *testing.T) {
	b := activeBattle(7, 2*day)
	ledger := []models.BattlePoints{
		{BattleID: "b1", UserID: "alice", Date: "2026-05-18", DailyPoints: 300},
		{BattleID: "b1", UserID: "alice", Date: "2026-05-19", DailyPoints: 220},
		{BattleID: "b1", UserID: "bob", Date: "2026-05-19", DailyPoints: 610},
		{BattleID: "b1", UserID: "mallory", Date: "2026-05-19", DailyPoints: 9999},
		{BattleID: "other", UserID: "bob", Date: "2026-05-19", DailyPoints: 9999},
	}

	s := Score(ledger, b, now)

	if s.Creator.TotalPoints != 520 || s.Opponent.TotalPoints != 610 {
		t.Errorf("totals = %d/%d, want 520/610", s.Creator.TotalPoints, s.Opponent.TotalPoints)
	}
	if len(s.Creator.DailyPoints) != 2 || len(s.Opponent.DailyPoints) != 1 {
		t.Errorf("daily rows = %d/%d", len(s.Creator.DailyPoints), len(s.Opponent.DailyPoints))
	}
	if s.Leader != OutcomeOpponent {
		t.Errorf("Leader = %q, want opponent", s.Leader)
	}
}

func TestResolve(t *testing.T) {
	b := activeBattle(3, 4*day)
	tests := []struct {
		name     string
		ledger   []models.BattlePoints
		expected Resolution
	}{
		{name: "creator wins", ledger: []models.BattlePoints{{UserID: "alice", DailyPoints: 10}}, expected: Resolution{WinnerID: "alice"}},
		{name: "opponent wins", ledger: []models.BattlePoints{{UserID: "bob", DailyPoints: 10}}, expected: Resolution{WinnerID: "bob"}},
		{name: "equal totals draw", ledger: []models.BattlePoints{{UserID: "alice", DailyPoints: 10}, {UserID: "bob", DailyPoints: 10}}, expected: Resolution{IsDraw: true}},
		{name: "no points draw", expected: Resolution{IsDraw: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.ledger, b); got != tt.expected {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestLifecycle(t *testing.T) {
	b, err := New("alice", "bob", 7, 0, now)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if b.Status != models.BattlePending || b.BonusPoints != DefaultBonusPoints || b.ID == "" {
		t.Fatalf("new battle = %+v", b)
	}

	if err := Accept(&b, "alice", now); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("creator accepting: err = %v, want ErrNotParticipant", err)
	}

	acceptedAt := now.Add(6 * time.Hour)
	if err := Accept(&b, "bob", acceptedAt); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if !b.StartDate.Equal(acceptedAt) || !b.EndDate.Equal(acceptedAt.AddDate(0, 0, 7)) {
		t.Errorf("window = %v..%v, want to restart at acceptance", b.StartDate, b.EndDate)
	}
	if err := Cancel(&b, "alice", now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel after accept: err = %v, want ErrInvalidTransition", err)
	}

	if _, err := Complete(&b, nil, acceptedAt.Add(day)); !errors.Is(err, ErrNotFinished) {
		t.Errorf("early complete: err = %v, want ErrNotFinished", err)
	}

	ledger := []models.BattlePoints{{UserID: "bob", DailyPoints: 300}, {UserID: "alice", DailyPoints: 100}}
	res, err := Complete(&b, ledger, b.EndDate)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.WinnerID != "bob" || b.WinnerID == nil || *b.WinnerID != "bob" || b.IsDraw {
		t.Errorf("resolution = %+v battle winner = %v", res, b.WinnerID)
	}
	if b.Status != models.BattleCompleted {
		t.Errorf("Status = %s", b.Status)
	}
	if _, err := Complete(&b, ledger, b.EndDate); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double complete: err = %v, want ErrInvalidTransition", err)
	}

	s := Score(ledger, b, b.EndDate.Add(day))
	if s.Winner != OutcomeOpponent || s.IsActive {
		t.Errorf("completed stats winner = %q active = %v", s.Winner, s.IsActive)
	}
}

func TestRejectAndCancel(t *testing.T) {
	b, _ := New("alice", "bob", 3, 500, now)
	if err := Reject(&b, "alice", now); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("creator rejecting: err = %v", err)
	}
	if err := Reject(&b, "bob", now); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if b.Status != models.BattleCancelled {
		t.Errorf("Status = %s, want cancelled", b.Status)
	}
	if err := Accept(&b, "bob", now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("accept after reject: err = %v, want ErrInvalidTransition", err)
	}

	c, _ := New("alice", "bob", 3, 0, now)
	if err := Cancel(&c, "bob", now); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("opponent cancelling: err = %v", err)
	}
	if err := Cancel(&c, "alice", now); err != nil || c.Status != models.BattleCancelled {
		t.Errorf("Cancel() err = %v status = %s", err, c.Status)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New("alice", "alice", 7, 0, now); !errors.Is(err, ErrSelfBattle) {
		t.Errorf("self battle err = %v", err)
	}
	if _, err := New("alice", "bob", 5, 0, now); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("5 day battle err = %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.BattleStatus
		want     bool
	}{
		{models.BattlePending, models.BattleActive, true},
		{models.BattlePending, models.BattleCancelled, true},
		{models.BattlePending, models.BattleCompleted, false},
		{models.BattleActive, models.BattleCompleted, true},
		{models.BattleActive, models.BattlePending, false},
		{models.BattleCompleted, models.BattleActive, false},
		{models.BattleCancelled, models.BattleActive, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsScoring(t *testing.T) {
	b := activeBattle(7, day)
	if !IsScoring(b, now) {
		t.Error("active battle inside window should score")
	}
	if IsScoring(b, b.EndDate) {
		t.Error("end instant is outside the window")
	}
	b.Status = models.BattlePending
	if IsScoring(b, now) {
		t.Error("pending battle should not score")
	}
}
