package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"goalbingo/internal/battle"
	"goalbingo/internal/bingo"
	"goalbingo/internal/gamestate"
	"goalbingo/internal/models"
	"goalbingo/internal/repository"
	"goalbingo/internal/scoring"
	"goalbingo/internal/store"
)

// DefaultSaveAttempts bounds how often a reduction is retried after a version conflict
const DefaultSaveAttempts = 5

const recentActivityLimit = 20

// CompletionResult is returned when a cell is completed
type CompletionResult struct {
	gamestate.Result
	Cell                   models.Cell `json:"cell"`
	CellsToNextBingo       int         `json:"cells_to_next_bingo"`
	CompletedLinePositions []int       `json:"completed_line_positions"`
}

// CellProgress describes a card after a cell was uncompleted
type CellProgress struct {
	Cell                   models.Cell `json:"cell"`
	Stats                  bingo.Stats `json:"stats"`
	CellsToNextBingo       int         `json:"cells_to_next_bingo"`
	CompletedLinePositions []int       `json:"completed_line_positions"`
}

// ProfileView is the player's progression as shown on the profile page
type ProfileView struct {
	State           gamestate.GameState    `json:"state"`
	Level           scoring.LevelProgress  `json:"level"`
	Title           string                 `json:"title"`
	FormattedPoints string                 `json:"formatted_points"`
	Badges          []gamestate.Badge      `json:"badges"`
	RecentActivity  []models.ActivityEntry `json:"recent_activity"`
}

// GameService applies game events to a player's state and persists them
type GameService struct {
	store      store.GameStateStore
	cardRepo   *repository.CardRepository
	battleRepo *repository.BattleRepository
	engine     *gamestate.Engine
	clock      gamestate.Clock
	locks      *keyedMutex
	attempts   int
	debug      bool

	cacheMu sync.RWMutex
	cache   map[string]gamestate.GameState
}

// NewGameService creates a new game service
func NewGameService(st store.GameStateStore, cardRepo *repository.CardRepository, battleRepo *repository.BattleRepository, clock gamestate.Clock, debug bool) *GameService {
	if clock == nil {
		clock = gamestate.SystemClock{}
	}
	return &GameService{
		store:      st,
		cardRepo:   cardRepo,
		battleRepo: battleRepo,
		engine:     gamestate.NewEngine(clock),
		clock:      clock,
		locks:      newKeyedMutex(),
		attempts:   DefaultSaveAttempts,
		debug:      debug,
		cache:      make(map[string]gamestate.GameState),
	}
}

// State returns the player's last confirmed game state
func (s *GameService) State(ctx context.Context, userID string) (gamestate.GameState, error) {
	if st, ok := s.cached(userID); ok {
		return st, nil
	}
	st, err := s.store.Load(ctx, userID)
	if err != nil {
		return gamestate.GameState{}, fmt.Errorf("failed to load game state: %w", err)
	}
	s.remember(userID, st)
	return st.Clone(), nil
}

func (s *GameService) cached(userID string) (gamestate.GameState, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	st, ok := s.cache[userID]
	if !ok {
		return gamestate.GameState{}, false
	}
	return st.Clone(), true
}

func (s *GameService) remember(userID string, st gamestate.GameState) {
	s.cacheMu.Lock()
	s.cache[userID] = st.Clone()
	s.cacheMu.Unlock()
}

func (s *GameService) forget(userID string) {
	s.cacheMu.Lock()
	delete(s.cache, userID)
	s.cacheMu.Unlock()
}

// apply reduces the current state and saves it with compare-and-swap.
// The caller must hold the user's lock.
func (s *GameService) apply(ctx context.Context, userID string, reduce func(gamestate.GameState) gamestate.Result) (gamestate.Result, error) {
	return s.applyChecked(ctx, userID, func(prior gamestate.GameState) (gamestate.Result, error) {
		return reduce(prior), nil
	})
}

// applyChecked is apply for reductions that read other state and can fail.
// reduce runs again on every attempt, so it must not reuse what an earlier
// attempt read.
func (s *GameService) applyChecked(ctx context.Context, userID string, reduce func(gamestate.GameState) (gamestate.Result, error)) (gamestate.Result, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		prior, err := s.State(ctx, userID)
		if err != nil {
			return gamestate.Result{}, err
		}

		result, err := reduce(prior)
		if err != nil {
			return gamestate.Result{}, err
		}
		result.State.Version = prior.Version

		saved, err := s.store.Save(ctx, userID, result.State)
		if errors.Is(err, store.ErrVersionConflict) {
			if s.debug {
				log.Printf("[DEBUG] Game state conflict for user %s (attempt %d)", userID, attempt)
			}
			s.forget(userID)
			continue
		}
		if err != nil {
			s.forget(userID)
			return gamestate.Result{}, fmt.Errorf("failed to save game state: %w", err)
		}

		s.remember(userID, saved)
		result.State = saved
		return result, nil
	}

	s.forget(userID)
	return gamestate.Result{}, ErrStateContention
}

// lockUser serializes the user's game and card writes within this process
func (s *GameService) lockUser(userID string) func() {
	return s.locks.Lock(userID)
}

// loadOwnedCell returns the user's card and the index of position in its cells
func (s *GameService) loadOwnedCell(ctx context.Context, userID, cardID string, position int) (*models.CardWithCells, int, error) {
	card, err := s.cardRepo.GetCard(ctx, cardID)
	if err != nil {
		return nil, 0, err
	}
	if card == nil || card.Card.UserID != userID {
		return nil, 0, ErrCardNotFound
	}
	for i, c := range card.Cells {
		if c.Position == position {
			return card, i, nil
		}
	}
	return nil, 0, ErrInvalidPosition
}

// CompleteCell marks a goal done and awards points, bingo bonuses and badges
func (s *GameService) CompleteCell(ctx context.Context, userID, cardID string, position int) (*CompletionResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	card, idx, err := s.loadOwnedCell(ctx, userID, cardID, position)
	if err != nil {
		return nil, err
	}
	cell := card.Cells[idx]
	if cell.IsFree {
		return nil, ErrFreeCell
	}
	if cell.IsCompleted {
		return nil, ErrAlreadyCompleted
	}

	// The conditional write decides the race with any other writer of this cell
	now := s.clock.Now().UTC()
	ok, err := s.cardRepo.MarkCompleted(ctx, cardID, position, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyCompleted
	}

	result, err := s.applyChecked(ctx, userID, func(prior gamestate.GameState) (gamestate.Result, error) {
		fresh, i, err := s.loadOwnedCell(ctx, userID, cardID, position)
		if err != nil {
			return gamestate.Result{}, err
		}
		card, idx = fresh, i
		before := make([]models.Cell, len(card.Cells))
		copy(before, card.Cells)
		before[idx].IsCompleted = false
		linesBefore := bingo.CalculateStats(before, card.Card.Size).BingoLines
		return s.engine.OnCellComplete(prior, card.Cells, card.Card.Size, linesBefore), nil
	})
	if err != nil {
		if _, rerr := s.cardRepo.MarkIncomplete(ctx, cardID, position); rerr != nil {
			log.Printf("Error reverting cell %s/%d after failed save: %v", cardID, position, rerr)
		}
		return nil, err
	}

	if err := s.cardRepo.SetPointsEarned(ctx, cardID, position, result.PointsAwarded); err != nil {
		log.Printf("Error recording points on cell %s/%d: %v", cardID, position, err)
	}
	cell = card.Cells[idx]
	cell.PointsEarned = result.PointsAwarded
	card.Cells[idx] = cell
	size := card.Card.Size

	day := gamestate.DayOf(now)
	entry := models.ActivityEntry{
		UserID:       userID,
		CardID:       cardID,
		Position:     position,
		Date:         day,
		PointsEarned: result.PointsAwarded,
		BingoLines:   result.NewBingoLines,
		CreatedAt:    now,
	}
	if err := s.store.AppendActivity(ctx, entry); err != nil {
		log.Printf("Error appending activity for user %s: %v", userID, err)
	}

	s.creditBattles(ctx, userID, day, result.PointsAwarded, now)

	if s.debug {
		log.Printf("[DEBUG] User %s completed %s/%d: +%d points, %d new lines, %d badges",
			userID, cardID, position, result.PointsAwarded, result.NewBingoLines, len(result.BadgesEarned))
	}

	return &CompletionResult{
		Result:                 result,
		Cell:                   cell,
		CellsToNextBingo:       bingo.CellsToNextBingo(card.Cells, size),
		CompletedLinePositions: bingo.CompletedLinePositions(card.Cells, size),
	}, nil
}

// creditBattles adds points to every battle of the user that is scoring at now
func (s *GameService) creditBattles(ctx context.Context, userID, day string, points int, now time.Time) {
	if s.battleRepo == nil || points <= 0 {
		return
	}
	battles, err := s.battleRepo.ListActiveForUser(ctx, userID)
	if err != nil {
		log.Printf("Error listing battles for user %s: %v", userID, err)
		return
	}
	for _, b := range battles {
		if !battle.IsScoring(b, now) {
			continue
		}
		if err := s.battleRepo.AddPoints(ctx, b.ID, userID, day, points); err != nil {
			log.Printf("Error crediting battle %s for user %s: %v", b.ID, userID, err)
		}
	}
}

// UncompleteCell clears a completed goal. Points, counters and badges already
// earned are kept.
func (s *GameService) UncompleteCell(ctx context.Context, userID, cardID string, position int) (*CellProgress, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	card, idx, err := s.loadOwnedCell(ctx, userID, cardID, position)
	if err != nil {
		return nil, err
	}
	cell := card.Cells[idx]
	if cell.IsFree {
		return nil, ErrFreeCell
	}
	if !cell.IsCompleted {
		return nil, ErrNotCompleted
	}

	ok, err := s.cardRepo.MarkIncomplete(ctx, cardID, position)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotCompleted
	}
	cell.IsCompleted = false
	cell.CompletedAt = nil
	cell.PointsEarned = 0
	card.Cells[idx] = cell

	size := card.Card.Size
	return &CellProgress{
		Cell:                   cell,
		Stats:                  bingo.CalculateStats(card.Cells, size),
		CellsToNextBingo:       bingo.CellsToNextBingo(card.Cells, size),
		CompletedLinePositions: bingo.CompletedLinePositions(card.Cells, size),
	}, nil
}

// RecordShare counts a card share
func (s *GameService) RecordShare(ctx context.Context, userID string) (gamestate.Result, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.apply(ctx, userID, s.engine.OnShare)
}

// ThemeCustomized records that the user changed a card theme
func (s *GameService) ThemeCustomized(ctx context.Context, userID string) (gamestate.Result, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.apply(ctx, userID, s.engine.OnThemeCustomized)
}

// AwardBonus adds points that did not come from a cell
func (s *GameService) AwardBonus(ctx context.Context, userID string, points int) (gamestate.Result, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.apply(ctx, userID, func(prior gamestate.GameState) gamestate.Result {
		return s.engine.AwardPoints(prior, points)
	})
}

// Sync merges a snapshot kept by a client (for example while playing as a
// guest) into the stored state. No counter ever goes down. The snapshot is
// sanitized first; see gamestate.Sanitize.
func (s *GameService) Sync(ctx context.Context, userID string, local gamestate.GameState) (gamestate.Result, error) {
	local, err := gamestate.Sanitize(local, gamestate.Today(s.clock))
	if err != nil {
		return gamestate.Result{}, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.apply(ctx, userID, func(prior gamestate.GameState) gamestate.Result {
		merged := gamestate.Merge(prior, local)
		r := gamestate.Result{
			State:         merged,
			PointsAwarded: merged.TotalPoints - prior.TotalPoints,
			BadgesEarned:  []gamestate.Badge{},
		}
		for _, id := range merged.EarnedBadgeIDs {
			if prior.HasBadge(id) {
				continue
			}
			if b, ok := gamestate.LookupBadge(id); ok {
				r.BadgesEarned = append(r.BadgesEarned, b)
			}
		}
		if lvl := merged.Level(); lvl > prior.Level() {
			r.LeveledUp = true
			r.NewLevel = lvl
		}
		return r
	})
}

// Profile builds the profile view for a user
func (s *GameService) Profile(ctx context.Context, userID string) (*ProfileView, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}

	badges := make([]gamestate.Badge, 0, len(st.EarnedBadgeIDs))
	for _, id := range st.EarnedBadgeIDs {
		if b, ok := gamestate.LookupBadge(id); ok {
			badges = append(badges, b)
		}
	}

	activity, err := s.store.RecentActivity(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	level := st.Level()
	return &ProfileView{
		State:           st,
		Level:           scoring.Progress(st.TotalPoints),
		Title:           scoring.LevelTitle(level),
		FormattedPoints: scoring.FormatPoints(st.TotalPoints),
		Badges:          badges,
		RecentActivity:  activity,
	}, nil
}
