package service

import (
	"context"
	"fmt"
	"time"

	"goalbingo/internal/analytics"
	"goalbingo/internal/gamestate"
	"goalbingo/internal/repository"
	"goalbingo/internal/validation"
)

const (
	DefaultAnalyticsDays = 30
	MaxAnalyticsDays     = 366
)

// Report is a player's progress broken down by category and over time
type Report struct {
	CardID     string                   `json:"card_id,omitempty"`
	CardTitle  string                   `json:"card_title,omitempty"`
	Categories []analytics.CategoryStat `json:"categories"`
	Daily      []analytics.Day          `json:"daily"`
	Weekly     []analytics.Week         `json:"weekly"`
	Monthly    []analytics.Month        `json:"monthly"`
	Year       analytics.YearReport     `json:"year"`
}

// AnalyticsService builds progress reports from cards and the activity log
type AnalyticsService struct {
	cardRepo    *repository.CardRepository
	gameService *GameService
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(cardRepo *repository.CardRepository, gameService *GameService) *AnalyticsService {
	return &AnalyticsService{cardRepo: cardRepo, gameService: gameService}
}

// Report covers the last days days. Zero means DefaultAnalyticsDays.
// Category figures come from the active card; a player without one gets an
// empty breakdown.
func (s *AnalyticsService) Report(ctx context.Context, userID string, days int) (*Report, error) {
	if days == 0 {
		days = DefaultAnalyticsDays
	}
	if days < 1 || days > MaxAnalyticsDays {
		return nil, validation.ValidationError{Field: "days", Message: fmt.Sprintf("days must be between 1 and %d", MaxAnalyticsDays)}
	}

	today := gamestate.Today(s.gameService.clock)
	end, err := time.Parse(gamestate.DateLayout, today)
	if err != nil {
		return nil, fmt.Errorf("failed to parse today: %w", err)
	}
	weeks := (days + 6) / 7
	from := end.AddDate(0, 0, 1-days)
	// the weekly view can reach further back than the daily one
	if first := analytics.WeekStart(end).AddDate(0, 0, -7*(weeks-1)); first.Before(from) {
		from = first
	}

	st, err := s.gameService.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.gameService.store.ActivitySince(ctx, userID, from.Format(gamestate.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	report := &Report{
		Categories: []analytics.CategoryStat{},
		Daily:      analytics.Daily(entries, today, days),
		Weekly:     analytics.Weekly(st.ActivityDates, entries, today, weeks),
		Monthly:    analytics.Monthly(st.ActivityDates, end.Year()),
		Year:       analytics.Annual(st.ActivityDates, end.Year(), today),
	}

	cards, err := s.cardRepo.ListCards(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		if !c.IsActive {
			continue
		}
		card, err := s.cardRepo.GetCard(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if card != nil {
			report.CardID = card.Card.ID
			report.CardTitle = card.Card.Title
			report.Categories = analytics.Categories(card.Cells)
		}
		break
	}
	return report, nil
}
