package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"goalbingo/internal/bingo"
	"goalbingo/internal/models"
	"goalbingo/internal/repository"
	"goalbingo/internal/validation"
)

// DefaultCardSize is used when a card is created without a size
const DefaultCardSize = 5

// WordFilter reports whether text contains a blocked word.
// *database.DB satisfies it.
type WordFilter interface {
	ContainsBadWord(ctx context.Context, text string) (bool, error)
}

// CardView is a card with everything a client needs to draw it
type CardView struct {
	models.Card
	Cells                  []models.Cell `json:"cells"`
	Lines                  []bingo.Line  `json:"lines"`
	Stats                  bingo.Stats   `json:"stats"`
	CellsToNextBingo       int           `json:"cells_to_next_bingo"`
	CompletedLinePositions []int         `json:"completed_line_positions"`
}

// NewCardView derives lines and stats for a card
func NewCardView(card *models.CardWithCells) *CardView {
	size := card.Card.Size
	return &CardView{
		Card:                   card.Card,
		Cells:                  card.Cells,
		Lines:                  bingo.EvaluateLines(card.Cells, size),
		Stats:                  bingo.CalculateStats(card.Cells, size),
		CellsToNextBingo:       bingo.CellsToNextBingo(card.Cells, size),
		CompletedLinePositions: bingo.CompletedLinePositions(card.Cells, size),
	}
}

// GoalUpdate is an edit of one cell's goal
type GoalUpdate struct {
	GoalText   string `json:"goal_text"`
	Category   string `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// CardService handles bingo card business logic
type CardService struct {
	cardRepo    *repository.CardRepository
	gameService *GameService
	filter      WordFilter
}

// NewCardService creates a new card service. filter may be nil.
func NewCardService(cardRepo *repository.CardRepository, gameService *GameService, filter WordFilter) *CardService {
	return &CardService{
		cardRepo:    cardRepo,
		gameService: gameService,
		filter:      filter,
	}
}

// lock takes the same per-user lock as cell completion, so card edits never
// interleave with a completion in flight
func (s *CardService) lock(userID string) func() {
	if s.gameService == nil {
		return func() {}
	}
	return s.gameService.lockUser(userID)
}

func (s *CardService) checkText(ctx context.Context, text string) error {
	if s.filter == nil || text == "" {
		return nil
	}
	bad, err := s.filter.ContainsBadWord(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to check text: %w", err)
	}
	if bad {
		return ErrInappropriate
	}
	return nil
}

// CreateCard creates an empty card. The user's first card becomes active.
func (s *CardService) CreateCard(ctx context.Context, userID, title string, size int, freeCenter bool) (*CardView, error) {
	title = strings.TrimSpace(title)
	if err := validation.ValidateCardTitle(title); err != nil {
		return nil, err
	}
	if size == 0 {
		size = DefaultCardSize
	}
	if !bingo.ValidSize(size) {
		return nil, ErrInvalidSize
	}
	if err := s.checkText(ctx, title); err != nil {
		return nil, err
	}

	existing, err := s.cardRepo.ListCards(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	card := &models.CardWithCells{
		Card: models.Card{
			ID:            uuid.NewString(),
			UserID:        userID,
			Title:         title,
			Size:          size,
			HasFreeCenter: freeCenter,
			IsActive:      len(existing) == 0,
			Theme:         models.Themes[0],
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		Cells: bingo.NewCells(size, freeCenter),
	}
	if err := s.cardRepo.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	return NewCardView(card), nil
}

// ListCards returns the user's cards, newest first
func (s *CardService) ListCards(ctx context.Context, userID string) ([]models.Card, error) {
	return s.cardRepo.ListCards(ctx, userID)
}

func (s *CardService) ownedCard(ctx context.Context, userID, cardID string) (*models.CardWithCells, error) {
	card, err := s.cardRepo.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil || card.Card.UserID != userID {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// GetCard returns one of the user's cards
func (s *CardService) GetCard(ctx context.Context, userID, cardID string) (*CardView, error) {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	return NewCardView(card), nil
}

// ResizeCard regenerates the card's cells at a new size. Goals and progress
// on the card are discarded; points already earned are not.
func (s *CardService) ResizeCard(ctx context.Context, userID, cardID string, size int, freeCenter bool) (*CardView, error) {
	if !bingo.ValidSize(size) {
		return nil, ErrInvalidSize
	}
	unlock := s.lock(userID)
	defer unlock()

	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}

	cells := bingo.NewCells(size, freeCenter)
	if err := s.cardRepo.ReplaceCells(ctx, cardID, size, freeCenter, cells); err != nil {
		return nil, err
	}
	card.Card.Size = size
	card.Card.HasFreeCenter = freeCenter
	card.Cells = cells
	return NewCardView(card), nil
}

// ActivateCard makes the card the user's active card
func (s *CardService) ActivateCard(ctx context.Context, userID, cardID string) error {
	if _, err := s.ownedCard(ctx, userID, cardID); err != nil {
		return err
	}
	return s.cardRepo.SetActive(ctx, userID, cardID)
}

// DeleteCard removes one of the user's cards
func (s *CardService) DeleteCard(ctx context.Context, userID, cardID string) error {
	unlock := s.lock(userID)
	defer unlock()

	if _, err := s.ownedCard(ctx, userID, cardID); err != nil {
		return err
	}
	return s.cardRepo.DeleteCard(ctx, cardID)
}

// SetTheme changes a card's theme and reports the change to the game state,
// which may award the customizer badge
func (s *CardService) SetTheme(ctx context.Context, userID, cardID, theme string) (*CardView, []string, error) {
	if !models.IsValidTheme(theme) {
		return nil, nil, ErrInvalidTheme
	}
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.cardRepo.UpdateTheme(ctx, cardID, theme); err != nil {
		return nil, nil, err
	}
	card.Card.Theme = theme

	badges := []string{}
	if s.gameService != nil {
		result, err := s.gameService.ThemeCustomized(ctx, userID)
		if err != nil {
			log.Printf("Error recording theme change for user %s: %v", userID, err)
		}
		for _, b := range result.BadgesEarned {
			badges = append(badges, string(b.ID))
		}
	}
	return NewCardView(card), badges, nil
}

// UpdateGoal edits the goal of one cell. Completion state is unchanged.
func (s *CardService) UpdateGoal(ctx context.Context, userID, cardID string, position int, update GoalUpdate) (*models.Cell, error) {
	update.GoalText = strings.TrimSpace(update.GoalText)
	if err := validation.ValidateGoalText(update.GoalText); err != nil {
		return nil, err
	}
	if !models.IsValidCategory(update.Category) {
		return nil, ErrInvalidCategory
	}
	if update.Difficulty == 0 {
		update.Difficulty = 1
	}
	if err := validation.ValidateDifficulty(update.Difficulty); err != nil {
		return nil, err
	}
	if err := s.checkText(ctx, update.GoalText); err != nil {
		return nil, err
	}

	unlock := s.lock(userID)
	defer unlock()

	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	for _, cell := range card.Cells {
		if cell.Position != position {
			continue
		}
		if cell.IsFree {
			return nil, ErrFreeCell
		}
		cell.GoalText = update.GoalText
		cell.Category = update.Category
		cell.Difficulty = update.Difficulty
		if err := s.cardRepo.UpdateGoal(ctx, cardID, cell); err != nil {
			return nil, err
		}
		return &cell, nil
	}
	return nil, ErrInvalidPosition
}
