package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"goalbingo/internal/database"
	"goalbingo/internal/models"
)

// CardRepository handles database operations for bingo cards and their cells
type CardRepository struct {
	db *database.DB
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *database.DB) *CardRepository {
	return &CardRepository{db: db}
}

// CreateCard inserts a card and all of its cells
func (r *CardRepository) CreateCard(ctx context.Context, card *models.CardWithCells) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := `
			INSERT INTO bingo_cards (id, user_id, title, size, has_free_center, is_active, theme, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		c := card.Card
		if _, err := tx.ExecContext(ctx, query, c.ID, c.UserID, c.Title, c.Size, c.HasFreeCenter, c.IsActive, c.Theme, c.CreatedAt.UTC(), c.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		return insertCells(ctx, tx, c.ID, card.Cells)
	})
}

func insertCells(ctx context.Context, tx *database.Tx, cardID string, cells []models.Cell) error {
	query := `
		INSERT INTO bingo_cells (card_id, position, goal_text, is_completed, is_free, category, difficulty, completed_at, points_earned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, cell := range cells {
		if _, err := tx.ExecContext(ctx, query, cardID, cell.Position, cell.GoalText, cell.IsCompleted, cell.IsFree,
			cell.Category, cell.Difficulty, nullTime(cell.CompletedAt), cell.PointsEarned); err != nil {
			return fmt.Errorf("failed to insert cell %d: %w", cell.Position, err)
		}
	}
	return nil
}

const cardColumns = "id, user_id, title, size, has_free_center, is_active, theme, created_at, updated_at"

func scanCard(row interface{ Scan(...any) error }) (models.Card, error) {
	var c models.Card
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Size, &c.HasFreeCenter, &c.IsActive, &c.Theme, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetCard retrieves a card with its cells ordered by position
func (r *CardRepository) GetCard(ctx context.Context, id string) (*models.CardWithCells, error) {
	card, err := scanCard(r.db.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM bingo_cards WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	cells, err := r.getCells(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CardWithCells{Card: card, Cells: cells}, nil
}

func (r *CardRepository) getCells(ctx context.Context, cardID string) ([]models.Cell, error) {
	query := `
		SELECT position, goal_text, is_completed, is_free, category, difficulty, completed_at, points_earned
		FROM bingo_cells
		WHERE card_id = ?
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cells: %w", err)
	}
	defer rows.Close()

	cells := []models.Cell{}
	for rows.Next() {
		var cell models.Cell
		var completedAt sql.NullTime
		if err := rows.Scan(&cell.Position, &cell.GoalText, &cell.IsCompleted, &cell.IsFree, &cell.Category,
			&cell.Difficulty, &completedAt, &cell.PointsEarned); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			cell.CompletedAt = &t
		}
		cells = append(cells, cell)
	}
	return cells, rows.Err()
}

// ListCards returns a user's cards, newest first
func (r *CardRepository) ListCards(ctx context.Context, userID string) ([]models.Card, error) {
	query := "SELECT " + cardColumns + " FROM bingo_cards WHERE user_id = ? ORDER BY created_at DESC, id"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// UpdateGoal writes one cell's goal fields. Completion fields are untouched.
func (r *CardRepository) UpdateGoal(ctx context.Context, cardID string, cell models.Cell) error {
	query := `
		UPDATE bingo_cells
		SET goal_text = ?, category = ?, difficulty = ?
		WHERE card_id = ? AND position = ?
	`
	result, err := r.db.ExecContext(ctx, query, cell.GoalText, cell.Category, cell.Difficulty, cardID, cell.Position)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update goal: card %s has no position %d", cardID, cell.Position)
	}
	return r.touch(ctx, r.db, cardID)
}

// MarkCompleted completes a cell that is not free and not yet completed.
// It reports false when the cell was already completed, so of two concurrent
// callers exactly one sees true.
func (r *CardRepository) MarkCompleted(ctx context.Context, cardID string, position int, at time.Time) (bool, error) {
	query := `
		UPDATE bingo_cells
		SET is_completed = ?, completed_at = ?, points_earned = 0
		WHERE card_id = ? AND position = ? AND is_completed = ? AND is_free = ?
	`
	return r.updateOne(ctx, query, "complete cell", cardID, true, at.UTC(), cardID, position, false, false)
}

// MarkIncomplete clears a completed cell and the points recorded on it.
// It reports false when the cell was not completed.
func (r *CardRepository) MarkIncomplete(ctx context.Context, cardID string, position int) (bool, error) {
	query := `
		UPDATE bingo_cells
		SET is_completed = ?, completed_at = NULL, points_earned = 0
		WHERE card_id = ? AND position = ? AND is_completed = ?
	`
	return r.updateOne(ctx, query, "uncomplete cell", cardID, false, cardID, position, true)
}

// SetPointsEarned records the points a completed cell earned
func (r *CardRepository) SetPointsEarned(ctx context.Context, cardID string, position, points int) error {
	query := `
		UPDATE bingo_cells
		SET points_earned = ?
		WHERE card_id = ? AND position = ? AND is_completed = ?
	`
	if _, err := r.db.ExecContext(ctx, query, points, cardID, position, true); err != nil {
		return fmt.Errorf("failed to record cell points: %w", err)
	}
	return nil
}

// updateOne runs a conditional single-row update and reports whether it matched
func (r *CardRepository) updateOne(ctx context.Context, query, what, cardID string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", what, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", what, err)
	}
	if n == 0 {
		return false, nil
	}
	return true, r.touch(ctx, r.db, cardID)
}

// ReplaceCells resizes a card, discarding every existing cell
func (r *CardRepository) ReplaceCells(ctx context.Context, cardID string, size int, hasFreeCenter bool, cells []models.Cell) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := "UPDATE bingo_cards SET size = ?, has_free_center = ?, updated_at = ? WHERE id = ?"
		if _, err := tx.ExecContext(ctx, query, size, hasFreeCenter, time.Now().UTC(), cardID); err != nil {
			return fmt.Errorf("failed to resize card: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM bingo_cells WHERE card_id = ?", cardID); err != nil {
			return fmt.Errorf("failed to clear cells: %w", err)
		}
		return insertCells(ctx, tx, cardID, cells)
	})
}

// SetActive makes cardID the user's only active card
func (r *CardRepository) SetActive(ctx context.Context, userID, cardID string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE bingo_cards SET is_active = ? WHERE user_id = ?", false, userID); err != nil {
			return fmt.Errorf("failed to clear active card: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE bingo_cards SET is_active = ?, updated_at = ? WHERE id = ? AND user_id = ?",
			true, time.Now().UTC(), cardID, userID); err != nil {
			return fmt.Errorf("failed to set active card: %w", err)
		}
		return nil
	})
}

// UpdateTheme sets a card's theme
func (r *CardRepository) UpdateTheme(ctx context.Context, cardID, theme string) error {
	query := "UPDATE bingo_cards SET theme = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, theme, time.Now().UTC(), cardID); err != nil {
		return fmt.Errorf("failed to update theme: %w", err)
	}
	return nil
}

// DeleteCard removes a card; its cells cascade
func (r *CardRepository) DeleteCard(ctx context.Context, cardID string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		// Explicit delete so MySQL and SQLite without foreign_keys behave the same
		if _, err := tx.ExecContext(ctx, "DELETE FROM bingo_cells WHERE card_id = ?", cardID); err != nil {
			return fmt.Errorf("failed to delete cells: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM bingo_cards WHERE id = ?", cardID); err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}
		return nil
	})
}

func (r *CardRepository) touch(ctx context.Context, db database.DBTX, cardID string) error {
	if _, err := db.ExecContext(ctx, "UPDATE bingo_cards SET updated_at = ? WHERE id = ?", time.Now().UTC(), cardID); err != nil {
		return fmt.Errorf("failed to touch card: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
