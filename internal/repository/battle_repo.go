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

// BattleRepository handles database operations for battles and their points ledger
type BattleRepository struct {
	db *database.DB
}

// NewBattleRepository creates a new battle repository
func NewBattleRepository(db *database.DB) *BattleRepository {
	return &BattleRepository{db: db}
}

// CreateBattle inserts a new battle
func (r *BattleRepository) CreateBattle(ctx context.Context, b *models.Battle) error {
	query := `
		INSERT INTO battles (id, creator_id, opponent_id, duration_days, start_date, end_date, status, bonus_points, winner_id, is_draw, bonus_awarded, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.CreatorID, b.OpponentID, b.DurationDays, b.StartDate.UTC(), b.EndDate.UTC(),
		string(b.Status), b.BonusPoints, nullString(b.WinnerID), b.IsDraw, b.BonusAwarded, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create battle: %w", err)
	}
	return nil
}

const battleColumns = "id, creator_id, opponent_id, duration_days, start_date, end_date, status, bonus_points, winner_id, is_draw, bonus_awarded, created_at, updated_at"

func scanBattle(row interface{ Scan(...any) error }) (models.Battle, error) {
	var b models.Battle
	var status string
	var winner sql.NullString
	err := row.Scan(&b.ID, &b.CreatorID, &b.OpponentID, &b.DurationDays, &b.StartDate, &b.EndDate,
		&status, &b.BonusPoints, &winner, &b.IsDraw, &b.BonusAwarded, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return b, err
	}
	b.Status = models.BattleStatus(status)
	if winner.Valid {
		w := winner.String
		b.WinnerID = &w
	}
	return b, nil
}

// GetBattle retrieves a battle by ID
func (r *BattleRepository) GetBattle(ctx context.Context, id string) (*models.Battle, error) {
	b, err := scanBattle(r.db.QueryRowContext(ctx, "SELECT "+battleColumns+" FROM battles WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get battle: %w", err)
	}
	return &b, nil
}

// ListBattlesForUser returns battles where the user is creator or opponent, newest first
func (r *BattleRepository) ListBattlesForUser(ctx context.Context, userID string) ([]models.Battle, error) {
	query := "SELECT " + battleColumns + " FROM battles WHERE creator_id = ? OR opponent_id = ? ORDER BY created_at DESC, id"
	return r.list(ctx, query, userID, userID)
}

// ListActiveForUser returns the user's active battles
func (r *BattleRepository) ListActiveForUser(ctx context.Context, userID string) ([]models.Battle, error) {
	query := "SELECT " + battleColumns + " FROM battles WHERE status = ? AND (creator_id = ? OR opponent_id = ?)"
	return r.list(ctx, query, string(models.BattleActive), userID, userID)
}

// ListExpired returns active battles whose window closed at or before now
func (r *BattleRepository) ListExpired(ctx context.Context, now time.Time) ([]models.Battle, error) {
	query := "SELECT " + battleColumns + " FROM battles WHERE status = ? AND end_date <= ? ORDER BY end_date"
	return r.list(ctx, query, string(models.BattleActive), now.UTC())
}

// ListBonusOwed returns completed battles whose winner has not been paid the bonus
func (r *BattleRepository) ListBonusOwed(ctx context.Context) ([]models.Battle, error) {
	query := "SELECT " + battleColumns + " FROM battles WHERE status = ? AND bonus_awarded = ? AND winner_id IS NOT NULL AND bonus_points > 0 ORDER BY end_date"
	return r.list(ctx, query, string(models.BattleCompleted), false)
}

// ListAll returns every battle, for backups
func (r *BattleRepository) ListAll(ctx context.Context) ([]models.Battle, error) {
	return r.list(ctx, "SELECT "+battleColumns+" FROM battles ORDER BY created_at, id")
}

func (r *BattleRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Battle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}
	defer rows.Close()

	battles := []models.Battle{}
	for rows.Next() {
		b, err := scanBattle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan battle: %w", err)
		}
		battles = append(battles, b)
	}
	return battles, rows.Err()
}

// UpdateBattle persists a status transition. The write only applies while
// the stored status still equals fromStatus; ok is false when another
// writer moved the battle first.
func (r *BattleRepository) UpdateBattle(ctx context.Context, b *models.Battle, fromStatus models.BattleStatus) (bool, error) {
	query := `
		UPDATE battles
		SET start_date = ?, end_date = ?, status = ?, winner_id = ?, is_draw = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query, b.StartDate.UTC(), b.EndDate.UTC(), string(b.Status), nullString(b.WinnerID),
		b.IsDraw, b.UpdatedAt.UTC(), b.ID, string(fromStatus))
	if err != nil {
		return false, fmt.Errorf("failed to update battle: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update battle: %w", err)
	}
	return n > 0, nil
}

// ClaimBonus marks a completed battle's bonus as paid. ok is false when it
// was already claimed, so only one caller goes on to award it.
func (r *BattleRepository) ClaimBonus(ctx context.Context, battleID string) (bool, error) {
	query := `
		UPDATE battles
		SET bonus_awarded = ?, updated_at = ?
		WHERE id = ? AND status = ? AND bonus_awarded = ?
	`
	result, err := r.db.ExecContext(ctx, query, true, time.Now().UTC(), battleID, string(models.BattleCompleted), false)
	if err != nil {
		return false, fmt.Errorf("failed to claim battle bonus: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim battle bonus: %w", err)
	}
	return n > 0, nil
}

// ReleaseBonus undoes ClaimBonus after the award could not be saved
func (r *BattleRepository) ReleaseBonus(ctx context.Context, battleID string) error {
	query := "UPDATE battles SET bonus_awarded = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, false, time.Now().UTC(), battleID); err != nil {
		return fmt.Errorf("failed to release battle bonus: %w", err)
	}
	return nil
}

// AddPoints adds points to a participant's running total for one day
func (r *BattleRepository) AddPoints(ctx context.Context, battleID, userID, day string, points int) error {
	if _, err := r.db.ExecContext(ctx, r.db.Dialect.UpsertBattlePoints(), battleID, userID, day, points); err != nil {
		return fmt.Errorf("failed to add battle points: %w", err)
	}
	return nil
}

// Ledger returns every daily points row for a battle
func (r *BattleRepository) Ledger(ctx context.Context, battleID string) ([]models.BattlePoints, error) {
	query := `
		SELECT battle_id, user_id, point_date, daily_points
		FROM battle_points
		WHERE battle_id = ?
		ORDER BY point_date, user_id
	`
	rows, err := r.db.QueryContext(ctx, query, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get battle ledger: %w", err)
	}
	defer rows.Close()

	ledger := []models.BattlePoints{}
	for rows.Next() {
		var p models.BattlePoints
		if err := rows.Scan(&p.BattleID, &p.UserID, &p.Date, &p.DailyPoints); err != nil {
			return nil, fmt.Errorf("failed to scan battle points: %w", err)
		}
		ledger = append(ledger, p)
	}
	return ledger, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
