package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"goalbingo/internal/database"
	"goalbingo/internal/gamestate"
	"goalbingo/internal/models"
)

// SQLStore keeps game state in the profiles, achievements and activity_days
// tables. A user row must exist before state can be saved.
type SQLStore struct {
	db *database.DB
}

// NewSQLStore creates a store backed by db
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(ctx context.Context, userID string) (gamestate.GameState, error) {
	state := gamestate.New()

	query := `
		SELECT total_points, current_streak, max_streak, last_activity_date,
			total_cells_completed, total_bingos, total_shares, version
		FROM profiles
		WHERE user_id = ?
	`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&state.TotalPoints,
		&state.CurrentStreak,
		&state.MaxStreak,
		&state.LastActivityDate,
		&state.TotalCellsCompleted,
		&state.TotalBingos,
		&state.TotalShares,
		&state.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return gamestate.GameState{}, fmt.Errorf("failed to load profile: %w", err)
	}

	if state.EarnedBadgeIDs, err = loadBadges(ctx, s.db, userID); err != nil {
		return gamestate.GameState{}, err
	}
	if state.ActivityDates, err = loadActivityDays(ctx, s.db, userID); err != nil {
		return gamestate.GameState{}, err
	}
	return state, nil
}

func loadBadges(ctx context.Context, db database.DBTX, userID string) ([]gamestate.BadgeID, error) {
	rows, err := db.QueryContext(ctx, "SELECT badge_id FROM achievements WHERE user_id = ? ORDER BY earned_at", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	defer rows.Close()

	badges := []gamestate.BadgeID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		badges = append(badges, gamestate.BadgeID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Badges saved together share earned_at; fall back to catalog order
	sort.SliceStable(badges, func(i, j int) bool {
		return catalogIndex(badges[i]) < catalogIndex(badges[j])
	})
	return badges, nil
}

func catalogIndex(id gamestate.BadgeID) int {
	for i, b := range gamestate.Catalog {
		if b.ID == id {
			return i
		}
	}
	return len(gamestate.Catalog)
}

func loadActivityDays(ctx context.Context, db database.DBTX, userID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT activity_date FROM activity_days WHERE user_id = ? ORDER BY activity_date", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity days: %w", err)
	}
	defer rows.Close()

	days := []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan activity day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (s *SQLStore) Save(ctx context.Context, userID string, state gamestate.GameState) (gamestate.GameState, error) {
	saved := normalize(state.Clone())
	saved.Version = state.Version + 1
	now := time.Now().UTC()

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := s.swapProfile(ctx, tx, userID, state.Version, saved, now); err != nil {
			return err
		}

		// Badges and days only ever grow, so only the new ones are written
		storedBadges, err := loadBadges(ctx, tx, userID)
		if err != nil {
			return err
		}
		haveBadge := make(map[gamestate.BadgeID]bool, len(storedBadges))
		for _, id := range storedBadges {
			haveBadge[id] = true
		}
		insertBadge := tx.GetDialect().InsertIgnore("achievements", "user_id", "badge_id", "earned_at")
		for _, id := range saved.EarnedBadgeIDs {
			if haveBadge[id] {
				continue
			}
			if _, err := tx.ExecContext(ctx, insertBadge, userID, string(id), now); err != nil {
				return fmt.Errorf("failed to save achievement %s: %w", id, err)
			}
		}

		storedDays, err := loadActivityDays(ctx, tx, userID)
		if err != nil {
			return err
		}
		haveDay := make(map[string]bool, len(storedDays))
		for _, day := range storedDays {
			haveDay[day] = true
		}
		insertDay := tx.GetDialect().InsertIgnore("activity_days", "user_id", "activity_date")
		for _, day := range saved.ActivityDates {
			if haveDay[day] {
				continue
			}
			if _, err := tx.ExecContext(ctx, insertDay, userID, day); err != nil {
				return fmt.Errorf("failed to save activity day %s: %w", day, err)
			}
		}
		return nil
	})
	if err != nil {
		return gamestate.GameState{}, err
	}
	return saved, nil
}

// swapProfile writes the profile row only if its version is still expected
func (s *SQLStore) swapProfile(ctx context.Context, tx *database.Tx, userID string, expected int64, next gamestate.GameState, now time.Time) error {
	update := `
		UPDATE profiles
		SET total_points = ?, current_streak = ?, max_streak = ?, last_activity_date = ?,
			total_cells_completed = ?, total_bingos = ?, total_shares = ?, version = ?, updated_at = ?
		WHERE user_id = ? AND version = ?
	`
	result, err := tx.ExecContext(ctx, update,
		next.TotalPoints, next.CurrentStreak, next.MaxStreak, next.LastActivityDate,
		next.TotalCellsCompleted, next.TotalBingos, next.TotalShares, next.Version, now,
		userID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if n == 1 {
		return nil
	}

	var stored int64
	err = tx.QueryRowContext(ctx, "SELECT version FROM profiles WHERE user_id = ?", userID).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows) && expected == 0:
		insert := `
			INSERT INTO profiles (user_id, total_points, current_streak, max_streak, last_activity_date,
				total_cells_completed, total_bingos, total_shares, version, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, insert, userID,
			next.TotalPoints, next.CurrentStreak, next.MaxStreak, next.LastActivityDate,
			next.TotalCellsCompleted, next.TotalBingos, next.TotalShares, next.Version, now); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to read profile version: %w", err)
	}
	return ErrVersionConflict
}

func (s *SQLStore) AppendActivity(ctx context.Context, entry models.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO activity_log (user_id, card_id, position, activity_date, points_earned, bingo_lines, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecReturningIDContext(ctx, query, entry.UserID, entry.CardID, entry.Position, entry.Date,
		entry.PointsEarned, entry.BingoLines, entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

func (s *SQLStore) RecentActivity(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, user_id, card_id, position, activity_date, points_earned, bingo_lines, created_at
		FROM activity_log
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	return s.queryActivity(ctx, query, userID, limit)
}

func (s *SQLStore) ActivitySince(ctx context.Context, userID, fromDate string) ([]models.ActivityEntry, error) {
	query := `
		SELECT id, user_id, card_id, position, activity_date, points_earned, bingo_lines, created_at
		FROM activity_log
		WHERE user_id = ? AND activity_date >= ?
		ORDER BY id
	`
	return s.queryActivity(ctx, query, userID, fromDate)
}

func (s *SQLStore) queryActivity(ctx context.Context, query string, args ...interface{}) ([]models.ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	entries := []models.ActivityEntry{}
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.CardID, &e.Position, &e.Date, &e.PointsEarned, &e.BingoLines, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
