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

// FriendRepository handles database operations for friendships
type FriendRepository struct {
	db *database.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *database.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// CreateFriendship inserts a friend request
func (r *FriendRepository) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	query := `
		INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.RequesterID, f.AddresseeID, string(f.Status), f.CreatedAt.UTC(), f.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

const friendshipColumns = "id, requester_id, addressee_id, status, created_at, updated_at"

func scanFriendship(row interface{ Scan(...any) error }) (models.Friendship, error) {
	var f models.Friendship
	var status string
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &status, &f.CreatedAt, &f.UpdatedAt)
	f.Status = models.FriendshipStatus(status)
	return f, err
}

// GetFriendship retrieves a friendship by ID
func (r *FriendRepository) GetFriendship(ctx context.Context, id string) (*models.Friendship, error) {
	f, err := scanFriendship(r.db.QueryRowContext(ctx, "SELECT "+friendshipColumns+" FROM friendships WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return &f, nil
}

// FindBetween returns the friendship between two players in either direction
func (r *FriendRepository) FindBetween(ctx context.Context, a, b string) (*models.Friendship, error) {
	query := "SELECT " + friendshipColumns + ` FROM friendships
		WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)`
	f, err := scanFriendship(r.db.QueryRowContext(ctx, query, a, b, b, a))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find friendship: %w", err)
	}
	return &f, nil
}

// ListForUser returns every friendship the user sent or received, newest first
func (r *FriendRepository) ListForUser(ctx context.Context, userID string) ([]models.Friendship, error) {
	query := "SELECT " + friendshipColumns + " FROM friendships WHERE requester_id = ? OR addressee_id = ? ORDER BY created_at DESC, id"
	return r.list(ctx, query, userID, userID)
}

// ListAll returns every friendship, for backups
func (r *FriendRepository) ListAll(ctx context.Context) ([]models.Friendship, error) {
	return r.list(ctx, "SELECT "+friendshipColumns+" FROM friendships ORDER BY created_at, id")
}

func (r *FriendRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Friendship, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}
	defer rows.Close()

	friendships := []models.Friendship{}
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

// UpdateStatus moves a friendship from one status to another. ok is false
// when the stored status no longer equals from.
func (r *FriendRepository) UpdateStatus(ctx context.Context, id string, from, to models.FriendshipStatus) (bool, error) {
	query := "UPDATE friendships SET status = ?, updated_at = ? WHERE id = ? AND status = ?"
	result, err := r.db.ExecContext(ctx, query, string(to), time.Now().UTC(), id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update friendship: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update friendship: %w", err)
	}
	return n > 0, nil
}

// DeleteFriendship removes a friendship
func (r *FriendRepository) DeleteFriendship(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM friendships WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	return nil
}

// AreFriends reports whether two players have an accepted friendship
func (r *FriendRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	query := `
		SELECT COUNT(*) FROM friendships
		WHERE status = ? AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?))
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, string(models.FriendAccepted), a, b, b, a).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return n > 0, nil
}
