package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"goalbingo/internal/credentials"
	"goalbingo/internal/models"
	"goalbingo/internal/repository"
	"goalbingo/internal/security"
	"goalbingo/internal/validation"
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *security.TokenIssuer
	filter   WordFilter
	notifier Notifier
}

// NewAuthService creates a new auth service. filter and notifier may be nil.
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenIssuer, filter WordFilter, notifier Notifier) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		filter:   filter,
		notifier: notifier,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) checkName(ctx context.Context, name string) error {
	if err := validation.ValidateName(name); err != nil {
		return err
	}
	if s.filter == nil {
		return nil
	}
	bad, err := s.filter.ContainsBadWord(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check display name: %w", err)
	}
	if bad {
		return ErrInappropriate
	}
	return nil
}

// Register creates a new player account. An empty display name is replaced
// with a generated one.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		generated, err := credentials.GenerateDisplayName()
		if err != nil {
			return nil, fmt.Errorf("failed to generate display name: %w", err)
		}
		displayName = generated
	}
	if err := s.checkName(ctx, displayName); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.SendWelcome(ctx, *user); err != nil {
			log.Printf("Error sending welcome email to %s: %v", user.Email, err)
		}
	}
	return user, nil
}

// Login authenticates a user and returns a stored session with its signed token
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, string, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, "", nil, ErrInvalidCredentials
	}

	session, token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", nil, err
	}
	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return nil, "", nil, err
	}
	return &session, token, user, nil
}

// ValidateToken checks a session token and returns the session and its user.
// A token whose session was logged out is rejected even if its signature is valid.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.Session, *models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil, ErrSessionNotFound
	}

	session, err := s.userRepo.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || session.UserID != claims.UserID {
		return nil, nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		if err := s.userRepo.DeleteSession(ctx, session.ID); err != nil {
			log.Printf("Error deleting expired session: %v", err)
		}
		return nil, nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrSessionNotFound
	}
	return session, user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.userRepo.DeleteSession(ctx, sessionID)
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.userRepo.DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

// UpdateDisplayName renames a player
func (s *AuthService) UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if err := s.checkName(ctx, displayName); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateDisplayName(ctx, userID, displayName); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user disappeared after rename")
	}
	return user, nil
}

// Leaderboard returns the top players by points
func (s *AuthService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.userRepo.Leaderboard(ctx, limit)
}
