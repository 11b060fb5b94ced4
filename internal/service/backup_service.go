package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"goalbingo/internal/gamestate"
	"goalbingo/internal/models"
	"goalbingo/internal/repository"
	"goalbingo/internal/store"
)

// BackupFormatVersion is written into every export
const BackupFormatVersion = "1.0"

// BackupData represents the complete backup structure
type BackupData struct {
	Version     string              `json:"version"`
	ExportedAt  time.Time           `json:"exported_at"`
	Users       []UserBackup        `json:"users"`
	Cards       []CardBackup        `json:"cards"`
	Battles     []BattleBackup      `json:"battles"`
	Friendships []models.Friendship `json:"friendships"`
}

// UserBackup represents a user and their game state
type UserBackup struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	PasswordHash string              `json:"password_hash"`
	DisplayName  string              `json:"display_name"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	GameState    gamestate.GameState `json:"game_state"`
}

// CardBackup represents a card with its cells
type CardBackup struct {
	models.Card
	Cells []models.Cell `json:"cells"`
}

// BattleBackup represents a battle with its points ledger
type BattleBackup struct {
	models.Battle
	Ledger []models.BattlePoints `json:"ledger"`
}

// ImportSummary counts what an import restored and skipped
type ImportSummary struct {
	Users        int
	SkippedUsers int
	Cards        int
	Battles      int
	Friendships  int
}

// BackupService handles backup and restore of all player data
type BackupService struct {
	userRepo   *repository.UserRepository
	cardRepo   *repository.CardRepository
	battleRepo *repository.BattleRepository
	friendRepo *repository.FriendRepository
	store      store.GameStateStore
}

// NewBackupService creates a new backup service
func NewBackupService(userRepo *repository.UserRepository, cardRepo *repository.CardRepository, battleRepo *repository.BattleRepository, friendRepo *repository.FriendRepository, st store.GameStateStore) *BackupService {
	return &BackupService{
		userRepo:   userRepo,
		cardRepo:   cardRepo,
		battleRepo: battleRepo,
		friendRepo: friendRepo,
		store:      st,
	}
}

// Export writes a complete backup to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.collect(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d users, %d cards, %d battles", len(backup.Users), len(backup.Cards), len(backup.Battles))
	return nil
}

func (s *BackupService) collect(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:     BackupFormatVersion,
		ExportedAt:  time.Now().UTC(),
		Users:       []UserBackup{},
		Cards:       []CardBackup{},
		Battles:     []BattleBackup{},
		Friendships: []models.Friendship{},
	}

	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		state, err := s.store.Load(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export game state for %s: %w", u.ID, err)
		}
		backup.Users = append(backup.Users, UserBackup{
			ID:           u.ID,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			DisplayName:  u.DisplayName,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
			GameState:    state,
		})

		cards, err := s.cardRepo.ListCards(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export cards for %s: %w", u.ID, err)
		}
		for _, c := range cards {
			full, err := s.cardRepo.GetCard(ctx, c.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to export card %s: %w", c.ID, err)
			}
			if full == nil {
				continue
			}
			backup.Cards = append(backup.Cards, CardBackup{Card: full.Card, Cells: full.Cells})
		}
	}

	battles, err := s.battleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export battles: %w", err)
	}
	for _, b := range battles {
		ledger, err := s.battleRepo.Ledger(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to export ledger for %s: %w", b.ID, err)
		}
		backup.Battles = append(backup.Battles, BattleBackup{Battle: b, Ledger: ledger})
	}

	if backup.Friendships, err = s.friendRepo.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export friendships: %w", err)
	}
	return backup, nil
}

// Import restores a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) (*ImportSummary, error) {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup. Users whose email already exists are
// skipped together with their game state, cards, battles and friendships.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupFormatVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	summary := &ImportSummary{}
	imported := map[string]bool{}

	for _, u := range backup.Users {
		existing, err := s.userRepo.GetUserByEmail(ctx, u.Email)
		if err != nil {
			return summary, err
		}
		if existing != nil {
			log.Printf("Skipping user %s: email already exists", u.Email)
			summary.SkippedUsers++
			continue
		}

		user := &models.User{
			ID:           u.ID,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			DisplayName:  u.DisplayName,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		}
		if err := s.userRepo.CreateUser(ctx, user); err != nil {
			return summary, fmt.Errorf("failed to import user %s: %w", u.Email, err)
		}

		state := u.GameState
		current, err := s.store.Load(ctx, u.ID)
		if err != nil {
			return summary, err
		}
		state.Version = current.Version
		if _, err := s.store.Save(ctx, u.ID, state); err != nil {
			return summary, fmt.Errorf("failed to import game state for %s: %w", u.Email, err)
		}

		imported[u.ID] = true
		summary.Users++
	}

	for _, c := range backup.Cards {
		if !imported[c.UserID] {
			continue
		}
		card := &models.CardWithCells{Card: c.Card, Cells: c.Cells}
		if err := s.cardRepo.CreateCard(ctx, card); err != nil {
			return summary, fmt.Errorf("failed to import card %s: %w", c.ID, err)
		}
		summary.Cards++
	}

	for _, b := range backup.Battles {
		if !imported[b.CreatorID] || !imported[b.OpponentID] {
			continue
		}
		battle := b.Battle
		if err := s.battleRepo.CreateBattle(ctx, &battle); err != nil {
			return summary, fmt.Errorf("failed to import battle %s: %w", b.ID, err)
		}
		for _, p := range b.Ledger {
			if err := s.battleRepo.AddPoints(ctx, b.ID, p.UserID, p.Date, p.DailyPoints); err != nil {
				return summary, fmt.Errorf("failed to import ledger for %s: %w", b.ID, err)
			}
		}
		summary.Battles++
	}

	for _, f := range backup.Friendships {
		if !imported[f.RequesterID] || !imported[f.AddresseeID] {
			continue
		}
		friendship := f
		if err := s.friendRepo.CreateFriendship(ctx, &friendship); err != nil {
			return summary, fmt.Errorf("failed to import friendship %s: %w", f.ID, err)
		}
		summary.Friendships++
	}

	log.Printf("Imported: %d users (%d skipped), %d cards, %d battles, %d friendships",
		summary.Users, summary.SkippedUsers, summary.Cards, summary.Battles, summary.Friendships)
	return summary, nil
}
