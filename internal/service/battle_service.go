package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"goalbingo/internal/battle"
	"goalbingo/internal/models"
	"goalbingo/internal/repository"
)

// BattleView is a battle together with its live standings
type BattleView struct {
	models.Battle
	CreatorName  string       `json:"creator_name"`
	OpponentName string       `json:"opponent_name"`
	Stats        battle.Stats `json:"stats"`
}

// BattleService handles battle business logic
type BattleService struct {
	battleRepo  *repository.BattleRepository
	userRepo    *repository.UserRepository
	friendRepo  *repository.FriendRepository
	gameService *GameService
	notifier    Notifier
	now         func() time.Time
}

// NewBattleService creates a new battle service. notifier may be nil.
func NewBattleService(battleRepo *repository.BattleRepository, userRepo *repository.UserRepository, friendRepo *repository.FriendRepository, gameService *GameService, notifier Notifier) *BattleService {
	return &BattleService{
		battleRepo:  battleRepo,
		userRepo:    userRepo,
		friendRepo:  friendRepo,
		gameService: gameService,
		notifier:    notifier,
		now:         time.Now,
	}
}

// CreateBattle challenges the friend registered under opponentEmail
func (s *BattleService) CreateBattle(ctx context.Context, creatorID, opponentEmail string, durationDays, bonusPoints int) (*BattleView, error) {
	opponent, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(opponentEmail)))
	if err != nil {
		return nil, err
	}
	if opponent == nil {
		return nil, ErrOpponentNotFound
	}

	b, err := battle.New(creatorID, opponent.ID, durationDays, bonusPoints, s.now())
	if err != nil {
		return nil, err
	}
	friends, err := s.friendRepo.AreFriends(ctx, creatorID, opponent.ID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, ErrNotFriends
	}
	if err := s.battleRepo.CreateBattle(ctx, &b); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		creator, err := s.userRepo.GetUserByID(ctx, creatorID)
		if err == nil && creator != nil {
			if err := s.notifier.SendBattleInvite(ctx, *opponent, *creator, b); err != nil {
				log.Printf("Error sending battle invite for %s: %v", b.ID, err)
			}
		}
	}

	return s.view(ctx, b, nil)
}

// participantBattle loads a battle the user takes part in
func (s *BattleService) participantBattle(ctx context.Context, userID, battleID string) (*models.Battle, error) {
	b, err := s.battleRepo.GetBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if b == nil || !b.IsParticipant(userID) {
		return nil, ErrBattleNotFound
	}
	return b, nil
}

// transition applies a lifecycle step and persists it if nobody changed the battle meanwhile
func (s *BattleService) transition(ctx context.Context, userID, battleID string, step func(*models.Battle, string, time.Time) error) (*BattleView, error) {
	b, err := s.participantBattle(ctx, userID, battleID)
	if err != nil {
		return nil, err
	}
	from := b.Status
	if err := step(b, userID, s.now()); err != nil {
		return nil, err
	}
	ok, err := s.battleRepo.UpdateBattle(ctx, b, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: battle %s changed concurrently", battle.ErrInvalidTransition, battleID)
	}
	return s.view(ctx, *b, nil)
}

// AcceptBattle starts a pending battle; only the opponent may accept
func (s *BattleService) AcceptBattle(ctx context.Context, userID, battleID string) (*BattleView, error) {
	return s.transition(ctx, userID, battleID, battle.Accept)
}

// RejectBattle declines a pending battle; only the opponent may reject
func (s *BattleService) RejectBattle(ctx context.Context, userID, battleID string) (*BattleView, error) {
	return s.transition(ctx, userID, battleID, battle.Reject)
}

// CancelBattle withdraws a pending battle; only the creator may cancel
func (s *BattleService) CancelBattle(ctx context.Context, userID, battleID string) (*BattleView, error) {
	return s.transition(ctx, userID, battleID, battle.Cancel)
}

// GetBattle returns one battle with its standings. A battle whose window has
// passed is completed on read so the result never waits for the sweeper.
func (s *BattleService) GetBattle(ctx context.Context, userID, battleID string) (*BattleView, error) {
	b, err := s.participantBattle(ctx, userID, battleID)
	if err != nil {
		return nil, err
	}
	if err := s.completeIfDue(ctx, b); err != nil {
		return nil, err
	}
	return s.view(ctx, *b, nil)
}

// ListBattles returns every battle the user takes part in, newest first
func (s *BattleService) ListBattles(ctx context.Context, userID string) ([]BattleView, error) {
	battles, err := s.battleRepo.ListBattlesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	views := make([]BattleView, 0, len(battles))
	for i := range battles {
		if err := s.completeIfDue(ctx, &battles[i]); err != nil {
			return nil, err
		}
		v, err := s.view(ctx, battles[i], names)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// CompleteExpired closes every active battle whose window has elapsed and
// returns how many it closed. It also retries bonuses an earlier completion
// could not pay.
func (s *BattleService) CompleteExpired(ctx context.Context) (int, error) {
	battles, err := s.battleRepo.ListExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	completed := 0
	for i := range battles {
		b := battles[i]
		if err := s.completeIfDue(ctx, &b); err != nil {
			log.Printf("Error completing battle %s: %v", b.ID, err)
			continue
		}
		if b.Status == models.BattleCompleted {
			completed++
		}
	}

	owed, err := s.battleRepo.ListBonusOwed(ctx)
	if err != nil {
		return completed, err
	}
	for i := range owed {
		s.settleBonus(ctx, &owed[i])
	}
	return completed, nil
}

// completeIfDue completes b in place when it is active and its window has
// elapsed, and pays the winner's bonus if it is still owed
func (s *BattleService) completeIfDue(ctx context.Context, b *models.Battle) error {
	if b.OwesBonus() {
		s.settleBonus(ctx, b)
		return nil
	}

	now := s.now()
	if b.Status != models.BattleActive || now.Before(b.EndDate) {
		return nil
	}

	ledger, err := s.battleRepo.Ledger(ctx, b.ID)
	if err != nil {
		return err
	}
	res, err := battle.Complete(b, ledger, now)
	if errors.Is(err, battle.ErrNotFinished) {
		return nil
	}
	if err != nil {
		return err
	}

	ok, err := s.battleRepo.UpdateBattle(ctx, b, models.BattleActive)
	if err != nil {
		return err
	}
	if !ok {
		// another request completed it first and settles the bonus
		fresh, err := s.battleRepo.GetBattle(ctx, b.ID)
		if err != nil {
			return err
		}
		if fresh != nil {
			*b = *fresh
		}
		return nil
	}

	log.Printf("Battle %s completed: winner=%q draw=%v", b.ID, res.WinnerID, res.IsDraw)
	s.settleBonus(ctx, b)

	s.notifyResult(ctx, *b, ledger, now)
	return nil
}

// settleBonus pays the winner of b once. A failed award releases the claim
// so the next sweep retries it.
func (s *BattleService) settleBonus(ctx context.Context, b *models.Battle) {
	if !b.OwesBonus() || s.gameService == nil {
		return
	}
	ok, err := s.battleRepo.ClaimBonus(ctx, b.ID)
	if err != nil {
		log.Printf("Error claiming battle bonus for %s: %v", b.ID, err)
		return
	}
	if !ok {
		return
	}

	winner := *b.WinnerID
	if _, err := s.gameService.AwardBonus(ctx, winner, b.BonusPoints); err != nil {
		log.Printf("Error awarding battle bonus for %s to %s, will retry: %v", b.ID, winner, err)
		if err := s.battleRepo.ReleaseBonus(ctx, b.ID); err != nil {
			log.Printf("Error releasing battle bonus for %s: %v", b.ID, err)
		}
		return
	}
	b.BonusAwarded = true
}

func (s *BattleService) notifyResult(ctx context.Context, b models.Battle, ledger []models.BattlePoints, now time.Time) {
	if s.notifier == nil {
		return
	}
	creator, err := s.userRepo.GetUserByID(ctx, b.CreatorID)
	if err != nil || creator == nil {
		return
	}
	opponent, err := s.userRepo.GetUserByID(ctx, b.OpponentID)
	if err != nil || opponent == nil {
		return
	}
	stats := battle.Score(ledger, b, now)
	if err := s.notifier.SendBattleResult(ctx, *creator, *opponent, b, stats); err != nil {
		log.Printf("Error sending battle result for %s: %v", b.ID, err)
	}
	if err := s.notifier.SendBattleResult(ctx, *opponent, *creator, b, stats); err != nil {
		log.Printf("Error sending battle result for %s: %v", b.ID, err)
	}
}

// view scores b and resolves participant names. names caches lookups across calls.
func (s *BattleService) view(ctx context.Context, b models.Battle, names map[string]string) (*BattleView, error) {
	ledger, err := s.battleRepo.Ledger(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = map[string]string{}
	}
	creatorName, err := s.displayName(ctx, b.CreatorID, names)
	if err != nil {
		return nil, err
	}
	opponentName, err := s.displayName(ctx, b.OpponentID, names)
	if err != nil {
		return nil, err
	}
	return &BattleView{
		Battle:       b,
		CreatorName:  creatorName,
		OpponentName: opponentName,
		Stats:        battle.Score(ledger, b, s.now()),
	}, nil
}

func (s *BattleService) displayName(ctx context.Context, userID string, names map[string]string) (string, error) {
	if name, ok := names[userID]; ok {
		return name, nil
	}
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	name := ""
	if u != nil {
		name = u.DisplayName
	}
	names[userID] = name
	return name, nil
}
