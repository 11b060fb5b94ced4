package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"goalbingo/internal/models"
	"goalbingo/internal/repository"
)

// FriendView is the other side of a friendship as the user sees it
type FriendView struct {
	FriendshipID string                  `json:"friendship_id"`
	UserID       string                  `json:"user_id"`
	DisplayName  string                  `json:"display_name"`
	Level        int                     `json:"level"`
	TotalPoints  int                     `json:"total_points"`
	Status       models.FriendshipStatus `json:"status"`
	IsRequester  bool                    `json:"is_requester"`
}

// FriendList groups a user's friendships. Rejected requests are left out.
type FriendList struct {
	Friends  []FriendView `json:"friends"`
	Incoming []FriendView `json:"incoming"`
	Outgoing []FriendView `json:"outgoing"`
}

// FriendService handles friend requests
type FriendService struct {
	friendRepo  *repository.FriendRepository
	userRepo    *repository.UserRepository
	gameService *GameService
	debug       bool
}

// NewFriendService creates a new friend service. gameService may be nil, in
// which case friends are listed without their progression.
func NewFriendService(friendRepo *repository.FriendRepository, userRepo *repository.UserRepository, gameService *GameService, debug bool) *FriendService {
	return &FriendService{
		friendRepo:  friendRepo,
		userRepo:    userRepo,
		gameService: gameService,
		debug:       debug,
	}
}

// RequestFriend sends a friend request to the player registered under email.
// A pending request in the other direction is accepted instead.
func (s *FriendService) RequestFriend(ctx context.Context, userID, email string) (*FriendView, error) {
	other, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, ErrPlayerNotFound
	}
	if other.ID == userID {
		return nil, ErrSelfFriend
	}

	existing, err := s.friendRepo.FindBetween(ctx, userID, other.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch {
		case existing.Status == models.FriendAccepted:
			return nil, ErrAlreadyFriends
		case existing.Status == models.FriendPending && existing.RequesterID == userID:
			return nil, ErrFriendRequestPending
		case existing.Status == models.FriendPending:
			return s.answer(ctx, userID, existing.ID, models.FriendAccepted)
		}
		// a rejected request may be sent again
		if err := s.friendRepo.DeleteFriendship(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	f := models.Friendship{
		ID:          uuid.NewString(),
		RequesterID: userID,
		AddresseeID: other.ID,
		Status:      models.FriendPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.friendRepo.CreateFriendship(ctx, &f); err != nil {
		return nil, err
	}
	if s.debug {
		log.Printf("[DEBUG] Friend request %s: %s -> %s", f.ID, userID, other.ID)
	}
	return s.view(ctx, userID, f)
}

// AcceptFriend accepts a request sent to the user
func (s *FriendService) AcceptFriend(ctx context.Context, userID, friendshipID string) (*FriendView, error) {
	return s.answer(ctx, userID, friendshipID, models.FriendAccepted)
}

// RejectFriend rejects a request sent to the user
func (s *FriendService) RejectFriend(ctx context.Context, userID, friendshipID string) (*FriendView, error) {
	return s.answer(ctx, userID, friendshipID, models.FriendRejected)
}

// answer moves a pending request addressed to userID to status. Requests
// the user did not receive read as not found.
func (s *FriendService) answer(ctx context.Context, userID, friendshipID string, status models.FriendshipStatus) (*FriendView, error) {
	f, err := s.friendRepo.GetFriendship(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if f == nil || f.AddresseeID != userID {
		return nil, ErrFriendRequestNotFound
	}
	if f.Status != models.FriendPending {
		return nil, ErrFriendRequestAnswered
	}
	ok, err := s.friendRepo.UpdateStatus(ctx, f.ID, models.FriendPending, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrFriendRequestAnswered
	}
	f.Status = status
	f.UpdatedAt = time.Now().UTC()
	return s.view(ctx, userID, *f)
}

// ListFriends returns the user's friends and open requests
func (s *FriendService) ListFriends(ctx context.Context, userID string) (*FriendList, error) {
	friendships, err := s.friendRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	list := &FriendList{Friends: []FriendView{}, Incoming: []FriendView{}, Outgoing: []FriendView{}}
	for _, f := range friendships {
		if f.Status == models.FriendRejected {
			continue
		}
		v, err := s.view(ctx, userID, f)
		if err != nil {
			return nil, err
		}
		switch {
		case f.Status == models.FriendAccepted:
			list.Friends = append(list.Friends, *v)
		case v.IsRequester:
			list.Outgoing = append(list.Outgoing, *v)
		default:
			list.Incoming = append(list.Incoming, *v)
		}
	}
	return list, nil
}

// AreFriends reports whether two players have an accepted friendship
func (s *FriendService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	return s.friendRepo.AreFriends(ctx, a, b)
}

func (s *FriendService) view(ctx context.Context, userID string, f models.Friendship) (*FriendView, error) {
	otherID := f.Other(userID)
	v := &FriendView{
		FriendshipID: f.ID,
		UserID:       otherID,
		Level:        1,
		Status:       f.Status,
		IsRequester:  f.RequesterID == userID,
	}
	other, err := s.userRepo.GetUserByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if other != nil {
		v.DisplayName = other.DisplayName
	}
	if s.gameService != nil {
		st, err := s.gameService.State(ctx, otherID)
		if err != nil {
			return nil, err
		}
		v.Level = st.Level()
		v.TotalPoints = st.TotalPoints
	}
	return v, nil
}
