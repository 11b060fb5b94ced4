package service

import "errors"

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")

	ErrCardNotFound     = errors.New("card not found")
	ErrInvalidPosition  = errors.New("cell position is outside the card")
	ErrFreeCell         = errors.New("the free cell cannot be changed")
	ErrAlreadyCompleted = errors.New("cell is already completed")
	ErrNotCompleted     = errors.New("cell is not completed")
	ErrInvalidSize      = errors.New("card size must be between 3 and 9")
	ErrInvalidTheme     = errors.New("unknown theme")
	ErrInvalidCategory  = errors.New("unknown category")
	ErrInappropriate    = errors.New("text contains a filtered word")

	ErrBattleNotFound   = errors.New("battle not found")
	ErrOpponentNotFound = errors.New("opponent not found")
	ErrNotFriends       = errors.New("battles can only be started with a friend")

	ErrPlayerNotFound        = errors.New("player not found")
	ErrSelfFriend            = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends        = errors.New("already friends")
	ErrFriendRequestPending  = errors.New("friend request already sent")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrFriendRequestAnswered = errors.New("friend request was already answered")

	ErrStateContention = errors.New("game state is busy, try again")
)
