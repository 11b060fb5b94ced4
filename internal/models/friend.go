package models

import "time"

// FriendshipStatus is the state of a friend request
type FriendshipStatus string

const (
	FriendPending  FriendshipStatus = "pending"
	FriendAccepted FriendshipStatus = "accepted"
	FriendRejected FriendshipStatus = "rejected"
)

// Friendship links two players. The requester sent the request; only the
// addressee may answer it.
type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	AddresseeID string           `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Other returns the player on the other side from userID
func (f *Friendship) Other(userID string) string {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// Involves reports whether userID sent or received the request
func (f *Friendship) Involves(userID string) bool {
	return userID != "" && (f.RequesterID == userID || f.AddresseeID == userID)
}
