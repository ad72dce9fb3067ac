package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
	FriendshipBlocked  FriendshipStatus = "BLOCKED"
)

// Friendship is a directed edge from the sender (UserID) to the recipient
// (FriendID). PairKey is identical for both directions, so the unique index
// allows a single row per unordered pair.
type Friendship struct {
	ID        uint64           `gorm:"primarykey" json:"id"`
	UserID    uint64           `gorm:"not null;index" json:"user_id"`
	FriendID  uint64           `gorm:"not null;index" json:"friend_id"`
	Status    FriendshipStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	PairKey   string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// Relations
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Friend *User `gorm:"foreignKey:FriendID" json:"friend,omitempty"`
}

// FriendshipPairKey returns the order-independent key for a pair of users.
func FriendshipPairKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// BeforeCreate fills PairKey from the two endpoints.
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	f.PairKey = FriendshipPairKey(f.UserID, f.FriendID)
	return nil
}

// Other returns the endpoint of f that is not userID.
func (f *Friendship) Other(userID uint64) uint64 {
	if f.UserID == userID {
		return f.FriendID
	}
	return f.UserID
}
