package dto

import (
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
)

// FriendDTO represents a relationship from the point of view of one user
type FriendDTO struct {
	FriendshipID uint64                  `json:"friendship_id"`
	UserID       uint64                  `json:"user_id"`
	User         *UserDTO                `json:"user,omitempty"`
	Status       models.FriendshipStatus `json:"status"`
	Outgoing     bool                    `json:"outgoing"`
	Since        time.Time               `json:"since"`
}

// ToFriendDTO converts a friendship as seen by viewerID
func ToFriendDTO(f models.Friendship, viewerID uint64) FriendDTO {
	other := f.Other(viewerID)

	var user *models.User
	if f.UserID == other {
		user = f.User
	} else {
		user = f.Friend
	}

	return FriendDTO{
		FriendshipID: f.ID,
		UserID:       other,
		User:         userRef(user),
		Status:       f.Status,
		Outgoing:     f.UserID == viewerID,
		Since:        f.UpdatedAt,
	}
}

// ToFriendDTOs converts a list of friendships as seen by viewerID
func ToFriendDTOs(friendships []models.Friendship, viewerID uint64) []FriendDTO {
	dtos := make([]FriendDTO, len(friendships))
	for i, f := range friendships {
		dtos[i] = ToFriendDTO(f, viewerID)
	}
	return dtos
}
