package dto

import "github.com/LeBonSushi/ft-transcendence-sub000/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}

// userRef converts an optional preloaded relation
func userRef(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	u := ToUserDTO(*user)
	return &u
}

// TokenResponse is returned when a token is issued
type TokenResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      UserDTO `json:"user"`
}
