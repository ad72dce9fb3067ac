package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"gorm.io/gorm"
)

// UserFinder looks users up by ID.
type UserFinder interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
}

// Authenticator turns a bearer token into the identity of a user that still
// exists.
type Authenticator struct {
	tokens *TokenService
	users  UserFinder
}

func NewAuthenticator(tokens *TokenService, users UserFinder) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate verifies token and reloads its user. Tokens of deleted users
// are rejected with ErrInvalidToken.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claimed, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := a.users.FindByID(ctx, claimed.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &Identity{ID: user.ID, Username: user.Username}, nil
}

// Tokens returns the token service used to verify tokens.
func (a *Authenticator) Tokens() *TokenService {
	return a.tokens
}
