package handlers

import (
	"net/http"
	"time"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/auth"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/dto"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler issues tokens for development logins. Production identities
// come from an external provider that signs tokens with the same secret.
type AuthHandler struct {
	userService *services.UserService
	tokens      *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService *services.UserService, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
	}
}

// Login finds or creates the named user and returns a bearer token for it.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Email    string `json:"email" binding:"required,email"`
	}

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.EnsureUser(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(auth.Identity{ID: user.ID, Username: user.Username})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      dto.ToUserDTO(*user),
	})
}
