package handlers

import (
	"net/http"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/dto"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetCurrentUser returns the authenticated user
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteAccount deletes the authenticated user. Rooms they created are handed
// over to another member or deleted when empty.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.userService.DeleteAccount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	reassigned := make([]uint64, len(result.ReassignedRooms))
	for i, room := range result.ReassignedRooms {
		reassigned[i] = room.ID
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Account deleted successfully",
		"reassigned_rooms": reassigned,
		"deleted_rooms":    result.DeletedRoomIDs,
	})
}
