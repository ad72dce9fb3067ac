package handlers

import (
	"context"
	"net/http"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/dto"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/middleware"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

type FriendshipHandler struct {
	friendshipService *services.FriendshipService
}

func NewFriendshipHandler(friendshipService *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendshipService: friendshipService}
}

// ListFriends returns the accepted friends of the current user
func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	friendships, err := h.friendshipService.ListFriends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": dto.ToFriendDTOs(friendships, userID)})
}

// ListPendingRequests returns the requests waiting for the current user
func (h *FriendshipHandler) ListPendingRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	friendships, err := h.friendshipService.ListPendingRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": dto.ToFriendDTOs(friendships, userID)})
}

// ListSentRequests returns the pending requests sent by the current user
func (h *FriendshipHandler) ListSentRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	friendships, err := h.friendshipService.ListSentRequests(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": dto.ToFriendDTOs(friendships, userID)})
}

// SendRequest sends a friend request to another user
func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	friendship, err := h.friendshipService.SendRequest(c.Request.Context(), userID, middleware.IDParam(c, "user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToFriendDTO(*friendship, userID))
}

// AcceptRequest accepts the request the other user sent
func (h *FriendshipHandler) AcceptRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	friendship, err := h.friendshipService.AcceptRequest(c.Request.Context(), userID, middleware.IDParam(c, "user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFriendDTO(*friendship, userID))
}

// RejectRequest rejects the request the other user sent
func (h *FriendshipHandler) RejectRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.friendshipService.RejectRequest(c.Request.Context(), userID, middleware.IDParam(c, "user_id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend request rejected"})
}

// BlockUser blocks the relationship with another user
func (h *FriendshipHandler) BlockUser(c *gin.Context) {
	h.transition(c, h.friendshipService.BlockRequest)
}

// UnblockUser restores a blocked relationship
func (h *FriendshipHandler) UnblockUser(c *gin.Context) {
	h.transition(c, h.friendshipService.UnblockRequest)
}

func (h *FriendshipHandler) transition(c *gin.Context, fn func(ctx context.Context, userID, friendID uint64) (*models.Friendship, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	friendship, err := fn(c.Request.Context(), userID, middleware.IDParam(c, "user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFriendDTO(*friendship, userID))
}

// DeleteFriend removes an accepted or blocked relationship
func (h *FriendshipHandler) DeleteFriend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.friendshipService.DeleteFriend(c.Request.Context(), userID, middleware.IDParam(c, "user_id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
}
