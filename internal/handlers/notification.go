package handlers

import (
	"net/http"

	"github.com/LeBonSushi/ft-transcendence-sub000/internal/middleware"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/models"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/services"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications returns the current user's notifications, newest first.
// ?unread=true restricts the list to unread ones.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page := utils.GetPaginationParams(c)

	var (
		notifications []models.Notification
		err           error
	)
	if c.Query("unread") == "true" {
		notifications, err = h.notificationService.GetUnreadNotifications(c.Request.Context(), userID, page)
	} else {
		notifications, err = h.notificationService.GetNotifications(c.Request.Context(), userID, page)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	unread, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread":        unread,
		"pagination": utils.PaginationResponse{
			Page:  page.Page,
			Limit: page.Limit,
			Total: int64(len(notifications)),
		},
	})
}

// UnreadCount returns the number of unread notifications
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkAsRead marks one notification as read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkAsRead(c.Request.Context(), userID, middleware.IDParam(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

// MarkAllAsRead marks every notification of the current user as read
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// AnswerNotification accepts or declines an answerable notification
func (h *NotificationHandler) AnswerNotification(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type AnswerRequest struct {
		Accepted *bool `json:"accepted" binding:"required"`
	}

	var req AnswerRequest
	if !bindJSON(c, &req) {
		return
	}

	notification, err := h.notificationService.AnswerToNotification(c.Request.Context(), userID, middleware.IDParam(c, "id"), *req.Accepted)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}
