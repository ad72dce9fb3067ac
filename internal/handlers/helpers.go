package handlers

import (
	apierrors "github.com/LeBonSushi/ft-transcendence-sub000/internal/errors"
	"github.com/LeBonSushi/ft-transcendence-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
)

// currentUserID returns the authenticated user or writes a 401.
func currentUserID(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}

// respondError records err for the request logger and writes its API form.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	apierrors.Respond(c, err)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}
