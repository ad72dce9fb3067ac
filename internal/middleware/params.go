package middleware

import (
	"strconv"

	apierrors "github.com/LeBonSushi/ft-transcendence-sub000/internal/errors"
	"github.com/gin-gonic/gin"
)

const paramKeyPrefix = "param:"

// RequireIDParams parses the named path parameters as positive integer IDs
// and stores them for IDParam. Invalid IDs abort with 400.
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			id, err := strconv.ParseUint(c.Param(name), 10, 64)
			if err != nil || id == 0 {
				apierrors.BadRequest(c, "Invalid "+name)
				c.Abort()
				return
			}
			c.Set(paramKeyPrefix+name, id)
		}
		c.Next()
	}
}

// IDParam returns a path parameter parsed by RequireIDParams
func IDParam(c *gin.Context, name string) uint64 {
	return c.GetUint64(paramKeyPrefix + name)
}
