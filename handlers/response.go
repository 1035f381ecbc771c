package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamkb/teamkb/internal/apperrors"
	"github.com/teamkb/teamkb/pkg/logger"
)

// respond writes the success envelope {"success": true, key: value}.
func respond(c *gin.Context, status int, key string, value interface{}) {
	c.JSON(status, gin.H{"success": true, key: value})
}

// writeError converts err into the failure envelope. Server-side failures are
// logged with their details; the client only sees a generic message.
func writeError(c *gin.Context, err error) {
	status := apperrors.Status(err)
	msg := err.Error()
	switch {
	case errors.Is(err, apperrors.ErrUpstream):
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		msg = "AI service failed, please try again"
	case status >= http.StatusInternalServerError:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		msg = "Internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}
