package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"husaride/internal/auth"
	"husaride/internal/middleware"
	"husaride/internal/services"
	"husaride/internal/validation"
)

// responder turns service errors into the JSON error shape shared by every
// handler. loginPath is where browsers go when a session is missing.
type responder struct {
	production bool
	loginPath  string
}

func (r responder) fail(c *gin.Context, err error) {
	var (
		ve *services.ValidationError
		ce *services.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &ce):
		c.JSON(http.StatusBadRequest, gin.H{"error": ce.Reason})
	case errors.Is(err, services.ErrInvalidLogin):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrUnauthenticated):
		if r.loginPath != "" && wantsHTML(c) {
			c.Redirect(http.StatusFound, r.loginPath)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied. No token provided."})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		body := gin.H{"error": "Server error"}
		if !r.production {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

// badRequest reports a malformed or incomplete request body.
func (r responder) badRequest(c *gin.Context, err error) {
	field, msg := validation.Message(err)
	body := gin.H{"error": msg}
	if field != "" {
		body["field"] = field
	}
	c.JSON(http.StatusBadRequest, body)
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), gin.MIMEHTML)
}

func identity(c *gin.Context) *auth.Identity {
	return middleware.CurrentIdentity(c)
}
