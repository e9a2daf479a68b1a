package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CSRFHeader = "X-CSRF-Token"
	CSRFCookie = "csrf-token"
)

// CSRF requires the X-CSRF-Token header to echo the csrf-token cookie.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(CSRFHeader)
		cookie, err := c.Cookie(CSRFCookie)
		if err != nil || header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(cookie)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid CSRF token"})
			return
		}
		c.Next()
	}
}
