package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"husaride/internal/auth"
	"husaride/internal/models"
)

const identityKey = "identity"

// Cookie names per route family.
const (
	PassengerCookie = "token"
	DriverCookie    = "driverToken"
	AdminCookie     = "adminToken"
)

// maxTokenBody caps how much of a JSON body is read when looking for a
// token field.
const maxTokenBody = 1 << 20

// TokenFromRequest finds a session token in the Authorization header, then
// the named cookie, then a "token" field of a JSON body. The body is left
// readable for the handler.
func TokenFromRequest(c *gin.Context, cookie string) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); tok != "" {
			return tok
		}
	}
	if cookie != "" {
		if tok, err := c.Cookie(cookie); err == nil && tok != "" {
			return tok
		}
	}
	return tokenFromBody(c)
}

func tokenFromBody(c *gin.Context) string {
	if c.Request.Body == nil || c.ContentType() != gin.MIMEJSON {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTokenBody))
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var peek struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(raw, &peek) != nil {
		return ""
	}
	return peek.Token
}

// CurrentIdentity returns the caller set by OptionalAuth or RequireAuth, or
// nil for anonymous requests.
func CurrentIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

// OptionalAuth attaches an identity when a valid token is present. Bad or
// expired tokens are treated as no token.
func OptionalAuth(issuer *auth.Issuer, cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := TokenFromRequest(c, cookie); tok != "" {
			if id, err := issuer.Verify(tok); err == nil {
				c.Set(identityKey, &id)
			}
		}
		c.Next()
	}
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// RequireAuth rejects requests without a valid token. Browsers are sent to
// loginPath instead of getting a 401.
func RequireAuth(issuer *auth.Issuer, cookie, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := TokenFromRequest(c, cookie)
		if tok == "" {
			unauthenticated(c, loginPath, "Access denied. No token provided.")
			return
		}
		id, err := issuer.Verify(tok)
		if err != nil {
			unauthenticated(c, loginPath, "Invalid token.")
			return
		}
		c.Set(identityKey, &id)
		c.Next()
	}
}

func unauthenticated(c *gin.Context, loginPath, msg string) {
	if wantsHTML(c) && loginPath != "" {
		c.Redirect(http.StatusFound, loginPath)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// RequireRole must run after RequireAuth.
func RequireRole(loginPath string, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil {
			unauthenticated(c, loginPath, "Access denied. No token provided.")
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		if wantsHTML(c) && loginPath != "" {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}
