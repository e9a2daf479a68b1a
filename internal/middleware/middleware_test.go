package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"husaride/internal/auth"
	"husaride/internal/models"
	"husaride/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newIssuer() *auth.Issuer {
	return auth.NewIssuer("test-secret", time.Hour)
}

func TestTokenFromRequestPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		body   string
		want   string
	}{
		{"header wins", "Bearer h", "c", `{"token":"b"}`, "h"},
		{"cookie before body", "", "c", `{"token":"b"}`, "c"},
		{"body last", "", "", `{"token":"b"}`, "b"},
		{"none", "", "", `{}`, ""},
		{"malformed header ignored", "Basic x", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: DriverCookie, Value: tt.cookie})
			}
			c.Request = req

			if got := TokenFromRequest(c, DriverCookie); got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
			rest, _ := io.ReadAll(c.Request.Body)
			if string(rest) != tt.body {
				t.Errorf("body after read = %q, want %q", rest, tt.body)
			}
		})
	}
}

func protected(issuer *auth.Issuer, roles ...models.Role) *gin.Engine {
	r := gin.New()
	g := r.Group("/x", RequireAuth(issuer, AdminCookie, "/admin/login"), RequireRole("/admin/login", roles...))
	g.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentIdentity(c).UserID})
	})
	return r
}

func TestRequireAuthAndRole(t *testing.T) {
	issuer := newIssuer()
	adminTok, _ := issuer.Issue("a1", models.RoleAdmin)
	driverTok, _ := issuer.Issue("d1", models.RoleDriver)
	r := protected(issuer, models.RoleAdmin)

	tests := []struct {
		name     string
		token    string
		accept   string
		want     int
		location string
	}{
		{"no token", "", "", http.StatusUnauthorized, ""},
		{"garbage token", "nope", "", http.StatusUnauthorized, ""},
		{"browser redirected", "", "text/html", http.StatusFound, "/admin/login"},
		{"wrong role", driverTok, "", http.StatusForbidden, ""},
		{"admin", adminTok, "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: AdminCookie, Value: tt.token})
			}
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.location != "" && w.Header().Get("Location") != tt.location {
				t.Errorf("location = %q", w.Header().Get("Location"))
			}
		})
	}
}

func TestOptionalAuthIgnoresBadToken(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuth(newIssuer(), PassengerCookie), func(c *gin.Context) {
		if CurrentIdentity(c) != nil {
			c.Status(http.StatusTeapot)
			return
		}
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired.or.forged")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestCSRF(t *testing.T) {
	r := gin.New()
	r.PATCH("/", CSRF(), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"match", "abc", "abc", http.StatusOK},
		{"mismatch", "abc", "xyz", http.StatusForbidden},
		{"missing header", "", "abc", http.StatusForbidden},
		{"missing cookie", "abc", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/", nil)
			if tt.header != "" {
				req.Header.Set(CSRFHeader, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(ratelimit.NewMemoryLimiter(2, time.Minute), 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}
