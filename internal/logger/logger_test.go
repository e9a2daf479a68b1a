package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func TestSetupLevel(t *testing.T) {
	prev := logrus.GetLevel()
	t.Cleanup(func() { logrus.SetLevel(prev) })

	dir := t.TempDir()
	if w := Setup(Options{File: filepath.Join(dir, "app.log"), Level: "debug"}); w == nil {
		t.Fatal("Setup returned nil writer")
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s", logrus.GetLevel())
	}
	Setup(Options{File: filepath.Join(dir, "app.log"), Level: "loud"})
	if logrus.GetLevel() != logrus.InfoLevel {
		t.Errorf("unknown level should fall back to info, got %s", logrus.GetLevel())
	}
}

func TestRequestLoggerSkipsHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(&buf))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/rides", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if buf.Len() != 0 {
		t.Errorf("health check was logged: %q", buf.String())
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rides", nil))
	if !strings.Contains(buf.String(), "/rides") {
		t.Errorf("access line missing path: %q", buf.String())
	}
}
