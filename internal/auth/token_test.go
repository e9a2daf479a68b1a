package auth

import (
	"errors"
	"testing"
	"time"

	"husaride/internal/models"
)

func TestIssueVerify(t *testing.T) {
	iss := NewIssuer("test-secret", 7*24*time.Hour)
	tok, err := iss.Issue("u1", models.RoleDriver)
	if err != nil {
		t.Fatal(err)
	}
	id, err := iss.Verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != "u1" || id.Role != models.RoleDriver {
		t.Errorf("identity = %+v", id)
	}
}

func TestVerifyRejects(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	other := NewIssuer("other-secret", time.Hour)
	foreign, _ := other.Issue("u1", models.RoleAdmin)

	expired := NewIssuer("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _ := expired.Issue("u1", models.RolePassenger)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"expired", stale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := iss.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	tok, _ := iss.Issue("u1", models.Role("superuser"))
	if _, err := iss.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
