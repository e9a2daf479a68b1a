package models

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewUserNormalizes(t *testing.T) {
	u := NewUser("  Ann  ", " Ann@Example.COM ", "5551234567", RolePassenger)
	if u.Name != "Ann" || u.Email != "ann@example.com" || u.Phone != "(555) 123-4567" {
		t.Errorf("unexpected user %+v", u)
	}
	if !u.Notifications.Email || !u.Notifications.SMS || !u.Notifications.Push {
		t.Error("notifications should default to enabled")
	}
}

func TestPasswordHashing(t *testing.T) {
	u := NewUser("Ann", "ann@example.com", "5551234567", RolePassenger)
	if err := u.SetPassword("secret1", bcrypt.MinCost); err != nil {
		t.Fatal(err)
	}
	if u.Password == "secret1" {
		t.Fatal("password stored in plaintext")
	}
	if !u.ComparePassword("secret1") {
		t.Error("correct password rejected")
	}
	if u.ComparePassword("secret2") {
		t.Error("wrong password accepted")
	}
}
