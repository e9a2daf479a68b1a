package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.JWTExpiresIn != 168*time.Hour {
		t.Errorf("JWTExpiresIn = %v", c.JWTExpiresIn)
	}
	if c.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d", c.BcryptCost)
	}
	if c.RateWindow != 15*time.Minute {
		t.Errorf("RateWindow = %v", c.RateWindow)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		secret  string
		wantErr bool
	}{
		{"production default", "production", "", true},
		{"production explicit default", "production", DefaultJWTSecret, true},
		{"production custom", "production", "a-long-random-secret", false},
		{"development default", "development", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)
			t.Setenv("JWT_SECRET", tt.secret)
			_, err := Load()
			if tt.wantErr != errors.Is(err, ErrInsecureSecret) {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestLimit(t *testing.T) {
	tests := []struct {
		env  string
		want int
	}{
		{"development", 1000},
		{"production", 100},
		{"test", 100},
	}
	for _, tt := range tests {
		c := Config{AppEnv: tt.env, RateLimit: 100}
		if got := c.RequestLimit(); got != tt.want {
			t.Errorf("%s: RequestLimit() = %d, want %d", tt.env, got, tt.want)
		}
	}
}

func TestDSN(t *testing.T) {
	c := Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable", DBTimezone: "UTC"}
	want := "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q", got)
	}
}
