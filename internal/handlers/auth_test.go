package handlers

import (
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/hookchatio/hookchat/internal/config"
)

func TestCredentialsMatchPlain(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Admin: config.AdminConfig{Username: "admin", Password: "s3cret"},
		Auth:  config.AuthConfig{JWTSecret: "k", JWTExpiresIn: "24h"},
	}
	h := NewAuthHandler(slog.Default(), cfg)

	if !h.credentialsMatch("admin", "s3cret") {
		t.Fatalf("expected plain credentials to match")
	}
	if h.credentialsMatch("admin", "wrong") {
		t.Fatalf("expected wrong password to be rejected")
	}
	if h.credentialsMatch("other", "s3cret") {
		t.Fatalf("expected wrong username to be rejected")
	}
}

func TestCredentialsMatchBcrypt(t *testing.T) {
	t.Parallel()

	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg := config.Config{
		Admin: config.AdminConfig{Username: "admin", Password: string(hashed)},
		Auth:  config.AuthConfig{JWTSecret: "k", JWTExpiresIn: "24h"},
	}
	h := NewAuthHandler(slog.Default(), cfg)

	if !h.credentialsMatch("admin", "s3cret") {
		t.Fatalf("expected bcrypt credentials to match")
	}
	if h.credentialsMatch("admin", "wrong") {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestNewAuthHandlerExpiresFallback(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Auth: config.AuthConfig{JWTExpiresIn: "not-a-duration"}}
	h := NewAuthHandler(slog.Default(), cfg)
	if h.expiresIn <= 0 {
		t.Fatalf("expected positive fallback expiry, got %v", h.expiresIn)
	}
}
