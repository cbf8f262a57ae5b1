package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/biruk-77/bysell-backend-sub000/config"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "test",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 42, "+251911234567", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Phone != "+251911234567" || claims.Role != "user" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := GenerateAccessToken(cfg, 1, "+10000000000", "user")
	if err != nil {
		t.Fatal(err)
	}
	other := *cfg
	other.AccessSecret = "different"
	if _, err := ParseAccessToken(&other, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	cfg := testJWTConfig()
	refresh, err := GenerateRefreshToken(cfg, 7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAccessToken(cfg, refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}

	userID, err := ParseRefreshToken(cfg, refresh)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if userID != 7 {
		t.Fatalf("userID = %d, want 7", userID)
	}
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessExpiry = -time.Minute
	token, err := GenerateAccessToken(cfg, 1, "+10000000000", "user")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAccessToken(cfg, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token err = %v, want ErrInvalidToken", err)
	}
}
