package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessToken(t *testing.T) {
	tok, err := NewAccessToken("test-secret", "64a0f1", "user@example.com", []string{"ADMIN", "USER"}, 60)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}
	if remaining := time.Until(tok.Exp); remaining < 59*time.Minute || remaining > 61*time.Minute {
		t.Errorf("expiry %v not about an hour away", tok.Exp)
	}

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not parse back: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "64a0f1" {
		t.Errorf("sub = %v", claims["sub"])
	}
	if claims["email"] != "user@example.com" {
		t.Errorf("email = %v", claims["email"])
	}
	roles, ok := claims["roles"].([]interface{})
	if !ok || len(roles) != 2 || roles[0] != "ADMIN" {
		t.Errorf("roles = %v", claims["roles"])
	}
}

func TestNewAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("right", "id", "a@b.c", nil, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("wrong"), nil
	})
	if err == nil && parsed.Valid {
		t.Fatal("token verified with the wrong secret")
	}
}
