package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, Claims{
		UserID: "user-1",
		Role:   "student",
		Email:  "student@example.local",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	claims, err := ParseToken("secret", "issuer", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if claims.UserID != "user-1" || claims.Role != "student" || claims.Email != "student@example.local" {
		t.Fatalf("unexpected claims")
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject to mirror user id")
	}
}

func TestAccessTokenRejections(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, Claims{UserID: "user-1", Role: "student"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if _, err := ParseToken("wrong-secret", "issuer", token); err == nil {
		t.Fatalf("expected signature rejection")
	}
	if _, err := ParseToken("secret", "other-issuer", token); err == nil {
		t.Fatalf("expected issuer rejection")
	}
	if _, err := ParseToken("secret", "issuer", "not-a-token"); err == nil {
		t.Fatalf("expected malformed token rejection")
	}

	expired, err := NewAccessToken("secret", "issuer", -time.Minute, Claims{UserID: "user-1", Role: "student"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "issuer", expired); err == nil {
		t.Fatalf("expected expiry rejection")
	}
}

func TestAllowed(t *testing.T) {
	allowed := []string{"student", "counselor"}
	if !Allowed("student", allowed) || !Allowed("counselor", allowed) {
		t.Fatalf("expected listed roles to pass")
	}
	if Allowed("admin", allowed) {
		t.Fatalf("expected admin to be denied without an explicit grant")
	}
	if Allowed("student", nil) {
		t.Fatalf("expected empty set to deny everything")
	}
}
