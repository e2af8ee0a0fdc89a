package token

import (
	"testing"
	"time"
)

func TestIssueAndResolve(t *testing.T) {
	svc := NewService("unit-secret", 30*time.Minute)

	tok, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	username, err := svc.Resolve(tok)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if username != "alice" {
		t.Fatalf("expected alice, got %q", username)
	}
}

func TestResolveExpiredToken(t *testing.T) {
	svc := NewService("unit-secret", -time.Minute)

	tok, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := svc.Resolve(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestResolveRejectsWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", 30*time.Minute)
	verifier := NewService("secret-b", 30*time.Minute)

	tok, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := verifier.Resolve(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestResolveRejectsGarbage(t *testing.T) {
	svc := NewService("unit-secret", 30*time.Minute)
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Resolve(tok); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", tok, err)
		}
	}
}
