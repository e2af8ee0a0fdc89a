package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dtv/mobank/internal/identity"
	"github.com/dtv/mobank/internal/token"
)

func TestBearerAuth(t *testing.T) {
	tokens := token.NewService("unit-secret", 30*time.Minute)
	repo := identity.NewMemoryRepository()
	if err := repo.Create(context.Background(), identity.User{ID: uuid.NewString(), Username: "alice"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	app := fiber.New()
	app.Get("/me", BearerAuth(tokens, repo), func(c *fiber.Ctx) error {
		user, _ := c.Locals("user").(identity.User)
		return c.JSON(fiber.Map{"username": user.Username})
	})

	request := func(authz string) int {
		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		if authz != "" {
			req.Header.Set(fiber.HeaderAuthorization, authz)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if status := request(""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", status)
	}
	if status := request("Bearer garbage"); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", status)
	}

	// A validly signed token for a user who no longer exists must be rejected.
	ghost, err := tokens.Issue("ghost")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if status := request("Bearer " + ghost); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for a vanished identity, got %d", status)
	}

	tok, err := tokens.Issue("alice")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if status := request("Bearer " + tok); status != fiber.StatusOK {
		t.Fatalf("expected 200 for a valid token, got %d", status)
	}

	expired := token.NewService("unit-secret", -time.Minute)
	stale, err := expired.Issue("alice")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if status := request("Bearer " + stale); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for an expired token, got %d", status)
	}
}
