package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dtv/mobank/internal/identity"
	"github.com/dtv/mobank/internal/token"
)

// BearerAuth validates the Authorization bearer token and resolves it to the
// current user record. A token for a user who no longer exists is rejected,
// so downstream handlers always see live state rather than a token-time
// snapshot.
func BearerAuth(tokens *token.Service, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		username, err := tokens.Resolve(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		user, err := repo.FindByUsername(c.UserContext(), username)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "unknown identity")
		}

		c.Locals("user", user)
		return c.Next()
	}
}
