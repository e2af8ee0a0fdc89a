package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/dtv/mobank/internal/identity"
	"github.com/dtv/mobank/internal/ledger"
)

// RegisterAccountRoutes exposes a GET endpoint listing the current user's
// accounts, oldest first. The first entry is the default source for transfers
// that name no account.
func RegisterAccountRoutes(r fiber.Router, store ledger.Store) {
	r.Get("/accounts/me", func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(identity.User)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "not authenticated")
		}

		accounts, err := store.AccountsByOwner(c.UserContext(), user.ID)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}

		out := make([]fiber.Map, 0, len(accounts))
		for _, account := range accounts {
			out = append(out, fiber.Map{
				"id":             account.ID,
				"account_number": account.Number,
				"balance":        account.Balance,
				"bank_name":      account.Bank,
				"created_at":     account.CreatedAt,
			})
		}
		return c.Status(http.StatusOK).JSON(out)
	})
}
