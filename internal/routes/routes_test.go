package routes

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dtv/mobank/internal/config"
	"github.com/dtv/mobank/internal/logging"
)

func devConfig() config.Config {
	return config.Config{
		AppName:        "MoBank",
		AppEnv:         "development",
		Port:           "0",
		JWTSecret:      "test-secret",
		TokenTTL:       30 * time.Minute,
		OTPTTL:         5 * time.Minute,
		HomeBank:       "DTV Bank",
		InterBankFee:   50,
		IdempotencyTTL: time.Minute,
	}
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	if err := Setup(app, Deps{Cfg: devConfig(), Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, payload any) (int, map[string]any) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestRegisterLoginAndProfileFlow(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "alice", "password": "pw123456", "full_name": "Alice", "email": "alice@example.com",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%v)", status, body)
	}
	if _, leaked := body["hashed_password"]; leaked {
		t.Fatalf("register response must not carry secret fields")
	}
	if body["role"] != "CUSTOMER" {
		t.Fatalf("expected default role CUSTOMER, got %v", body["role"])
	}

	// Duplicate username is a client error.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "alice", "password": "other",
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", status)
	}

	status, _ = doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "alice", "password": "wrong",
	})
	if status != fiber.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", status)
	}

	status, body = doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "alice", "password": "pw123456",
	})
	if status != fiber.StatusOK {
		t.Fatalf("login: expected 200, got %d", status)
	}
	tok, _ := body["token"].(string)
	if tok == "" {
		t.Fatalf("login response carried no token")
	}

	status, body = doJSON(t, app, fiber.MethodGet, "/api/users/me", tok, nil)
	if status != fiber.StatusOK || body["username"] != "alice" {
		t.Fatalf("me: expected alice profile, got %d (%v)", status, body)
	}

	status, _ = doJSON(t, app, fiber.MethodGet, "/api/users/me", "bogus-token", nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("me with bad token: expected 401, got %d", status)
	}
}

func TestAccountsAndTransferGuards(t *testing.T) {
	app := setupApp(t)

	_, _ = doJSON(t, app, fiber.MethodPost, "/api/auth/register", "", fiber.Map{
		"username": "bob", "password": "pw123456",
	})
	_, body := doJSON(t, app, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "bob", "password": "pw123456",
	})
	tok, _ := body["token"].(string)

	req := httptest.NewRequest(fiber.MethodGet, "/api/accounts/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("accounts/me: %v", err)
	}
	var accounts []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		t.Fatalf("decode accounts: %v", err)
	}
	resp.Body.Close()
	if len(accounts) != 1 {
		t.Fatalf("expected the default account, got %d", len(accounts))
	}
	if accounts[0]["bank_name"] != "DTV Bank" {
		t.Fatalf("expected home-bank account, got %v", accounts[0])
	}

	// Transfers are refused before PIN setup, with no mutation.
	status, _ := doJSON(t, app, fiber.MethodPost, "/api/transactions/transfer", tok, fiber.Map{
		"receiver_account_number": "0000000000", "amount": 100, "pin": "1234",
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("transfer without PIN: expected 400, got %d", status)
	}

	req = httptest.NewRequest(fiber.MethodGet, "/api/transactions/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("transactions/me: %v", err)
	}
	var txs []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	resp.Body.Close()
	if len(txs) != 0 {
		t.Fatalf("expected no transactions, got %d", len(txs))
	}
}
