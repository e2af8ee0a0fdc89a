package identity

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/dtv/mobank/internal/ledger"
	"github.com/dtv/mobank/internal/notification"
	"github.com/dtv/mobank/internal/otp"
	"github.com/dtv/mobank/internal/vault"
)

type captureNotifier struct {
	body string
}

func (n *captureNotifier) Send(_ context.Context, msg notification.Message) error {
	n.body = msg.Body
	return nil
}

func newTestService() (*Service, ledger.Store, *captureNotifier) {
	store := ledger.NewInMemory()
	notifier := &captureNotifier{}
	otps := otp.NewRegistry(otp.NewMemoryStore(), notifier, 5*time.Minute)
	svc := NewService(NewMemoryRepository(), store, otps, "DTV Bank")
	return svc, store, notifier
}

func TestRegisterCreatesUserAndDefaultAccount(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{Username: "alice", Password: "pw123456", FullName: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != RoleCustomer {
		t.Fatalf("expected default role %s, got %s", RoleCustomer, user.Role)
	}
	if user.HasPIN() {
		t.Fatalf("a fresh user must not have a PIN")
	}
	if !vault.Verify("pw123456", user.HashedPassword) {
		t.Fatalf("stored password hash does not verify")
	}

	accounts, err := store.AccountsByOwner(ctx, user.ID)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected one default account, got %d", len(accounts))
	}
	if accounts[0].Bank != "DTV Bank" || accounts[0].Balance != 0 {
		t.Fatalf("unexpected default account: %+v", accounts[0])
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(ctx, Registration{Username: "alice", Password: "other"}); err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Username: "alice", Password: "pw123456"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "alice", "pw123456"); err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "wrong"); err != ErrBadCredentials {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "pw123456"); err != ErrBadCredentials {
		t.Fatalf("expected ErrBadCredentials for unknown user, got %v", err)
	}
}

func TestSetPINFlow(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{Username: "alice", Password: "pw123456", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.RequestPinOTP(ctx, user); err != nil {
		t.Fatalf("request otp failed: %v", err)
	}
	code := regexp.MustCompile(`\d{6}`).FindString(notifier.body)
	if code == "" {
		t.Fatalf("no code found in dispatched message %q", notifier.body)
	}

	if err := svc.SetPIN(ctx, user, "wrong-password", code, "4321"); err != ErrBadCredentials {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	if err := svc.SetPIN(ctx, user, "pw123456", wrong, "4321"); err != ErrBadOTP {
		t.Fatalf("expected ErrBadOTP, got %v", err)
	}
	if err := svc.SetPIN(ctx, user, "pw123456", code, "12"); err != ErrWeakPIN {
		t.Fatalf("expected ErrWeakPIN, got %v", err)
	}

	if err := svc.SetPIN(ctx, user, "pw123456", code, "4321"); err != nil {
		t.Fatalf("set pin failed: %v", err)
	}

	updated, err := svc.ByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !updated.HasPIN() || !vault.Verify("4321", updated.HashedPIN) {
		t.Fatalf("stored PIN hash does not verify")
	}

	// The code was consumed by the successful set.
	if err := svc.SetPIN(ctx, user, "pw123456", code, "9999"); err != ErrBadOTP {
		t.Fatalf("expected consumed OTP to be rejected, got %v", err)
	}
}
