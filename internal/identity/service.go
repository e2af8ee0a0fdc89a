package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtv/mobank/internal/ledger"
	"github.com/dtv/mobank/internal/otp"
	"github.com/dtv/mobank/internal/vault"
)

var (
	// ErrUsernameTaken indicates a registration clashed with an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrBadCredentials indicates a wrong username/password combination.
	ErrBadCredentials = errors.New("wrong username or password")
	// ErrBadOTP indicates a missing, expired or mismatched one-time code.
	ErrBadOTP = errors.New("invalid or expired OTP")
	// ErrWeakPIN rejects transaction PINs shorter than four digits.
	ErrWeakPIN = errors.New("PIN must be at least 4 digits")
)

// Service manages the user lifecycle: registration, login checks and the
// OTP-gated PIN setup.
type Service struct {
	repo     Repository
	accounts ledger.Store
	otps     *otp.Registry
	homeBank string
}

// NewService creates an identity service. accounts is used to provision the
// default account a registration opens at the home bank.
func NewService(repo Repository, accounts ledger.Store, otps *otp.Registry, homeBank string) *Service {
	return &Service{repo: repo, accounts: accounts, otps: otps, homeBank: homeBank}
}

// Register creates a new customer with a hashed password and opens a
// zero-balance account for them at the home bank.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	if _, err := s.repo.FindByUsername(ctx, reg.Username); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	hash, err := vault.Hash(reg.Password)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:             uuid.New().String(),
		Username:       reg.Username,
		HashedPassword: hash,
		FullName:       reg.FullName,
		Email:          reg.Email,
		Role:           RoleCustomer,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	number, err := ledger.NewAccountNumber()
	if err != nil {
		return User{}, fmt.Errorf("account number: %w", err)
	}
	account := ledger.Account{
		ID:        uuid.New().String(),
		Number:    number,
		OwnerID:   user.ID,
		Bank:      s.homeBank,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return User{}, fmt.Errorf("open default account: %w", err)
	}

	return user, nil
}

// Authenticate verifies the login password. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if !vault.Verify(password, user.HashedPassword) {
		return User{}, ErrBadCredentials
	}
	return user, nil
}

// ByUsername resolves a username to the current user record.
func (s *Service) ByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// RequestPinOTP issues a fresh one-time code for the user and emails it.
func (s *Service) RequestPinOTP(ctx context.Context, user User) error {
	_, err := s.otps.Request(ctx, user.ID, user.Email)
	return err
}

// SetPIN stores a new transaction PIN after re-checking the login password
// and consuming the one-time code.
func (s *Service) SetPIN(ctx context.Context, user User, password, code, newPIN string) error {
	if !vault.Verify(password, user.HashedPassword) {
		return ErrBadCredentials
	}

	// Validate the new PIN before touching the OTP so a rejected PIN does
	// not burn the code.
	if len(newPIN) < 4 {
		return ErrWeakPIN
	}

	ok, err := s.otps.Consume(ctx, user.ID, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBadOTP
	}
	hash, err := vault.Hash(newPIN)
	if err != nil {
		return err
	}
	return s.repo.UpdatePIN(ctx, user.ID, hash)
}
