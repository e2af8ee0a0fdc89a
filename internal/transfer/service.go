// Package transfer orchestrates peer-to-peer money movement: PIN check, fee
// computation, account resolution and the ledger's atomic commit.
package transfer

import (
	"context"
	"errors"

	"github.com/dtv/mobank/internal/identity"
	"github.com/dtv/mobank/internal/ledger"
	"github.com/dtv/mobank/internal/vault"
)

var (
	// ErrInvalidAmount rejects zero or negative transfer amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrPINNotSet indicates the sender has not completed PIN setup.
	ErrPINNotSet = errors.New("transaction PIN is not set")
	// ErrInvalidPIN indicates the submitted PIN does not match.
	ErrInvalidPIN = errors.New("wrong transaction PIN")
	// ErrNoAccount indicates the sender owns no usable source account.
	ErrNoAccount = errors.New("sender has no account")
	// ErrReceiverNotFound indicates the receiver lookup matched nothing.
	ErrReceiverNotFound = errors.New("receiver account not found")
	// ErrSelfTransfer rejects transfers where sender and receiver are the
	// same account.
	ErrSelfTransfer = errors.New("cannot transfer to the same account")
)

// Service validates and executes transfers against the ledger store.
type Service struct {
	store        ledger.Store
	interBankFee int64
}

// NewService builds a transfer service. interBankFee is the flat charge added
// when sender and receiver accounts live at different banks.
func NewService(store ledger.Store, interBankFee int64) *Service {
	return &Service{store: store, interBankFee: interBankFee}
}

// Input captures one transfer request.
type Input struct {
	ReceiverNumber string
	// ReceiverBank switches the lookup to number+bank when non-empty.
	ReceiverBank string
	// SenderNumber optionally selects one of the sender's own accounts.
	// When empty the sender's first-created account is debited.
	SenderNumber string
	Amount       int64
	PIN          string
}

// Transfer runs the validation chain in fixed order and, only if every check
// passes, hands off to the ledger's atomic transfer. Validation failures
// happen before any mutation; once the ledger commit starts it either applies
// fully or not at all.
func (s *Service) Transfer(ctx context.Context, sender identity.User, in Input) (ledger.Transaction, error) {
	if in.Amount <= 0 {
		return ledger.Transaction{}, ErrInvalidAmount
	}

	if !sender.HasPIN() {
		return ledger.Transaction{}, ErrPINNotSet
	}
	if !vault.Verify(in.PIN, sender.HashedPIN) {
		return ledger.Transaction{}, ErrInvalidPIN
	}

	accounts, err := s.store.AccountsByOwner(ctx, sender.ID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if len(accounts) == 0 {
		return ledger.Transaction{}, ErrNoAccount
	}
	source := accounts[0]
	if in.SenderNumber != "" {
		found := false
		for _, account := range accounts {
			if account.Number == in.SenderNumber {
				source, found = account, true
				break
			}
		}
		if !found {
			return ledger.Transaction{}, ErrNoAccount
		}
	}

	var receiver ledger.Account
	if in.ReceiverBank != "" {
		receiver, err = s.store.AccountByNumberAndBank(ctx, in.ReceiverNumber, in.ReceiverBank)
	} else {
		receiver, err = s.store.AccountByNumber(ctx, in.ReceiverNumber)
	}
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return ledger.Transaction{}, ErrReceiverNotFound
	}
	if err != nil {
		return ledger.Transaction{}, err
	}

	if source.ID == receiver.ID {
		return ledger.Transaction{}, ErrSelfTransfer
	}

	var fee int64
	if source.Bank != receiver.Bank {
		fee = s.interBankFee
	}

	return s.store.Transfer(ctx, source.ID, receiver.ID, in.Amount, fee)
}

// History lists the transactions touching any of the user's accounts, newest
// first.
func (s *Service) History(ctx context.Context, user identity.User) ([]ledger.Transaction, error) {
	accounts, err := s.store.AccountsByOwner(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}
	return s.store.TransactionsByAccounts(ctx, ids)
}
