// Package ledger owns the durable account and transaction records and the
// single atomic primitive that may move money between accounts.
package ledger

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// ErrAccountNotFound indicates a lookup by owner, number or number+bank
// matched nothing.
var ErrAccountNotFound = errors.New("account not found")

// InsufficientFundsError is returned when a sender's balance cannot cover the
// credited amount plus the inter-bank fee. It carries the exact numbers so the
// caller can report the shortfall precisely.
type InsufficientFundsError struct {
	Balance  int64
	Required int64
	Fee      int64
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, transfer requires %d (including fee %d)", e.Balance, e.Required, e.Fee)
}

// Account is a balance-holding record owned by a user. Balance is stored in
// minor currency units and never goes below zero as seen by any reader.
type Account struct {
	ID        string
	Number    string
	Balance   int64
	OwnerID   string
	Bank      string
	CreatedAt time.Time
}

// Transaction is an immutable log entry for one completed transfer. Amount is
// the amount credited to the receiver; the fee the sender paid on top is not
// recorded here.
type Transaction struct {
	ID         string
	Amount     int64
	SenderID   string
	ReceiverID string
	CreatedAt  time.Time
}

// Store is the contract implemented by ledger backends. Lookups enforce no
// business rules; validation ordering belongs to the transfer engine. Transfer
// is the only write path for balances: it debits amount+fee from the sender,
// credits amount to the receiver, appends the transaction record and commits
// the three mutations as one unit or not at all. The fee is debited but
// credited to no account. Implementations must serialize concurrent transfers
// touching the same account so a stale balance can never pass the funds check.
type Store interface {
	CreateAccount(ctx context.Context, account Account) error
	AccountsByOwner(ctx context.Context, ownerID string) ([]Account, error)
	AccountByNumber(ctx context.Context, number string) (Account, error)
	AccountByNumberAndBank(ctx context.Context, number, bank string) (Account, error)
	TransactionsByAccounts(ctx context.Context, accountIDs []string) ([]Transaction, error)
	Transfer(ctx context.Context, senderID, receiverID string, amount, fee int64) (Transaction, error)
}

// NewAccountNumber draws a random 10-digit account number.
func NewAccountNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10_000_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%010d", n.Int64()), nil
}
