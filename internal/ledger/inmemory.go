package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account // keyed by account id
	byNumber map[string]string  // account number -> id
	txs      []Transaction
	now      func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory ledger store. It backs
// development mode and unit tests; one mutex serializes all transfers, which
// gives the same observable atomicity as the Postgres row locks.
func NewInMemory() Store {
	return &inMemoryStore{
		accounts: make(map[string]Account),
		byNumber: make(map[string]string),
		now:      time.Now,
	}
}

func (s *inMemoryStore) CreateAccount(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byNumber[account.Number]; exists {
		return fmt.Errorf("account number %s already exists", account.Number)
	}
	s.accounts[account.ID] = account
	s.byNumber[account.Number] = account.ID
	return nil
}

func (s *inMemoryStore) AccountsByOwner(_ context.Context, ownerID string) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var accounts []Account
	for _, account := range s.accounts {
		if account.OwnerID == ownerID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (s *inMemoryStore) AccountByNumber(_ context.Context, number string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[number]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return s.accounts[id], nil
}

func (s *inMemoryStore) AccountByNumberAndBank(_ context.Context, number, bank string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[number]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	account := s.accounts[id]
	if account.Bank != bank {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *inMemoryStore) TransactionsByAccounts(_ context.Context, accountIDs []string) ([]Transaction, error) {
	wanted := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var txs []Transaction
	for _, tx := range s.txs {
		if wanted[tx.SenderID] || wanted[tx.ReceiverID] {
			txs = append(txs, tx)
		}
	}
	// txs is append-ordered oldest first; the API promises newest first.
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

func (s *inMemoryStore) Transfer(_ context.Context, senderID, receiverID string, amount, fee int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, fmt.Errorf("amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.accounts[senderID]
	if !ok {
		return Transaction{}, ErrAccountNotFound
	}
	receiver, ok := s.accounts[receiverID]
	if !ok {
		return Transaction{}, ErrAccountNotFound
	}

	totalDebit := amount + fee
	if sender.Balance < totalDebit {
		return Transaction{}, InsufficientFundsError{Balance: sender.Balance, Required: totalDebit, Fee: fee}
	}

	sender.Balance -= totalDebit
	receiver.Balance += amount
	s.accounts[sender.ID] = sender
	s.accounts[receiver.ID] = receiver

	tx := Transaction{
		ID:         uuid.New().String(),
		Amount:     amount,
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		CreatedAt:  s.now().UTC(),
	}
	s.txs = append(s.txs, tx)
	return tx, nil
}
