package ledger

// SeedBalance is a test helper that overwrites an account's balance when the
// in-memory store is in use.
func SeedBalance(s Store, accountID string, amount int64) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		account := mem.accounts[accountID]
		account.Balance = amount
		mem.accounts[accountID] = account
	}
}

// TransactionCount is a test helper exposing the number of recorded
// transactions in the in-memory store.
func TransactionCount(s Store) int {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.RLock()
		defer mem.mu.RUnlock()
		return len(mem.txs)
	}
	return 0
}
