package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists accounts and transactions in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, account_number, balance, owner_id, bank_name, created_at`

// CreateAccount inserts a new account record.
func (s *PostgresStore) CreateAccount(ctx context.Context, account Account) error {
	accountID, err := uuid.Parse(account.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(account.OwnerID)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO accounts (id, account_number, balance, owner_id, bank_name, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		accountID, account.Number, account.Balance, ownerID, account.Bank, account.CreatedAt.UTC())
	return err
}

// AccountsByOwner lists the owner's accounts oldest first, so the first entry
// is the default account used when a transfer names no source.
func (s *PostgresStore) AccountsByOwner(ctx context.Context, ownerID string) ([]Account, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// AccountByNumber fetches an account by its unique number.
func (s *PostgresStore) AccountByNumber(ctx context.Context, number string) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number)
	return scanAccountRow(row)
}

// AccountByNumberAndBank fetches an account by number within a named bank.
func (s *PostgresStore) AccountByNumberAndBank(ctx context.Context, number, bank string) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1 AND bank_name = $2`, number, bank)
	return scanAccountRow(row)
}

// TransactionsByAccounts returns the transactions touching any of the given
// accounts, newest first.
func (s *PostgresStore) TransactionsByAccounts(ctx context.Context, accountIDs []string) ([]Transaction, error) {
	ids := make([]uuid.UUID, 0, len(accountIDs))
	for _, raw := range accountIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	rows, err := s.db.Query(ctx, `SELECT id, amount, sender_id, receiver_id, created_at
        FROM transactions WHERE sender_id = ANY($1) OR receiver_id = ANY($1)
        ORDER BY created_at DESC, id DESC`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var (
			tx                   Transaction
			id, sender, receiver uuid.UUID
			createdAt            time.Time
		)
		if err := rows.Scan(&id, &tx.Amount, &sender, &receiver, &createdAt); err != nil {
			return nil, err
		}
		tx.ID = id.String()
		tx.SenderID = sender.String()
		tx.ReceiverID = receiver.String()
		tx.CreatedAt = createdAt.UTC()
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Transfer moves amount from sender to receiver inside one database
// transaction. Both rows are locked FOR UPDATE in ascending id order so two
// mirror-image transfers cannot deadlock, and the balance is re-read under the
// lock before the funds check. The sender loses amount+fee, the receiver gains
// amount, and the transaction row gets its timestamp from the database clock.
func (s *PostgresStore) Transfer(ctx context.Context, senderID, receiverID string, amount, fee int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, fmt.Errorf("amount must be positive")
	}

	sender, err := uuid.Parse(senderID)
	if err != nil {
		return Transaction{}, err
	}
	receiver, err := uuid.Parse(receiverID)
	if err != nil {
		return Transaction{}, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	first, second := sender, receiver
	if second.String() < first.String() {
		first, second = second, first
	}
	balances := map[uuid.UUID]int64{}
	for _, id := range []uuid.UUID{first, second} {
		var balance int64
		err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrAccountNotFound
		}
		if err != nil {
			return Transaction{}, err
		}
		balances[id] = balance
	}

	totalDebit := amount + fee
	if balances[sender] < totalDebit {
		return Transaction{}, InsufficientFundsError{Balance: balances[sender], Required: totalDebit, Fee: fee}
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE id = $2`, totalDebit, sender); err != nil {
		return Transaction{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, amount, receiver); err != nil {
		return Transaction{}, err
	}

	txID := uuid.New()
	var createdAt time.Time
	err = tx.QueryRow(ctx, `INSERT INTO transactions (id, amount, sender_id, receiver_id, created_at)
        VALUES ($1, $2, $3, $4, now()) RETURNING created_at`, txID, amount, sender, receiver).Scan(&createdAt)
	if err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}

	return Transaction{
		ID:         txID.String(),
		Amount:     amount,
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  createdAt.UTC(),
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAccount(row scannable) (Account, error) {
	var (
		account   Account
		id, owner uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &account.Number, &account.Balance, &owner, &account.Bank, &createdAt); err != nil {
		return Account{}, err
	}
	account.ID = id.String()
	account.OwnerID = owner.String()
	account.CreatedAt = createdAt.UTC()
	return account, nil
}

func scanAccountRow(row pgx.Row) (Account, error) {
	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return account, err
}
