package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
)

const accountColumns = `id, label, branch_name, decimal_places, currency, active, locked, created_at, updated_at`

const createAccount = `
INSERT INTO accounts (` + accountColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const getAccountByID = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

const getAccountByLabel = `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(label) = LOWER($1)`

const listAccounts = `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, id LIMIT $1 OFFSET $2`

const listActiveAccounts = `SELECT ` + accountColumns + ` FROM accounts WHERE active ORDER BY created_at, id`

const setAccountLocked = `UPDATE accounts SET locked = $2, updated_at = $3 WHERE id = $1`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	_, err := conn(r.db, tx).Exec(ctx, createAccount,
		account.ID,
		account.Label,
		account.Settings.BranchName,
		account.Settings.DecimalPlaces,
		account.Settings.Currency,
		account.Active,
		account.Locked,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return domain.WrapValidation(fmt.Sprintf("Account label %q is already in use", account.Label), domain.ErrDuplicateLabel)
	}
	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, getAccountByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("account", id, domain.ErrAccountNotFound)
		}
		return nil, err
	}
	return &account, nil
}

// GetByLabel retrieves an account by its case-insensitive label.
func (r *AccountRepository) GetByLabel(ctx context.Context, label string) (*domain.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, getAccountByLabel, label))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("account", label, domain.ErrAccountNotFound)
		}
		return nil, err
	}
	return &account, nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, listAccounts, limit, offset)
	if err != nil {
		return nil, err
	}
	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Account, error) {
		account, err := scanAccount(row)
		return &account, err
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListActive returns every active account, oldest first.
func (r *AccountRepository) ListActive(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, listActiveAccounts)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		return scanAccount(row)
	})
}

// SetLocked flips the write lock of an account.
func (r *AccountRepository) SetLocked(ctx context.Context, id string, locked bool, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, setAccountLocked, id, locked, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("account", id, domain.ErrAccountNotFound)
	}
	return nil
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID,
		&a.Label,
		&a.Settings.BranchName,
		&a.Settings.DecimalPlaces,
		&a.Settings.Currency,
		&a.Active,
		&a.Locked,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}
