package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iho/branchledger/internal/domain"
	"github.com/rs/zerolog"
)

// AccountUseCase handles branch account business logic.
type AccountUseCase struct {
	stores   Stores
	idGen    IDGenerator
	labels   *KeyedMutex
	observer Observer
	logger   zerolog.Logger
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(stores Stores, idGen IDGenerator, observer Observer, logger zerolog.Logger) *AccountUseCase {
	if observer == nil {
		observer = NopObserver
	}
	return &AccountUseCase{
		stores:   stores,
		idGen:    idGen,
		labels:   NewKeyedMutex(),
		observer: observer,
		logger:   logger.With().Str("component", "accounts").Logger(),
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Label         string
	BranchName    string
	DecimalPlaces int32
	Currency      string
}

// CreateAccount creates an account seeded with the system chart. Creation
// is serialized per label so two concurrent requests cannot both pass the
// uniqueness check.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	now := time.Now().UTC()
	account := &domain.Account{
		ID:    uc.idGen.Generate(),
		Label: strings.TrimSpace(input.Label),
		Settings: domain.AccountSettings{
			BranchName:    strings.TrimSpace(input.BranchName),
			DecimalPlaces: input.DecimalPlaces,
			Currency:      strings.ToUpper(strings.TrimSpace(input.Currency)),
		},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := domain.ValidateAccount(*account); err != nil {
		return nil, err
	}

	unlock, err := uc.labels.Lock(ctx, strings.ToLower(account.Label))
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := uc.stores.Accounts.GetByLabel(ctx, account.Label)
	switch {
	case err == nil && existing != nil:
		return nil, domain.WrapValidation(fmt.Sprintf("Account label %q is already in use", account.Label), domain.ErrDuplicateLabel)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if err := uc.seed(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	uc.observer.AccountCreated()
	uc.logger.Info().
		Str("account_id", account.ID).
		Str("label", account.Label).
		Str("branch", account.Settings.BranchName).
		Msg("account created")
	return account, nil
}

// seed stores the account together with its system chart and moves the
// id sequences past the seeded ids.
func (uc *AccountUseCase) seed(ctx context.Context, account *domain.Account) error {
	tx, err := uc.stores.TxManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.stores.Accounts.Create(ctx, tx, account); err != nil {
		return err
	}
	groups, ledgers, types := domain.SystemChart(account.ID)
	for i := range groups {
		if err := uc.stores.Groups.SaveGroup(ctx, tx, &groups[i]); err != nil {
			return err
		}
	}
	for i := range ledgers {
		if err := uc.stores.Ledgers.SaveLedger(ctx, tx, &ledgers[i]); err != nil {
			return err
		}
	}
	for i := range types {
		if err := uc.stores.Catalog.SaveEntryType(ctx, tx, &types[i]); err != nil {
			return err
		}
	}

	reserved := []struct {
		kind SequenceKind
		n    int
	}{
		{SequenceGroup, len(groups)},
		{SequenceLedger, len(ledgers)},
		{SequenceEntryType, len(types)},
	}
	for _, r := range reserved {
		if _, err := uc.stores.Sequences.Reserve(ctx, tx, account.ID, r.kind, r.n); err != nil {
			return fmt.Errorf("reserve %s ids: %w", r.kind, err)
		}
	}
	return tx.Commit(ctx)
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.stores.Accounts.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = defaultPageSize
	}
	if input.Limit > maxPageSize {
		input.Limit = maxPageSize
	}
	if input.Offset < 0 {
		input.Offset = 0
	}
	return uc.stores.Accounts.List(ctx, input.Limit, input.Offset)
}

// DefaultForBranch returns the active account of a branch. An empty branch
// picks the first active account.
func (uc *AccountUseCase) DefaultForBranch(ctx context.Context, branch string) (*domain.Account, error) {
	accounts, err := uc.stores.Accounts.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	account, ok := domain.PickBranchAccount(accounts, branch)
	if !ok {
		return nil, domain.NewNotFoundError("branch account", branch, domain.ErrAccountNotFound)
	}
	return &account, nil
}

// SetLocked locks or unlocks an account for writes.
func (uc *AccountUseCase) SetLocked(ctx context.Context, id string, locked bool) (*domain.Account, error) {
	account, err := uc.stores.Accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := uc.stores.Accounts.SetLocked(ctx, id, locked, now); err != nil {
		return nil, err
	}
	account.Locked = locked
	account.UpdatedAt = now
	uc.logger.Info().Str("account_id", id).Bool("locked", locked).Msg("account lock changed")
	return account, nil
}
