package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/iho/branchledger/internal/domain"
	"github.com/rs/zerolog"
)

// LedgerUseCase administers the ledgers, groups, entry types and tags of an account.
type LedgerUseCase struct {
	stores  Stores
	cache   ChartCache
	retrier Retrier
	logger  zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase. cache and retrier may be nil.
func NewLedgerUseCase(stores Stores, cache ChartCache, retrier Retrier, logger zerolog.Logger) *LedgerUseCase {
	if retrier == nil {
		retrier = directRetrier{}
	}
	return &LedgerUseCase{
		stores:  stores,
		cache:   cache,
		retrier: retrier,
		logger:  logger.With().Str("component", "ledgers").Logger(),
	}
}

// ListLedgers returns every ledger of the account.
func (uc *LedgerUseCase) ListLedgers(ctx context.Context, accountID string) ([]domain.Ledger, error) {
	if _, err := uc.stores.Accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return uc.stores.Ledgers.AllLedgers(ctx, accountID)
}

// ListGroups returns every group of the account.
func (uc *LedgerUseCase) ListGroups(ctx context.Context, accountID string) ([]domain.Group, error) {
	if _, err := uc.stores.Accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return uc.stores.Groups.AllGroups(ctx, accountID)
}

// SaveLedgerInput represents input for creating or editing a ledger.
type SaveLedgerInput struct {
	AccountID string
	Ledger    domain.Ledger
}

// SaveLedger validates and stores a ledger. A zero id creates a new one.
// Renaming a ledger or changing its type rewrites the names cached on its
// entry items in the same transaction.
func (uc *LedgerUseCase) SaveLedger(ctx context.Context, input SaveLedgerInput) (*domain.Ledger, error) {
	account, err := uc.writableAccount(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	ledgers, err := uc.stores.Ledgers.AllLedgers(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	groups, err := uc.stores.Groups.AllGroups(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	l := input.Ledger
	l.FactoryID = account.ID
	l.Name = strings.TrimSpace(l.Name)
	if l.Type == "" {
		l.Type = domain.LedgerUnrestricted
	}
	if l.OpeningBalance.Polarity == "" {
		l.OpeningBalance.Polarity = domain.Debit
	}

	var previous *domain.Ledger
	if l.ID != 0 {
		found, ok := domain.FindLedger(ledgers, l.ID)
		if !ok {
			return nil, domain.NewNotFoundError("ledger", fmt.Sprint(l.ID), domain.ErrLedgerNotFound)
		}
		previous = &found
		l.System = found.System
		l.Base = found.Base
	}
	if err := domain.ValidateLedger(l, ledgers, groups, account.Places()); err != nil {
		return nil, err
	}
	if parent, ok := domain.FindGroup(groups, l.ParentID); ok {
		l.ParentName = parent.Name
	}
	l.OpeningBalance.Amount = account.Arithmetic().Round(l.OpeningBalance.Amount)

	renamed := previous != nil && (previous.Name != l.Name || previous.Type != l.Type)
	err = uc.retrier.Retry(ctx, func() error {
		tx, err := uc.stores.TxManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		saved := l
		if saved.ID == 0 {
			id, err := uc.stores.Sequences.Next(ctx, tx, account.ID, SequenceLedger)
			if err != nil {
				return fmt.Errorf("allocate ledger id: %w", err)
			}
			saved.ID = id
		}
		if err := uc.stores.Ledgers.SaveLedger(ctx, tx, &saved); err != nil {
			return err
		}
		if renamed {
			if err := uc.propagateLedgerRename(ctx, tx, saved); err != nil {
				return err
			}
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		l = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Int64("ledger_id", l.ID).
		Bool("renamed", renamed).
		Msg("ledger saved")
	uc.invalidate(ctx, account.ID)
	return &l, nil
}

func (uc *LedgerUseCase) propagateLedgerRename(ctx context.Context, tx Transaction, l domain.Ledger) error {
	entries, err := uc.stores.Entries.AllEntries(ctx, l.FactoryID, domain.EntryOptions{LedgerID: l.ID})
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		for j := range entries[i].Items {
			item := &entries[i].Items[j]
			if item.LedgerID == l.ID {
				item.LedgerName = l.Name
				item.LedgerType = l.Type
			}
		}
	}
	return uc.stores.Entries.SaveEntries(ctx, tx, entries)
}

// DeleteLedger removes a ledger that is neither system, base nor posted to.
func (uc *LedgerUseCase) DeleteLedger(ctx context.Context, accountID string, id int64) error {
	account, err := uc.writableAccount(ctx, accountID)
	if err != nil {
		return err
	}
	ledgers, err := uc.stores.Ledgers.AllLedgers(ctx, account.ID)
	if err != nil {
		return err
	}
	l, ok := domain.FindLedger(ledgers, id)
	if !ok {
		return domain.NewNotFoundError("ledger", fmt.Sprint(id), domain.ErrLedgerNotFound)
	}
	if l.Base {
		return domain.NewValidationError("Ledger is a base ledger and can not be deleted")
	}
	if l.System {
		return domain.NewValidationError("Can not delete system Ledger!")
	}
	entries, err := uc.stores.Entries.AllEntries(ctx, account.ID, domain.EntryOptions{LedgerID: id})
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return domain.NewValidationError("Can not delete Ledger that has entries!")
	}

	if err := uc.inTx(ctx, func(tx Transaction) error {
		return uc.stores.Ledgers.DeleteLedger(ctx, tx, account.ID, id)
	}); err != nil {
		return err
	}
	uc.invalidate(ctx, account.ID)
	return nil
}

// SaveGroupInput represents input for creating or editing a group.
type SaveGroupInput struct {
	AccountID string
	Group     domain.Group
}

// SaveGroup validates and stores a group. The group inherits affectsGross
// from its parent, and renaming it updates the parent name cached on its
// direct children.
func (uc *LedgerUseCase) SaveGroup(ctx context.Context, input SaveGroupInput) (*domain.Group, error) {
	account, err := uc.writableAccount(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	groups, err := uc.stores.Groups.AllGroups(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	g := input.Group
	g.FactoryID = account.ID
	g.Name = strings.TrimSpace(g.Name)

	var previous *domain.Group
	if g.ID != 0 {
		found, ok := domain.FindGroup(groups, g.ID)
		if !ok {
			return nil, domain.NewNotFoundError("group", fmt.Sprint(g.ID), domain.ErrGroupNotFound)
		}
		previous = &found
		g.System = found.System
		g.Base = found.Base
		if found.System {
			g.ParentID = found.ParentID
			g.AffectsGross = found.AffectsGross
		}
	}
	if err := domain.ValidateGroup(g, groups); err != nil {
		return nil, err
	}
	if parent, ok := domain.FindGroup(groups, g.ParentID); ok {
		g.ParentName = parent.Name
		domain.InheritAffectsGross(&g, groups)
	}

	var ledgers []domain.Ledger
	renamed := previous != nil && previous.Name != g.Name
	if renamed {
		if ledgers, err = uc.stores.Ledgers.AllLedgers(ctx, account.ID); err != nil {
			return nil, err
		}
	}

	err = uc.inTx(ctx, func(tx Transaction) error {
		saved := g
		if saved.ID == 0 {
			id, err := uc.stores.Sequences.Next(ctx, tx, account.ID, SequenceGroup)
			if err != nil {
				return fmt.Errorf("allocate group id: %w", err)
			}
			saved.ID = id
		}
		if err := uc.stores.Groups.SaveGroup(ctx, tx, &saved); err != nil {
			return err
		}
		if renamed {
			if err := uc.propagateGroupRename(ctx, tx, saved, groups, ledgers); err != nil {
				return err
			}
		}
		g = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, account.ID)
	return &g, nil
}

func (uc *LedgerUseCase) propagateGroupRename(ctx context.Context, tx Transaction, g domain.Group, groups []domain.Group, ledgers []domain.Ledger) error {
	for _, child := range groups {
		if child.ParentID != g.ID || child.ID == g.ID {
			continue
		}
		child.ParentName = g.Name
		if err := uc.stores.Groups.SaveGroup(ctx, tx, &child); err != nil {
			return err
		}
	}
	for _, child := range ledgers {
		if child.ParentID != g.ID {
			continue
		}
		child.ParentName = g.Name
		if err := uc.stores.Ledgers.SaveLedger(ctx, tx, &child); err != nil {
			return err
		}
	}
	return nil
}

// DeleteGroup removes a group with no child groups or ledgers.
func (uc *LedgerUseCase) DeleteGroup(ctx context.Context, accountID string, id int64) error {
	account, err := uc.writableAccount(ctx, accountID)
	if err != nil {
		return err
	}
	groups, err := uc.stores.Groups.AllGroups(ctx, account.ID)
	if err != nil {
		return err
	}
	g, ok := domain.FindGroup(groups, id)
	if !ok {
		return domain.NewNotFoundError("group", fmt.Sprint(id), domain.ErrGroupNotFound)
	}
	if g.System || g.Base {
		return domain.NewValidationError("Can not delete system Group!")
	}
	ledgers, err := uc.stores.Ledgers.AllLedgers(ctx, account.ID)
	if err != nil {
		return err
	}
	for _, child := range groups {
		if child.ParentID == id {
			return domain.NewValidationError("Can not delete group that has descendants!")
		}
	}
	for _, child := range ledgers {
		if child.ParentID == id {
			return domain.NewValidationError("Can not delete group that has descendants!")
		}
	}

	if err := uc.inTx(ctx, func(tx Transaction) error {
		return uc.stores.Groups.DeleteGroup(ctx, tx, account.ID, id)
	}); err != nil {
		return err
	}
	uc.invalidate(ctx, account.ID)
	return nil
}

// ListEntryTypes returns the account's voucher types.
func (uc *LedgerUseCase) ListEntryTypes(ctx context.Context, accountID string) ([]domain.EntryType, error) {
	return uc.stores.Catalog.AllEntryTypes(ctx, accountID)
}

// ListTags returns the account's tags.
func (uc *LedgerUseCase) ListTags(ctx context.Context, accountID string) ([]domain.Tag, error) {
	return uc.stores.Catalog.AllTags(ctx, accountID)
}

// CreateTag stores a new tag with a unique title.
func (uc *LedgerUseCase) CreateTag(ctx context.Context, accountID, title string) (*domain.Tag, error) {
	account, err := uc.writableAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.NewValidationError("Tag title is required")
	}
	tags, err := uc.stores.Catalog.AllTags(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if domain.NamesMatch(t.Title, title) {
			return nil, domain.NewValidationError("Tag title is already in use")
		}
	}

	tag := domain.Tag{FactoryID: account.ID, Title: title}
	err = uc.inTx(ctx, func(tx Transaction) error {
		id, err := uc.stores.Sequences.Next(ctx, tx, account.ID, SequenceTag)
		if err != nil {
			return err
		}
		tag.ID = id
		return uc.stores.Catalog.SaveTag(ctx, tx, &tag)
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (uc *LedgerUseCase) inTx(ctx context.Context, fn func(tx Transaction) error) error {
	return uc.retrier.Retry(ctx, func() error {
		tx, err := uc.stores.TxManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)
		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

func (uc *LedgerUseCase) writableAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := uc.stores.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := account.EnsureWritable(); err != nil {
		return nil, err
	}
	return account, nil
}

func (uc *LedgerUseCase) invalidate(ctx context.Context, factoryID string) {
	invalidateCharts(ctx, uc.cache, uc.logger, factoryID)
}
