package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/iho/branchledger/internal/accounting"
	"github.com/iho/branchledger/internal/domain"
	"github.com/rs/zerolog"
)

// EntryUseCase posts, imports, reconciles and deletes journal entries.
type EntryUseCase struct {
	stores     Stores
	cache      ChartCache
	retrier    Retrier
	datePolicy accounting.DatePolicy
	observer   Observer
	logger     zerolog.Logger
}

// NewEntryUseCase creates a new EntryUseCase. cache and retrier may be nil.
func NewEntryUseCase(
	stores Stores,
	cache ChartCache,
	retrier Retrier,
	datePolicy accounting.DatePolicy,
	observer Observer,
	logger zerolog.Logger,
) *EntryUseCase {
	if retrier == nil {
		retrier = directRetrier{}
	}
	if observer == nil {
		observer = NopObserver
	}
	if datePolicy == "" {
		datePolicy = accounting.DatePolicyFirstRow
	}
	return &EntryUseCase{
		stores:     stores,
		cache:      cache,
		retrier:    retrier,
		datePolicy: datePolicy,
		observer:   observer,
		logger:     logger.With().Str("component", "entries").Logger(),
	}
}

// ListEntries returns the entries matching opts ordered by date then id.
func (uc *EntryUseCase) ListEntries(ctx context.Context, accountID string, opts domain.EntryOptions) ([]domain.Entry, error) {
	if err := opts.ValidatePeriod(); err != nil {
		return nil, err
	}
	if _, err := uc.stores.Accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	entries, err := uc.stores.Entries.AllEntries(ctx, accountID, opts)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, func(a, b domain.Entry) int {
		if c := a.Date().Compare(b.Date()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return entries, nil
}

// GetEntry retrieves one entry.
func (uc *EntryUseCase) GetEntry(ctx context.Context, accountID string, id int64) (*domain.Entry, error) {
	return uc.stores.Entries.GetEntry(ctx, accountID, id)
}

// SaveEntryInput represents input for posting or editing an entry.
type SaveEntryInput struct {
	AccountID string
	Entry     domain.Entry
}

// SaveEntry validates and stores an entry. A zero id allocates a new one.
// Cached ledger names and types on the items are refreshed from the store.
func (uc *EntryUseCase) SaveEntry(ctx context.Context, input SaveEntryInput) (*domain.Entry, error) {
	account, err := uc.writableAccount(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	ledgers, err := uc.stores.Ledgers.AllLedgers(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	types, err := uc.stores.Catalog.AllEntryTypes(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	entry := input.Entry.Clone()
	entry.FactoryID = account.ID
	if err := resolveItems(&entry, ledgers, account.Arithmetic()); err != nil {
		return nil, err
	}
	if entry.Type.Name == "" && entry.Type.ID == 0 {
		entry.Type = defaultEntryType(types)
	}
	if err := domain.ValidateEntry(entry, account.Arithmetic()); err != nil {
		return nil, err
	}

	if entry.ID != 0 {
		existing, err := uc.stores.Entries.GetEntry(ctx, account.ID, entry.ID)
		if err != nil {
			return nil, err
		}
		entry.SystemGenerated = existing.SystemGenerated
	}

	isNew := entry.ID == 0
	err = uc.retrier.Retry(ctx, func() error {
		batch := []domain.Entry{entry}
		if err := uc.persist(ctx, account.ID, batch, isNew); err != nil {
			return err
		}
		entry.ID = batch[0].ID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save entry: %w", err)
	}

	uc.observer.EntriesSaved(1)
	uc.invalidate(ctx, account.ID)
	return &entry, nil
}

// persist writes entries in one transaction. When allocate is set the
// entries get fresh consecutive ids first.
func (uc *EntryUseCase) persist(ctx context.Context, factoryID string, entries []domain.Entry, allocate bool) error {
	tx, err := uc.stores.TxManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if allocate {
		first, err := uc.stores.Sequences.Reserve(ctx, tx, factoryID, SequenceEntry, len(entries))
		if err != nil {
			return fmt.Errorf("allocate entry ids: %w", err)
		}
		for i := range entries {
			entries[i].ID = first + int64(i)
		}
	}
	if err := uc.stores.Entries.SaveEntries(ctx, tx, entries); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteEntry removes an entry. System generated entries are kept unless force is set.
func (uc *EntryUseCase) DeleteEntry(ctx context.Context, accountID string, id int64, force bool) error {
	account, err := uc.writableAccount(ctx, accountID)
	if err != nil {
		return err
	}
	entry, err := uc.stores.Entries.GetEntry(ctx, account.ID, id)
	if err != nil {
		return err
	}
	if entry.SystemGenerated && !force {
		return domain.NewValidationError("Can not delete system generated entry")
	}

	err = uc.retrier.Retry(ctx, func() error {
		tx, err := uc.stores.TxManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)
		if err := uc.stores.Entries.DeleteEntry(ctx, tx, account.ID, id); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return err
	}

	uc.logger.Info().Str("account_id", account.ID).Int64("entry_id", id).Msg("entry deleted")
	uc.invalidate(ctx, account.ID)
	return nil
}

// ImportEntriesInput represents a batch of imported rows.
type ImportEntriesInput struct {
	AccountID           string
	DestinationLedgerID int64
	Rows                []accounting.ImportRow
}

// ImportEntriesResult reports what an import stored.
type ImportEntriesResult struct {
	Entries          []domain.Entry `json:"entries"`
	SynthesizedItems int            `json:"synthesizedItems"`
}

// ImportEntries groups rows into entries and stores them all or none.
// Every produced entry must resolve to known ledgers and balance.
func (uc *EntryUseCase) ImportEntries(ctx context.Context, input ImportEntriesInput) (*ImportEntriesResult, error) {
	if len(input.Rows) == 0 {
		return nil, domain.NewValidationError("No rows to import")
	}
	if len(input.Rows) > MaxImportRows {
		return nil, domain.NewValidationError(fmt.Sprintf("Import is limited to %d rows", MaxImportRows))
	}
	account, err := uc.writableAccount(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	ledgers, err := uc.stores.Ledgers.AllLedgers(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	types, err := uc.stores.Catalog.AllEntryTypes(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	tags, err := uc.stores.Catalog.AllTags(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	normalized, err := accounting.NormalizeImport(accounting.ImportRequest{
		FactoryID:           account.ID,
		DestinationLedgerID: input.DestinationLedgerID,
		Rows:                input.Rows,
		Ledgers:             ledgers,
		EntryTypes:          types,
		Tags:                tags,
		Places:              account.Places(),
		DatePolicy:          uc.datePolicy,
	})
	if err != nil {
		uc.rejectImport(account.ID, "normalize", err)
		return nil, err
	}

	arith := account.Arithmetic()
	for i, entry := range normalized.Entries {
		if err := domain.ValidateEntry(entry, arith); err != nil {
			err = domain.WrapValidation(fmt.Sprintf("Imported entry %s: %s", importLabel(entry, i), errorReason(err)), err)
			uc.rejectImport(account.ID, "validate", err)
			return nil, err
		}
	}

	entries := normalized.Entries
	err = uc.retrier.Retry(ctx, func() error {
		return uc.persist(ctx, account.ID, entries, true)
	})
	if err != nil {
		return nil, fmt.Errorf("store imported entries: %w", err)
	}

	uc.observer.EntriesImported(len(input.Rows), len(entries), normalized.SynthesizedItems)
	uc.observer.EntriesSaved(len(entries))
	uc.logger.Info().
		Str("account_id", account.ID).
		Int("rows", len(input.Rows)).
		Int("entries", len(entries)).
		Int("synthesized_items", normalized.SynthesizedItems).
		Msg("entries imported")
	uc.invalidate(ctx, account.ID)

	return &ImportEntriesResult{Entries: entries, SynthesizedItems: normalized.SynthesizedItems}, nil
}

func (uc *EntryUseCase) rejectImport(accountID, stage string, err error) {
	uc.observer.ImportRejected(stage)
	uc.logger.Warn().Err(err).Str("account_id", accountID).Str("stage", stage).Msg("import rejected")
}

// ReconcileItem marks the items of one entry on the reconciled ledger.
type ReconcileItem struct {
	EntryID    int64 `json:"entryId"`
	Reconciled bool  `json:"reconciled"`
}

// ReconcileInput represents a reconciliation update for one ledger.
type ReconcileInput struct {
	AccountID string
	LedgerID  int64
	Items     []ReconcileItem
}

// Reconcile flags entry items on a bank or cash ledger as reconciled or not.
func (uc *EntryUseCase) Reconcile(ctx context.Context, input ReconcileInput) ([]domain.Entry, error) {
	account, err := uc.writableAccount(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	ledgers, err := uc.stores.Ledgers.AllLedgers(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	ledger, err := accounting.ResolveLedger(ledgers, input.LedgerID, "reconciliation")
	if err != nil {
		return nil, err
	}
	if !ledger.IsBankOrCash() {
		return nil, domain.NewValidationError("Only bank or cash ledgers can be reconciled")
	}

	updated := make([]domain.Entry, 0, len(input.Items))
	for _, item := range input.Items {
		entry, err := uc.stores.Entries.GetEntry(ctx, account.ID, item.EntryID)
		if err != nil {
			return nil, err
		}
		if !entry.HasLedger(ledger.ID) {
			return nil, domain.NewValidationError(fmt.Sprintf("Entry %d has no item for ledger %s", entry.ID, ledger.Name))
		}
		e := entry.Clone()
		for i := range e.Items {
			if e.Items[i].LedgerID == ledger.ID {
				e.Items[i].Reconciled = item.Reconciled
			}
		}
		updated = append(updated, e)
	}
	if len(updated) == 0 {
		return updated, nil
	}

	err = uc.retrier.Retry(ctx, func() error {
		return uc.persist(ctx, account.ID, updated, false)
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, account.ID)
	return updated, nil
}

func (uc *EntryUseCase) writableAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := uc.stores.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := account.EnsureWritable(); err != nil {
		return nil, err
	}
	return account, nil
}

func (uc *EntryUseCase) invalidate(ctx context.Context, factoryID string) {
	invalidateCharts(ctx, uc.cache, uc.logger, factoryID)
}

// invalidateCharts drops cached charts after a write. Failures only delay
// freshness until the cache TTL expires.
func invalidateCharts(ctx context.Context, cache ChartCache, logger zerolog.Logger, factoryID string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, factoryID); err != nil {
		logger.Warn().Err(err).Str("account_id", factoryID).Msg("chart cache invalidation failed")
	}
}

// resolveItems points every item at a stored ledger and rounds its amount.
func resolveItems(entry *domain.Entry, ledgers []domain.Ledger, arith domain.Arithmetic) error {
	for i := range entry.Items {
		item := &entry.Items[i]
		ledger, ok := domain.FindLedger(ledgers, item.LedgerID)
		if !ok && item.LedgerID == 0 && item.LedgerName != "" {
			ledger, ok = domain.FindLedgerByName(ledgers, item.LedgerName)
		}
		if !ok {
			return domain.WrapValidation(fmt.Sprintf("Ledger %s does not exist", itemLedgerLabel(item)), domain.ErrLedgerNotFound)
		}
		if err := domain.ValidateAmount(item.Amount, arith.Places); err != nil {
			return err
		}
		item.LedgerID = ledger.ID
		item.LedgerName = ledger.Name
		item.LedgerType = ledger.Type
		item.Amount = arith.Round(item.Amount)
	}
	return nil
}

func itemLedgerLabel(item *domain.EntryItem) string {
	if item.LedgerName != "" {
		return item.LedgerName
	}
	return strconv.FormatInt(item.LedgerID, 10)
}

func defaultEntryType(types []domain.EntryType) domain.EntryTypeRef {
	for _, t := range types {
		if domain.NamesMatch(t.Name, domain.DefaultEntryType) {
			return domain.EntryTypeRef{ID: t.ID, Name: t.Name}
		}
	}
	return domain.EntryTypeRef{Name: domain.DefaultEntryType}
}

func importLabel(e domain.Entry, idx int) string {
	if n := e.EntryNumber(); n != "" {
		return n
	}
	if d := e.Date(); !d.IsZero() {
		return d.Format("2006-01-02")
	}
	return "#" + strconv.Itoa(idx+1)
}

func errorReason(err error) string {
	var v *domain.ValidationError
	if errors.As(err, &v) {
		return v.Reason
	}
	return err.Error()
}
