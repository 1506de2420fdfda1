package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iho/branchledger/internal/accounting"
	"github.com/iho/branchledger/internal/domain"
	"github.com/rs/zerolog"
)

// Stores bundles the repositories the use cases read and write.
type Stores struct {
	TxManager TransactionManager
	Accounts  AccountRepository
	Ledgers   LedgerStore
	Groups    GroupStore
	Entries   EntryStore
	Catalog   CatalogStore
	Sequences SequenceAllocator
}

// ReportUseCase builds charts of accounts and the statements derived from them.
type ReportUseCase struct {
	stores   Stores
	cache    ChartCache
	cacheTTL time.Duration
	observer Observer
	logger   zerolog.Logger
}

// NewReportUseCase creates a new ReportUseCase. cache may be nil.
func NewReportUseCase(stores Stores, cache ChartCache, cacheTTL time.Duration, observer Observer, logger zerolog.Logger) *ReportUseCase {
	if observer == nil {
		observer = NopObserver
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultChartCacheTTL
	}
	return &ReportUseCase{
		stores:   stores,
		cache:    cache,
		cacheTTL: cacheTTL,
		observer: observer,
		logger:   logger.With().Str("component", "reports").Logger(),
	}
}

// Snapshot loads an account's groups, ledgers and the entries matching
// entryFilter.
func (uc *ReportUseCase) Snapshot(ctx context.Context, account *domain.Account, entryFilter domain.EntryOptions) (accounting.Snapshot, error) {
	groups, err := uc.stores.Groups.AllGroups(ctx, account.ID)
	if err != nil {
		return accounting.Snapshot{}, fmt.Errorf("load groups: %w", err)
	}
	ledgers, err := uc.stores.Ledgers.AllLedgers(ctx, account.ID)
	if err != nil {
		return accounting.Snapshot{}, fmt.Errorf("load ledgers: %w", err)
	}
	entries, err := uc.stores.Entries.AllEntries(ctx, account.ID, entryFilter)
	if err != nil {
		return accounting.Snapshot{}, fmt.Errorf("load entries: %w", err)
	}
	return accounting.Snapshot{
		Account: *account,
		Groups:  groups,
		Ledgers: ledgers,
		Entries: entries,
	}, nil
}

// Chart builds the chart of accounts of accountID for the period in opts.
// With opts.AllBranches the charts of one active account per branch are
// merged at the requesting account's precision.
func (uc *ReportUseCase) Chart(ctx context.Context, accountID string, opts domain.EntryOptions) (*domain.ChartOfAccounts, error) {
	if err := opts.ValidatePeriod(); err != nil {
		return nil, err
	}
	account, err := uc.stores.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return uc.chart(ctx, account, opts)
}

func (uc *ReportUseCase) chart(ctx context.Context, account *domain.Account, opts domain.EntryOptions) (*domain.ChartOfAccounts, error) {
	if !opts.AllBranches {
		return uc.chartFor(ctx, account, opts)
	}

	active, err := uc.stores.Accounts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	branches := branchAccounts(active)
	charts := make([]*domain.ChartOfAccounts, 0, len(branches))
	for i := range branches {
		chart, err := uc.chartFor(ctx, &branches[i], opts)
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", branches[i].Settings.BranchName, err)
		}
		charts = append(charts, chart)
	}
	if len(charts) == 0 {
		return uc.chartFor(ctx, account, opts)
	}
	merged := accounting.MergeCharts(account.Places(), charts...)
	uc.logger.Debug().
		Str("account_id", account.ID).
		Int("branches", len(charts)).
		Msg("merged branch charts")
	return merged, nil
}

// branchAccounts picks the account that stands for each branch, in the
// order the branches first appear.
func branchAccounts(active []domain.Account) []domain.Account {
	seen := make(map[string]bool)
	out := make([]domain.Account, 0, len(active))
	for _, acc := range active {
		branch := strings.ToLower(strings.TrimSpace(acc.Settings.BranchName))
		if seen[branch] {
			continue
		}
		seen[branch] = true
		if picked, ok := domain.PickBranchAccount(active, acc.Settings.BranchName); ok {
			out = append(out, picked)
		}
	}
	return out
}

func (uc *ReportUseCase) chartFor(ctx context.Context, account *domain.Account, opts domain.EntryOptions) (*domain.ChartOfAccounts, error) {
	key := chartCacheKey(opts)
	// The generation is read before the snapshot so a write committed during
	// the build leaves this chart under a generation nobody reads.
	gen, cacheable := uc.cacheGeneration(ctx, account.ID)
	if cacheable {
		if chart, ok := uc.cachedChart(ctx, account.ID, gen, key); ok {
			uc.observer.ChartBuilt("branch", 0, true)
			return chart, nil
		}
	}

	started := time.Now()
	snap, err := uc.Snapshot(ctx, account, domain.EntryOptions{})
	if err != nil {
		return nil, err
	}
	chart, err := accounting.BuildChart(snap, opts)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(started)
	uc.observer.ChartBuilt("branch", elapsed, false)
	uc.logger.Debug().
		Str("account_id", account.ID).
		Int("ledgers", len(snap.Ledgers)).
		Int("entries", len(snap.Entries)).
		Dur("duration", elapsed).
		Msg("chart built")

	if cacheable {
		uc.storeChart(ctx, account.ID, gen, key, chart)
	}
	return chart, nil
}

func (uc *ReportUseCase) cacheGeneration(ctx context.Context, factoryID string) (int64, bool) {
	if uc.cache == nil {
		return 0, false
	}
	gen, err := uc.cache.Generation(ctx, factoryID)
	if err != nil {
		uc.logger.Warn().Err(err).Str("account_id", factoryID).Msg("chart cache generation read failed")
		return 0, false
	}
	return gen, true
}

func (uc *ReportUseCase) cachedChart(ctx context.Context, factoryID string, gen int64, key string) (*domain.ChartOfAccounts, bool) {
	data, ok, err := uc.cache.Get(ctx, factoryID, gen, key)
	if err != nil {
		uc.logger.Warn().Err(err).Str("account_id", factoryID).Msg("chart cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var chart domain.ChartOfAccounts
	if err := json.Unmarshal(data, &chart); err != nil {
		uc.logger.Warn().Err(err).Str("account_id", factoryID).Msg("discarding undecodable cached chart")
		return nil, false
	}
	return &chart, true
}

func (uc *ReportUseCase) storeChart(ctx context.Context, factoryID string, gen int64, key string, chart *domain.ChartOfAccounts) {
	data, err := json.Marshal(chart)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("chart encode failed")
		return
	}
	if err := uc.cache.Set(ctx, factoryID, gen, key, data, uc.cacheTTL); err != nil {
		uc.logger.Warn().Err(err).Str("account_id", factoryID).Msg("chart cache write failed")
	}
}

// chartCacheKey identifies the options that change a single branch chart.
func chartCacheKey(opts domain.EntryOptions) string {
	format := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s:%s:%t", format(opts.StartDate), format(opts.EndDate), opts.ShowOnlyOpeningBalance)
}

// ProfitAndLoss projects the profit and loss statement.
func (uc *ReportUseCase) ProfitAndLoss(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.ProfitAndLoss, error) {
	chart, projector, err := uc.chartAndProjector(ctx, accountID, opts)
	if err != nil {
		return nil, err
	}
	pl := projector.ProfitAndLoss(chart)
	return &pl, nil
}

// BalanceSheet projects the balance sheet.
func (uc *ReportUseCase) BalanceSheet(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.BalanceSheet, error) {
	chart, projector, err := uc.chartAndProjector(ctx, accountID, opts)
	if err != nil {
		return nil, err
	}
	bs := projector.BalanceSheet(chart)
	return &bs, nil
}

// TrialBalance projects the trial balance.
func (uc *ReportUseCase) TrialBalance(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.TrialBalance, error) {
	chart, projector, err := uc.chartAndProjector(ctx, accountID, opts)
	if err != nil {
		return nil, err
	}
	tb := projector.TrialBalance(chart)
	return &tb, nil
}

func (uc *ReportUseCase) chartAndProjector(ctx context.Context, accountID string, opts domain.EntryOptions) (*domain.ChartOfAccounts, *accounting.Projector, error) {
	if err := opts.ValidatePeriod(); err != nil {
		return nil, nil, err
	}
	account, err := uc.stores.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	chart, err := uc.chart(ctx, account, opts)
	if err != nil {
		return nil, nil, err
	}
	return chart, accounting.NewProjector(account.Places()), nil
}

// LedgerStatement builds the statement of opts.LedgerID.
func (uc *ReportUseCase) LedgerStatement(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.LedgerStatement, error) {
	account, snap, err := uc.ledgerSnapshot(ctx, accountID, opts)
	if err != nil {
		return nil, err
	}
	return accounting.NewProjector(account.Places()).LedgerStatement(snap, opts)
}

// ReconciliationStatement builds the reconciliation statement of opts.LedgerID.
func (uc *ReportUseCase) ReconciliationStatement(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.ReconciliationStatement, error) {
	account, snap, err := uc.ledgerSnapshot(ctx, accountID, opts)
	if err != nil {
		return nil, err
	}
	return accounting.NewProjector(account.Places()).ReconciliationStatement(snap, opts)
}

func (uc *ReportUseCase) ledgerSnapshot(ctx context.Context, accountID string, opts domain.EntryOptions) (*domain.Account, accounting.Snapshot, error) {
	if opts.LedgerID == 0 {
		return nil, accounting.Snapshot{}, domain.NewValidationError("Please select a ledger account and try again")
	}
	if err := opts.ValidatePeriod(); err != nil {
		return nil, accounting.Snapshot{}, err
	}
	account, err := uc.stores.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, accounting.Snapshot{}, err
	}
	// Opening balances need every entry of the ledger, not just the period.
	snap, err := uc.Snapshot(ctx, account, domain.EntryOptions{LedgerID: opts.LedgerID})
	if err != nil {
		return nil, accounting.Snapshot{}, err
	}
	return account, snap, nil
}
