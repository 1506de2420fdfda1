package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iho/branchledger/internal/accounting"
	"github.com/iho/branchledger/internal/adapter/repository/memory"
	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
	"github.com/iho/branchledger/internal/usecase/mocks"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func closingOf(t *testing.T, chart *domain.ChartOfAccounts, kind domain.NodeKind, id int64) domain.Balance {
	t.Helper()
	idx, ok := chart.Lookup(kind, id)
	if !ok {
		t.Fatalf("%s %d missing from chart", kind, id)
	}
	return chart.Nodes[idx].Closing
}

func assertBalance(t *testing.T, got domain.Balance, polarity domain.Polarity, amount string) {
	t.Helper()
	if got.Polarity != polarity || !got.Amount.Equal(dec(amount)) {
		t.Errorf("expected %s %s, got %s %s", polarity, amount, got.Polarity, got.Amount)
	}
}

func TestReportUseCase_Chart(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")
	h.post(t, acc.ID, item(cashID, domain.Debit, "40", 5), item(salesID, domain.Credit, "40", 5))

	chart, err := h.reports.Chart(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, chart, domain.NodeLedger, cashID), domain.Debit, "40")
	assertBalance(t, closingOf(t, chart, domain.NodeLedger, salesID), domain.Credit, "40")
	assertBalance(t, closingOf(t, chart, domain.NodeGroup, incomeGroup), domain.Credit, "40")
	assertBalance(t, closingOf(t, chart, domain.NodeGroup, 1), domain.Debit, "40")
	assertBalance(t, chart.DifferenceInOpeningBalance, domain.Debit, "0")

	before, err := h.reports.Chart(ctx, acc.ID, domain.EntryOptions{EndDate: dayPtr(4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, before, domain.NodeLedger, cashID), domain.Debit, "0")

	_, err = h.reports.Chart(ctx, acc.ID, domain.EntryOptions{StartDate: dayPtr(9), EndDate: dayPtr(1)})
	if !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	_, err = h.reports.Chart(ctx, "missing", domain.EntryOptions{})
	if !domain.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestReportUseCase_Statements(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")
	h.post(t, acc.ID, item(cashID, domain.Debit, "40", 5), item(salesID, domain.Credit, "40", 5))
	h.post(t, acc.ID, item(purchasesID, domain.Debit, "15", 6), item(cashID, domain.Credit, "15", 6))

	tb, err := h.reports.TrialBalance(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	if !tb.TotalDebit.Equal(dec("40")) || !tb.TotalCredit.Equal(dec("40")) {
		t.Errorf("expected totals 40/40, got %s/%s", tb.TotalDebit, tb.TotalCredit)
	}
	if !tb.Balanced {
		t.Error("expected trial balance to balance")
	}
	if len(tb.Rows) != len(domain.SystemLedgers) {
		t.Errorf("expected a row per ledger, got %d", len(tb.Rows))
	}

	pl, err := h.reports.ProfitAndLoss(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("profit and loss: %v", err)
	}
	if pl.NetResult.Kind != accounting.NetProfit {
		t.Errorf("expected profit, got %s", pl.NetResult.Kind)
	}
	assertBalance(t, pl.NetResult.Balance, domain.Credit, "25")

	bs, err := h.reports.BalanceSheet(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("balance sheet: %v", err)
	}
	if !bs.Balanced {
		t.Errorf("expected balance sheet to balance, total %s %s", bs.Total.Polarity, bs.Total.Amount)
	}
}

func TestReportUseCase_OpeningBalanceDifference(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")

	_, err := h.ledgers.SaveLedger(ctx, usecase.SaveLedgerInput{
		AccountID: acc.ID,
		Ledger: domain.Ledger{
			ID:             cashID,
			Name:           "Cash",
			ParentID:       currentAssetsGroup,
			Type:           domain.LedgerBankOrCash,
			OpeningBalance: domain.Balance{Polarity: domain.Debit, Amount: dec("100")},
		},
	})
	if err != nil {
		t.Fatalf("set opening balance: %v", err)
	}
	h.post(t, acc.ID, item(cashID, domain.Debit, "40", 5), item(salesID, domain.Credit, "40", 5))

	chart, err := h.reports.Chart(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, chart.DifferenceInOpeningBalance, domain.Debit, "100")
	assertBalance(t, closingOf(t, chart, domain.NodeLedger, cashID), domain.Debit, "140")

	opening, err := h.reports.Chart(ctx, acc.ID, domain.EntryOptions{ShowOnlyOpeningBalance: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, opening, domain.NodeLedger, cashID), domain.Debit, "100")

	tb, err := h.reports.TrialBalance(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	if !tb.Balanced {
		t.Error("expected trial balance to match the opening difference")
	}
}

func TestReportUseCase_AllBranches(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	north := h.seedAccount(t, "North Books", "North")
	south := h.seedAccount(t, "South Books", "South")
	h.post(t, north.ID, item(cashID, domain.Debit, "40", 5), item(salesID, domain.Credit, "40", 5))
	h.post(t, south.ID, item(cashID, domain.Debit, "10", 5), item(salesID, domain.Credit, "10", 5))

	single, err := h.reports.Chart(ctx, north.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, single, domain.NodeLedger, cashID), domain.Debit, "40")

	merged, err := h.reports.Chart(ctx, north.ID, domain.EntryOptions{AllBranches: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, merged, domain.NodeLedger, cashID), domain.Debit, "50")
	assertBalance(t, closingOf(t, merged, domain.NodeGroup, incomeGroup), domain.Credit, "50")

	if _, err := h.accounts.SetLocked(ctx, south.ID, true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	// Locked accounts still report.
	merged, err = h.reports.Chart(ctx, north.ID, domain.EntryOptions{AllBranches: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, merged, domain.NodeLedger, cashID), domain.Debit, "50")
}

func TestReportUseCase_AllBranchesTakesOneAccountPerBranch(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	first := h.seedAccount(t, "Kampala A", "Kampala")
	second := h.seedAccount(t, "Kampala B", "kampala")
	other := h.seedAccount(t, "Entebbe", "Entebbe")
	h.post(t, first.ID, item(cashID, domain.Debit, "100", 5), item(salesID, domain.Credit, "100", 5))
	h.post(t, second.ID, item(cashID, domain.Debit, "7", 5), item(salesID, domain.Credit, "7", 5))
	h.post(t, other.ID, item(cashID, domain.Debit, "20", 5), item(salesID, domain.Credit, "20", 5))

	merged, err := h.reports.Chart(ctx, second.ID, domain.EntryOptions{AllBranches: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, merged, domain.NodeLedger, cashID), domain.Debit, "120")
}

// entriesWrittenDuringRead posts through write right after the first
// snapshot read returns, as a concurrent writer would.
type entriesWrittenDuringRead struct {
	usecase.EntryStore
	once  sync.Once
	write func()
}

func (s *entriesWrittenDuringRead) AllEntries(ctx context.Context, factoryID string, opts domain.EntryOptions) ([]domain.Entry, error) {
	entries, err := s.EntryStore.AllEntries(ctx, factoryID, opts)
	s.once.Do(s.write)
	return entries, err
}

func TestReportUseCase_ChartCacheSkipsChartsBuiltAcrossAWrite(t *testing.T) {
	cache := memory.NewChartCache(time.Minute, time.Minute)
	h := newHarness(t, harnessOptions{cache: cache})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")
	h.post(t, acc.ID, item(cashID, domain.Debit, "100", 5), item(salesID, domain.Credit, "100", 5))

	stores := h.stores
	stores.Entries = &entriesWrittenDuringRead{
		EntryStore: h.store,
		write: func() {
			h.post(t, acc.ID, item(cashID, domain.Debit, "50", 6), item(salesID, domain.Credit, "50", 6))
		},
	}
	reports := usecase.NewReportUseCase(stores, cache, time.Minute, nil, zerolog.Nop())

	during, err := reports.Chart(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, during, domain.NodeLedger, cashID), domain.Debit, "100")

	after, err := reports.Chart(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, after, domain.NodeLedger, cashID), domain.Debit, "150")
}

func TestReportUseCase_ChartCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	observer := mocks.NewMockObserver(ctrl)
	cache := memory.NewChartCache(time.Minute, time.Minute)

	h := newHarness(t, harnessOptions{cache: cache, observer: observer})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")

	gomock.InOrder(
		observer.EXPECT().ChartBuilt("branch", gomock.Any(), false),
		observer.EXPECT().ChartBuilt("branch", gomock.Any(), true),
		observer.EXPECT().EntriesSaved(1),
		observer.EXPECT().ChartBuilt("branch", gomock.Any(), false),
	)

	first, err := h.reports.Chart(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cached, err := h.reports.Chart(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cached.Nodes) != len(first.Nodes) {
		t.Errorf("expected cached chart to match, got %d nodes want %d", len(cached.Nodes), len(first.Nodes))
	}

	// Posting drops the cached chart.
	h.post(t, acc.ID, item(cashID, domain.Debit, "40", 5), item(salesID, domain.Credit, "40", 5))
	fresh, err := h.reports.Chart(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBalance(t, closingOf(t, fresh, domain.NodeLedger, cashID), domain.Debit, "40")
}

func TestReportUseCase_ChartCacheFailuresAreIgnored(t *testing.T) {
	t.Run("read and write", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockChartCache(ctrl)
		cache.EXPECT().Generation(gomock.Any(), gomock.Any()).Return(int64(3), nil)
		cache.EXPECT().Get(gomock.Any(), gomock.Any(), int64(3), gomock.Any()).Return(nil, false, errors.New("redis down"))
		cache.EXPECT().Set(gomock.Any(), gomock.Any(), int64(3), gomock.Any(), gomock.Any(), time.Minute).Return(errors.New("redis down"))

		h := newHarness(t, harnessOptions{cache: cache})
		acc := h.seedAccount(t, "Main", "North")

		if _, err := h.reports.Chart(context.Background(), acc.ID, domain.EntryOptions{}); err != nil {
			t.Errorf("expected cache failures to be ignored, got %v", err)
		}
	})

	t.Run("generation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cache := mocks.NewMockChartCache(ctrl)
		cache.EXPECT().Generation(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("redis down"))

		h := newHarness(t, harnessOptions{cache: cache})
		acc := h.seedAccount(t, "Main", "North")

		if _, err := h.reports.Chart(context.Background(), acc.ID, domain.EntryOptions{}); err != nil {
			t.Errorf("expected the chart to be built without the cache, got %v", err)
		}
	})
}

func TestReportUseCase_LedgerStatement(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")
	h.post(t, acc.ID, item(cashID, domain.Debit, "40", 2), item(salesID, domain.Credit, "40", 2))
	h.post(t, acc.ID, item(purchasesID, domain.Debit, "15", 6), item(cashID, domain.Credit, "15", 6))
	h.post(t, acc.ID, item(bankID, domain.Debit, "7", 6), item(capitalID, domain.Credit, "7", 6))

	st, err := h.reports.LedgerStatement(ctx, acc.ID, domain.EntryOptions{LedgerID: cashID, StartDate: dayPtr(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Ledger.Name != "Cash" {
		t.Errorf("expected Cash statement, got %q", st.Ledger.Name)
	}
	if len(st.Lines) != 1 {
		t.Fatalf("expected 1 line in period, got %d", len(st.Lines))
	}
	if !st.Lines[0].Credit.Equal(dec("15")) {
		t.Errorf("expected credit 15, got %s", st.Lines[0].Credit)
	}
	if st.ClosingBalance.Polarity != domain.Debit || !st.ClosingBalance.Amount.Equal(dec("25")) {
		t.Errorf("expected closing D25, got %s %s", st.ClosingBalance.Polarity, st.ClosingBalance.Amount)
	}

	_, err = h.reports.LedgerStatement(ctx, acc.ID, domain.EntryOptions{})
	if err == nil || err.Error() != "Please select a ledger account and try again" {
		t.Errorf("expected ledger selection error, got %v", err)
	}

	_, err = h.reports.LedgerStatement(ctx, acc.ID, domain.EntryOptions{LedgerID: 404})
	if !domain.IsValidation(err) || !errors.Is(err, domain.ErrLedgerNotFound) {
		t.Errorf("expected validation error wrapping ledger not found, got %v", err)
	}
}

func TestReportUseCase_ReconciliationStatement(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")
	deposit := h.post(t, acc.ID, item(bankID, domain.Debit, "100", 1), item(capitalID, domain.Credit, "100", 1))
	h.post(t, acc.ID, item(purchasesID, domain.Debit, "30", 2), item(bankID, domain.Credit, "30", 2))

	if _, err := h.entries.Reconcile(ctx, usecase.ReconcileInput{
		AccountID: acc.ID,
		LedgerID:  bankID,
		Items:     []usecase.ReconcileItem{{EntryID: deposit.ID, Reconciled: true}},
	}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	st, err := h.reports.ReconciliationStatement(ctx, acc.ID, domain.EntryOptions{LedgerID: bankID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Pending.CrTotal.Equal(dec("30")) || !st.Pending.DrTotal.IsZero() {
		t.Errorf("expected pending credit 30, got dr %s cr %s", st.Pending.DrTotal, st.Pending.CrTotal)
	}
}
