package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iho/branchledger/internal/accounting"
	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
	"github.com/iho/branchledger/internal/usecase/mocks"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func TestEntryUseCase_SaveEntry(t *testing.T) {
	tests := []struct {
		name          string
		items         []domain.EntryItem
		expectError   bool
		expectedCause error
	}{
		{
			name: "balanced entry",
			items: []domain.EntryItem{
				item(cashID, domain.Debit, "40", 5),
				item(salesID, domain.Credit, "40", 5),
			},
		},
		{
			name: "unbalanced entry",
			items: []domain.EntryItem{
				item(cashID, domain.Debit, "40", 5),
				item(salesID, domain.Credit, "30", 5),
			},
			expectError: true,
		},
		{
			name:        "single item",
			items:       []domain.EntryItem{item(cashID, domain.Debit, "40", 5)},
			expectError: true,
		},
		{
			name: "unknown ledger",
			items: []domain.EntryItem{
				item(cashID, domain.Debit, "40", 5),
				item(99, domain.Credit, "40", 5),
			},
			expectError:   true,
			expectedCause: domain.ErrLedgerNotFound,
		},
		{
			name: "too many decimal places",
			items: []domain.EntryItem{
				item(cashID, domain.Debit, "40.001", 5),
				item(salesID, domain.Credit, "40.001", 5),
			},
			expectError: true,
		},
		{
			name: "negative amount",
			items: []domain.EntryItem{
				item(cashID, domain.Debit, "-40", 5),
				item(salesID, domain.Credit, "-40", 5),
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, harnessOptions{})
			acc := h.seedAccount(t, "Main", "North")

			entry, err := h.entries.SaveEntry(context.Background(), usecase.SaveEntryInput{
				AccountID: acc.ID,
				Entry:     domain.Entry{Narration: "sale", Items: tt.items},
			})
			if tt.expectError {
				if !domain.IsValidation(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				if tt.expectedCause != nil && !errors.Is(err, tt.expectedCause) {
					t.Errorf("expected %v, got %v", tt.expectedCause, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.ID != 1 {
				t.Errorf("expected first entry id 1, got %d", entry.ID)
			}
			if entry.FactoryID != acc.ID {
				t.Errorf("expected entry scoped to %s, got %s", acc.ID, entry.FactoryID)
			}
			if entry.Type.Name != domain.DefaultEntryType {
				t.Errorf("expected default entry type, got %q", entry.Type.Name)
			}
			if entry.Items[0].LedgerName != "Cash" || entry.Items[0].LedgerType != domain.LedgerBankOrCash {
				t.Errorf("expected cached ledger name and type, got %+v", entry.Items[0])
			}
		})
	}
}

func TestEntryUseCase_SaveEntry_ResolvesLedgerByName(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	acc := h.seedAccount(t, "Main", "North")

	entry, err := h.entries.SaveEntry(context.Background(), usecase.SaveEntryInput{
		AccountID: acc.ID,
		Entry: domain.Entry{Items: []domain.EntryItem{
			{LedgerName: " bank ", Polarity: domain.Debit, Amount: dec("12.5"), Date: day(1)},
			{LedgerName: "capital account", Polarity: domain.Credit, Amount: dec("12.5"), Date: day(1)},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Items[0].LedgerID != bankID || entry.Items[1].LedgerID != capitalID {
		t.Errorf("expected ledgers resolved by name, got %d and %d", entry.Items[0].LedgerID, entry.Items[1].LedgerID)
	}
	if entry.Items[0].LedgerName != "Bank" {
		t.Errorf("expected stored ledger name, got %q", entry.Items[0].LedgerName)
	}
}

func TestEntryUseCase_SaveEntry_AllocatesSequentialIDs(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	acc := h.seedAccount(t, "Main", "North")
	other := h.seedAccount(t, "Other", "South")

	first := h.post(t, acc.ID, item(cashID, domain.Debit, "1", 1), item(salesID, domain.Credit, "1", 1))
	second := h.post(t, acc.ID, item(cashID, domain.Debit, "2", 2), item(salesID, domain.Credit, "2", 2))
	elsewhere := h.post(t, other.ID, item(cashID, domain.Debit, "3", 3), item(salesID, domain.Credit, "3", 3))

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if elsewhere.ID != 1 {
		t.Errorf("expected ids to be per account, got %d", elsewhere.ID)
	}
}

func TestEntryUseCase_SaveEntry_Edit(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")

	generated := domain.Entry{
		ID:              1,
		FactoryID:       acc.ID,
		SystemGenerated: true,
		Items: []domain.EntryItem{
			item(cashID, domain.Debit, "10", 1),
			item(capitalID, domain.Credit, "10", 1),
		},
	}
	if err := h.store.SaveEntries(ctx, nil, []domain.Entry{generated}); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	edited, err := h.entries.SaveEntry(ctx, usecase.SaveEntryInput{
		AccountID: acc.ID,
		Entry: domain.Entry{
			ID:        1,
			Narration: "corrected",
			Items: []domain.EntryItem{
				item(cashID, domain.Debit, "15", 1),
				item(capitalID, domain.Credit, "15", 1),
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edited.ID != 1 {
		t.Errorf("expected edit to keep id 1, got %d", edited.ID)
	}
	if !edited.SystemGenerated {
		t.Error("expected edit to keep the system generated flag")
	}
	stored, err := h.entries.GetEntry(ctx, acc.ID, 1)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if !stored.Items[0].Amount.Equal(dec("15")) {
		t.Errorf("expected updated amount, got %s", stored.Items[0].Amount)
	}

	_, err = h.entries.SaveEntry(ctx, usecase.SaveEntryInput{
		AccountID: acc.ID,
		Entry: domain.Entry{ID: 42, Items: []domain.EntryItem{
			item(cashID, domain.Debit, "1", 1),
			item(capitalID, domain.Credit, "1", 1),
		}},
	})
	if !domain.IsNotFound(err) {
		t.Errorf("expected not found for unknown entry, got %v", err)
	}
}

type flakyTxManager struct {
	usecase.TransactionManager
	failures int
}

func (m *flakyTxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("connection reset")
	}
	return m.TransactionManager.Begin(ctx)
}

type countingRetrier struct {
	attempts int
	max      int
}

func (r *countingRetrier) Retry(_ context.Context, op func() error) error {
	var err error
	for r.attempts < r.max {
		r.attempts++
		if err = op(); err == nil {
			return nil
		}
	}
	return err
}

func TestEntryUseCase_SaveEntry_RetriesTransientFailures(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	acc := h.seedAccount(t, "Main", "North")

	stores := h.stores
	stores.TxManager = &flakyTxManager{TransactionManager: h.store, failures: 2}
	retrier := &countingRetrier{max: 3}
	uc := usecase.NewEntryUseCase(stores, nil, retrier, "", nil, zerolog.Nop())

	entry, err := uc.SaveEntry(context.Background(), usecase.SaveEntryInput{
		AccountID: acc.ID,
		Entry: domain.Entry{Items: []domain.EntryItem{
			item(cashID, domain.Debit, "5", 1),
			item(salesID, domain.Credit, "5", 1),
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrier.attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", retrier.attempts)
	}
	if entry.ID != 1 {
		t.Errorf("expected id 1, got %d", entry.ID)
	}
}

func TestEntryUseCase_SaveEntry_InvalidatesCharts(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockChartCache(ctrl)
	observer := mocks.NewMockObserver(ctrl)

	h := newHarness(t, harnessOptions{cache: cache, observer: observer})
	acc := h.seedAccount(t, "Main", "North")

	gomock.InOrder(
		observer.EXPECT().EntriesSaved(1),
		cache.EXPECT().Invalidate(gomock.Any(), acc.ID).Return(errors.New("redis down")),
	)

	// A failed invalidation does not fail the write.
	h.post(t, acc.ID, item(cashID, domain.Debit, "5", 1), item(salesID, domain.Credit, "5", 1))
}

func TestEntryUseCase_ListEntries(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")

	h.post(t, acc.ID, item(cashID, domain.Debit, "1", 9), item(salesID, domain.Credit, "1", 9))
	h.post(t, acc.ID, item(bankID, domain.Debit, "2", 3), item(salesID, domain.Credit, "2", 3))
	h.post(t, acc.ID, item(cashID, domain.Debit, "3", 3), item(capitalID, domain.Credit, "3", 3))

	all, err := h.entries.ListEntries(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []int64
	for _, e := range all {
		ids = append(ids, e.ID)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 3 || ids[2] != 1 {
		t.Errorf("expected order [2 3 1], got %v", ids)
	}

	cash, err := h.entries.ListEntries(ctx, acc.ID, domain.EntryOptions{LedgerID: cashID, StartDate: dayPtr(1), EndDate: dayPtr(5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cash) != 1 || cash[0].ID != 3 {
		t.Errorf("expected only entry 3, got %+v", cash)
	}

	_, err = h.entries.ListEntries(ctx, acc.ID, domain.EntryOptions{StartDate: dayPtr(5), EndDate: dayPtr(1)})
	if !domain.IsValidation(err) {
		t.Errorf("expected validation error for inverted period, got %v", err)
	}

	_, err = h.entries.ListEntries(ctx, "missing", domain.EntryOptions{})
	if !domain.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestEntryUseCase_DeleteEntry(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")

	plain := h.post(t, acc.ID, item(cashID, domain.Debit, "1", 1), item(salesID, domain.Credit, "1", 1))
	generated := domain.Entry{
		ID:              50,
		FactoryID:       acc.ID,
		SystemGenerated: true,
		Items:           []domain.EntryItem{item(cashID, domain.Debit, "1", 1), item(capitalID, domain.Credit, "1", 1)},
	}
	if err := h.store.SaveEntries(ctx, nil, []domain.Entry{generated}); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	if err := h.entries.DeleteEntry(ctx, acc.ID, plain.ID, false); err != nil {
		t.Fatalf("delete plain entry: %v", err)
	}
	if _, err := h.entries.GetEntry(ctx, acc.ID, plain.ID); !domain.IsNotFound(err) {
		t.Errorf("expected deleted entry to be gone, got %v", err)
	}

	err := h.entries.DeleteEntry(ctx, acc.ID, 50, false)
	if !domain.IsValidation(err) || err.Error() != "Can not delete system generated entry" {
		t.Errorf("expected system entry protection, got %v", err)
	}
	if err := h.entries.DeleteEntry(ctx, acc.ID, 50, true); err != nil {
		t.Errorf("expected forced delete to succeed, got %v", err)
	}

	if err := h.entries.DeleteEntry(ctx, acc.ID, 77, false); !domain.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestEntryUseCase_ImportEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	observer := mocks.NewMockObserver(ctrl)
	observer.EXPECT().EntriesImported(3, 2, 1)
	observer.EXPECT().EntriesSaved(2)

	h := newHarness(t, harnessOptions{observer: observer})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")

	result, err := h.entries.ImportEntries(ctx, usecase.ImportEntriesInput{
		AccountID:           acc.ID,
		DestinationLedgerID: cashID,
		Rows: []accounting.ImportRow{
			{EntryNumber: "JV1", Date: dayPtr(2), LedgerName: "Bank", Debit: dec("10")},
			{Date: dayPtr(3), LedgerName: "Sales", Credit: dec("25"), Narration: "counter sale"},
			{EntryNumber: "JV1", LedgerName: "Capital Account", Credit: dec("10")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.SynthesizedItems != 1 {
		t.Errorf("expected 1 synthesized item, got %d", result.SynthesizedItems)
	}

	numbered := result.Entries[0]
	if numbered.ID != 1 || len(numbered.Items) != 2 {
		t.Errorf("expected numbered entry first with 2 items, got %+v", numbered)
	}
	if !numbered.Date().Equal(day(2)) {
		t.Errorf("expected numbered entry dated from its first row, got %s", numbered.Date())
	}

	dated := result.Entries[1]
	if dated.ID != 2 || len(dated.Items) != 2 {
		t.Fatalf("expected dated entry with a balancing item, got %+v", dated)
	}
	balancing := dated.Items[1]
	if balancing.LedgerID != cashID || balancing.Polarity != domain.Debit || !balancing.Amount.Equal(dec("25")) {
		t.Errorf("expected debit 25 to Cash, got %+v", balancing)
	}

	stored, err := h.entries.ListEntries(ctx, acc.ID, domain.EntryOptions{})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("expected 2 stored entries, got %d", len(stored))
	}
}

func TestEntryUseCase_ImportEntries_Rejections(t *testing.T) {
	tests := []struct {
		name          string
		policy        accounting.DatePolicy
		destination   int64
		rows          []accounting.ImportRow
		expectedStage string
		expectedText  string
	}{
		{
			name:          "unknown ledger",
			destination:   cashID,
			rows:          []accounting.ImportRow{{Date: dayPtr(1), LedgerName: "Nowhere", Debit: dec("10")}},
			expectedStage: "validate",
			expectedText:  "Imported entry",
		},
		{
			name:          "row without date or number",
			destination:   cashID,
			rows:          []accounting.ImportRow{{LedgerName: "Sales", Debit: dec("10")}},
			expectedStage: "normalize",
			expectedText:  "must provide either date or entry number",
		},
		{
			name:        "entry number group without any date",
			destination: cashID,
			rows: []accounting.ImportRow{
				{EntryNumber: "JV3", LedgerName: "Bank", Debit: dec("10")},
				{EntryNumber: "JV3", LedgerName: "Sales", Credit: dec("10")},
			},
			expectedStage: "validate",
			expectedText:  "invalid date",
		},
		{
			name:        "mixed dates under reject policy",
			policy:      accounting.DatePolicyReject,
			destination: cashID,
			rows: []accounting.ImportRow{
				{EntryNumber: "JV9", Date: dayPtr(1), LedgerName: "Bank", Debit: dec("10")},
				{EntryNumber: "JV9", Date: dayPtr(2), LedgerName: "Sales", Credit: dec("10")},
			},
			expectedStage: "normalize",
			expectedText:  "different dates",
		},
		{
			name:          "unknown destination",
			destination:   99,
			rows:          []accounting.ImportRow{{Date: dayPtr(1), LedgerName: "Sales", Debit: dec("10")}},
			expectedStage: "normalize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			observer := mocks.NewMockObserver(ctrl)
			observer.EXPECT().ImportRejected(tt.expectedStage)

			h := newHarness(t, harnessOptions{observer: observer, datePolicy: tt.policy})
			ctx := context.Background()
			acc := h.seedAccount(t, "Main", "North")

			_, err := h.entries.ImportEntries(ctx, usecase.ImportEntriesInput{
				AccountID:           acc.ID,
				DestinationLedgerID: tt.destination,
				Rows:                tt.rows,
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.expectedText != "" && !strings.Contains(err.Error(), tt.expectedText) {
				t.Errorf("expected error containing %q, got %q", tt.expectedText, err.Error())
			}

			stored, err := h.entries.ListEntries(ctx, acc.ID, domain.EntryOptions{})
			if err != nil {
				t.Fatalf("list entries: %v", err)
			}
			if len(stored) != 0 {
				t.Errorf("expected nothing stored, got %d entries", len(stored))
			}
		})
	}
}

func TestEntryUseCase_ImportEntries_EmptyBatch(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	acc := h.seedAccount(t, "Main", "North")

	_, err := h.entries.ImportEntries(context.Background(), usecase.ImportEntriesInput{AccountID: acc.ID, DestinationLedgerID: cashID})
	if !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEntryUseCase_Reconcile(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")

	deposit := h.post(t, acc.ID, item(bankID, domain.Debit, "100", 1), item(capitalID, domain.Credit, "100", 1))
	sale := h.post(t, acc.ID, item(cashID, domain.Debit, "5", 2), item(salesID, domain.Credit, "5", 2))

	updated, err := h.entries.Reconcile(ctx, usecase.ReconcileInput{
		AccountID: acc.ID,
		LedgerID:  bankID,
		Items:     []usecase.ReconcileItem{{EntryID: deposit.ID, Reconciled: true}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated) != 1 {
		t.Fatalf("expected 1 updated entry, got %d", len(updated))
	}
	stored, err := h.entries.GetEntry(ctx, acc.ID, deposit.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if !stored.Items[0].Reconciled {
		t.Error("expected bank item to be reconciled")
	}
	if stored.Items[1].Reconciled {
		t.Error("expected capital item to stay unreconciled")
	}

	tests := []struct {
		name     string
		ledgerID int64
		entryID  int64
		check    func(error) bool
	}{
		{name: "not bank or cash", ledgerID: salesID, entryID: sale.ID, check: domain.IsValidation},
		{name: "entry without ledger", ledgerID: bankID, entryID: sale.ID, check: domain.IsValidation},
		{name: "unknown entry", ledgerID: bankID, entryID: 404, check: domain.IsNotFound},
		{name: "no ledger selected", ledgerID: 0, entryID: sale.ID, check: domain.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.entries.Reconcile(ctx, usecase.ReconcileInput{
				AccountID: acc.ID,
				LedgerID:  tt.ledgerID,
				Items:     []usecase.ReconcileItem{{EntryID: tt.entryID, Reconciled: true}},
			})
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEntryUseCase_LockedAccount(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	acc := h.seedAccount(t, "Main", "North")
	if _, err := h.accounts.SetLocked(ctx, acc.ID, true); err != nil {
		t.Fatalf("lock: %v", err)
	}

	_, err := h.entries.SaveEntry(ctx, usecase.SaveEntryInput{
		AccountID: acc.ID,
		Entry:     domain.Entry{Items: []domain.EntryItem{item(cashID, domain.Debit, "1", 1), item(salesID, domain.Credit, "1", 1)}},
	})
	if !errors.Is(err, domain.ErrAccountLocked) {
		t.Errorf("expected ErrAccountLocked, got %v", err)
	}

	_, err = h.entries.ImportEntries(ctx, usecase.ImportEntriesInput{
		AccountID:           acc.ID,
		DestinationLedgerID: cashID,
		Rows:                []accounting.ImportRow{{Date: dayPtr(1), LedgerName: "Sales", Credit: dec("1")}},
	})
	if !errors.Is(err, domain.ErrAccountLocked) {
		t.Errorf("expected ErrAccountLocked on import, got %v", err)
	}
}
