package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iho/branchledger/internal/accounting"
	"github.com/iho/branchledger/internal/adapter/repository/memory"
	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// System ledger and group ids seeded into every account.
const (
	cashID      int64 = 1
	bankID      int64 = 2
	suspenseID  int64 = 3
	capitalID   int64 = 4
	salesID     int64 = 5
	purchasesID int64 = 6

	currentAssetsGroup int64 = 6
	incomeGroup        int64 = 4
)

type counterIDs struct {
	prefix string
	n      atomic.Int64
}

func (g *counterIDs) Generate() string {
	prefix := g.prefix
	if prefix == "" {
		prefix = "acc"
	}
	return fmt.Sprintf("%s-%d", prefix, g.n.Add(1))
}

type harness struct {
	store    *memory.Store
	stores   usecase.Stores
	accounts *usecase.AccountUseCase
	entries  *usecase.EntryUseCase
	ledgers  *usecase.LedgerUseCase
	reports  *usecase.ReportUseCase
}

type harnessOptions struct {
	cache      usecase.ChartCache
	observer   usecase.Observer
	datePolicy accounting.DatePolicy
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	store := memory.NewStore()
	stores := usecase.Stores{
		TxManager: store,
		Accounts:  store,
		Ledgers:   store,
		Groups:    store,
		Entries:   store,
		Catalog:   store,
		Sequences: store,
	}
	logger := zerolog.Nop()
	return &harness{
		store:    store,
		stores:   stores,
		accounts: usecase.NewAccountUseCase(stores, &counterIDs{}, opts.observer, logger),
		entries:  usecase.NewEntryUseCase(stores, opts.cache, nil, opts.datePolicy, opts.observer, logger),
		ledgers:  usecase.NewLedgerUseCase(stores, opts.cache, nil, logger),
		reports:  usecase.NewReportUseCase(stores, opts.cache, time.Minute, opts.observer, logger),
	}
}

// seedAccount creates an account without going through the observer.
func (h *harness) seedAccount(t *testing.T, label, branch string) *domain.Account {
	t.Helper()
	uc := usecase.NewAccountUseCase(h.stores, &counterIDs{prefix: "seed-" + label}, nil, zerolog.Nop())
	acc, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Label:      label,
		BranchName: branch,
		Currency:   "usd",
	})
	if err != nil {
		t.Fatalf("seed account %s: %v", label, err)
	}
	return acc
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(d int) *time.Time {
	t := day(d)
	return &t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(ledgerID int64, p domain.Polarity, amount string, d int) domain.EntryItem {
	return domain.EntryItem{LedgerID: ledgerID, Polarity: p, Amount: dec(amount), Date: day(d)}
}

func (h *harness) post(t *testing.T, accountID string, items ...domain.EntryItem) *domain.Entry {
	t.Helper()
	e, err := h.entries.SaveEntry(context.Background(), usecase.SaveEntryInput{
		AccountID: accountID,
		Entry:     domain.Entry{Narration: "test", Items: items},
	})
	if err != nil {
		t.Fatalf("post entry: %v", err)
	}
	return e
}
