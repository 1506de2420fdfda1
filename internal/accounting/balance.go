// Package accounting computes balances, charts of accounts and statements
// from in-memory snapshots. It performs no I/O.
package accounting

import (
	"strconv"
	"time"

	"github.com/iho/branchledger/internal/domain"
	"github.com/shopspring/decimal"
)

// BalanceEngine computes per-ledger balances at a fixed precision.
type BalanceEngine struct {
	arith domain.Arithmetic
}

// NewBalanceEngine returns an engine rounding to places decimal places.
func NewBalanceEngine(places int32) *BalanceEngine {
	return &BalanceEngine{arith: domain.NewArithmetic(places)}
}

// Arithmetic exposes the engine's money arithmetic.
func (e *BalanceEngine) Arithmetic() domain.Arithmetic {
	return e.arith
}

func checkLedger(ledger *domain.Ledger, what string) error {
	if ledger == nil || ledger.ID == 0 {
		return domain.NewValidationError("Ledger not specified. Failed to calculate " + what)
	}
	return nil
}

// fold nets activity totals with the stored opening balance. A tie keeps the
// stored opening polarity.
func (e *BalanceEngine) fold(ledger *domain.Ledger, totals domain.Totals) domain.AccountResult {
	dr, cr := totals.DrTotal, totals.CrTotal
	opening := ledger.OpeningBalance
	if opening.Polarity == domain.Credit {
		cr = e.arith.Add(cr, opening.Amount)
	} else {
		dr = e.arith.Add(dr, opening.Amount)
	}
	tie := opening.Polarity
	if !tie.IsValid() {
		tie = domain.Debit
	}
	net := e.arith.Net(dr, cr, tie)
	return domain.AccountResult{
		Polarity: net.Polarity,
		Amount:   net.Amount,
		DrTotal:  totals.DrTotal,
		CrTotal:  totals.CrTotal,
	}
}

// OpeningBalance is the ledger's balance just before startDate: the stored
// opening balance plus every posting dated strictly earlier. With no
// startDate it is the stored opening balance.
func (e *BalanceEngine) OpeningBalance(ledger *domain.Ledger, entries []domain.Entry, startDate *time.Time) (domain.AccountResult, error) {
	if err := checkLedger(ledger, "opening balance"); err != nil {
		return domain.AccountResult{}, err
	}
	if startDate == nil {
		return domain.AccountResult{
			Polarity: ledger.OpeningBalance.Polarity,
			Amount:   e.arith.Round(ledger.OpeningBalance.Amount),
			DrTotal:  e.arith.Round(decimal.Zero),
			CrTotal:  e.arith.Round(decimal.Zero),
		}, nil
	}
	prior := domain.EntriesUpToDate(domain.EntriesByLedger(entries, ledger.ID), *startDate, false)
	return e.fold(ledger, domain.ComputeTotals(e.arith, prior, ledger.ID)), nil
}

// ClosingBalance folds the stored opening balance with every posting dated
// within [startDate, endDate]. The result is recomputed from the stored
// opening each time; DrTotal and CrTotal cover the period activity only.
func (e *BalanceEngine) ClosingBalance(ledger *domain.Ledger, entries []domain.Entry, startDate, endDate *time.Time) (domain.AccountResult, error) {
	if err := checkLedger(ledger, "closing balance"); err != nil {
		return domain.AccountResult{}, err
	}
	return e.fold(ledger, e.periodTotals(ledger.ID, entries, startDate, endDate)), nil
}

// DebitCreditTotals sums the ledger's postings within [startDate, endDate]
// without touching the opening balance.
func (e *BalanceEngine) DebitCreditTotals(ledger *domain.Ledger, entries []domain.Entry, startDate, endDate *time.Time) (domain.Totals, error) {
	if err := checkLedger(ledger, "debit and credit totals"); err != nil {
		return domain.Totals{}, err
	}
	return e.periodTotals(ledger.ID, entries, startDate, endDate), nil
}

// PendingReconciliation sums the postings of in-period entries that still
// have an unreconciled item for the ledger.
func (e *BalanceEngine) PendingReconciliation(ledger *domain.Ledger, entries []domain.Entry, startDate, endDate *time.Time) (domain.Totals, error) {
	if err := checkLedger(ledger, "reconciliation balance"); err != nil {
		return domain.Totals{}, err
	}
	var pending []domain.Entry
	for _, entry := range domain.EntriesByDateRange(domain.EntriesByLedger(entries, ledger.ID), startDate, endDate) {
		if entry.HasUnreconciledItem(ledger.ID) {
			pending = append(pending, entry)
		}
	}
	return domain.ComputeTotals(e.arith, pending, ledger.ID), nil
}

func (e *BalanceEngine) periodTotals(ledgerID int64, entries []domain.Entry, startDate, endDate *time.Time) domain.Totals {
	inPeriod := domain.EntriesByDateRange(domain.EntriesByLedger(entries, ledgerID), startDate, endDate)
	return domain.ComputeTotals(e.arith, inPeriod, ledgerID)
}

// ResolveLedger finds ledgerID in a snapshot for the balance operations.
func ResolveLedger(ledgers []domain.Ledger, ledgerID int64, what string) (*domain.Ledger, error) {
	if ledgerID == 0 {
		return nil, domain.NewValidationError("Ledger not specified. Failed to calculate " + what)
	}
	l, ok := domain.FindLedger(ledgers, ledgerID)
	if !ok {
		return nil, domain.WrapValidation("Ledger not found. Failed to calculate "+what,
			domain.NewNotFoundError("ledger", strconv.FormatInt(ledgerID, 10), domain.ErrLedgerNotFound))
	}
	return &l, nil
}
