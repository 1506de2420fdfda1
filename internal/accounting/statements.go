package accounting

import (
	"cmp"
	"slices"
	"time"

	"github.com/iho/branchledger/internal/domain"
	"github.com/shopspring/decimal"
)

// NetResultKind labels the outcome of a profit and loss statement.
type NetResultKind string

const (
	NetProfit    NetResultKind = "PROFIT"
	NetLoss      NetResultKind = "LOSS"
	NetBreakEven NetResultKind = "BREAK_EVEN"
)

// NetResult is the merged closing balance of the income and expense roots.
type NetResult struct {
	Kind    NetResultKind  `json:"kind"`
	Balance domain.Balance `json:"balance"`
}

func netResultOf(b domain.Balance) NetResult {
	switch {
	case b.Amount.IsZero():
		return NetResult{Kind: NetBreakEven, Balance: b}
	case b.Polarity == domain.Credit:
		return NetResult{Kind: NetProfit, Balance: b}
	default:
		return NetResult{Kind: NetLoss, Balance: b}
	}
}

// ProfitAndLoss lists the roots that affect gross profit.
type ProfitAndLoss struct {
	Groups    []domain.TreeNode `json:"groups"`
	NetResult NetResult         `json:"netResult"`
}

// BalanceSheet lists the roots that do not affect gross profit, together
// with the period's net result and any opening balance difference.
type BalanceSheet struct {
	Groups                     []domain.TreeNode `json:"groups"`
	NetResult                  NetResult         `json:"netResult"`
	DifferenceInOpeningBalance domain.Balance    `json:"differenceInOpeningBalance"`
	Total                      domain.Balance    `json:"total"`
	Balanced                   bool              `json:"balanced"`
}

// TrialBalanceRow shows one ledger's closing balance in the debit or credit column.
type TrialBalanceRow struct {
	LedgerID int64           `json:"ledgerId"`
	ParentID int64           `json:"parentId"`
	Name     string          `json:"name"`
	Code     string          `json:"code,omitempty"`
	Weight   int             `json:"weight"`
	Opening  domain.Balance  `json:"openingBalance"`
	DrTotal  decimal.Decimal `json:"drTotal"`
	CrTotal  decimal.Decimal `json:"crTotal"`
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
}

// TrialBalance lists every ledger reachable in the chart.
type TrialBalance struct {
	Rows                       []TrialBalanceRow `json:"rows"`
	TotalDebit                 decimal.Decimal   `json:"totalDebit"`
	TotalCredit                decimal.Decimal   `json:"totalCredit"`
	DifferenceInOpeningBalance domain.Balance    `json:"differenceInOpeningBalance"`
	Balanced                   bool              `json:"balanced"`
}

// Projector derives statements from charts and snapshots.
type Projector struct {
	arith domain.Arithmetic
}

// NewProjector returns a Projector rounding to places.
func NewProjector(places int32) *Projector {
	return &Projector{arith: domain.NewArithmetic(places)}
}

func (p *Projector) roots(chart *domain.ChartOfAccounts, affectsGross bool) ([]domain.TreeNode, domain.Balance) {
	var nodes []domain.TreeNode
	total := domain.ZeroBalance(domain.Debit)
	for _, root := range chart.Tree() {
		if root.AffectsGross != affectsGross {
			continue
		}
		nodes = append(nodes, root)
		total = p.arith.MergePolarized(total, root.Closing)
	}
	return nodes, total
}

// ProfitAndLoss projects the income and expense side of the chart.
func (p *Projector) ProfitAndLoss(chart *domain.ChartOfAccounts) ProfitAndLoss {
	groups, net := p.roots(chart, true)
	return ProfitAndLoss{Groups: groups, NetResult: netResultOf(net)}
}

// BalanceSheet projects the asset, liability and capital side of the chart.
// Total merges every root's closing balance; it equals the opening
// balance difference when the books are consistent.
func (p *Projector) BalanceSheet(chart *domain.ChartOfAccounts) BalanceSheet {
	groups, sheet := p.roots(chart, false)
	_, net := p.roots(chart, true)
	total := p.arith.MergePolarized(sheet, net)
	return BalanceSheet{
		Groups:                     groups,
		NetResult:                  netResultOf(net),
		DifferenceInOpeningBalance: chart.DifferenceInOpeningBalance,
		Total:                      total,
		Balanced:                   p.sameBalance(total, chart.DifferenceInOpeningBalance),
	}
}

// TrialBalance projects every reachable ledger in tree order.
func (p *Projector) TrialBalance(chart *domain.ChartOfAccounts) TrialBalance {
	tb := TrialBalance{
		TotalDebit:                 p.arith.Round(decimal.Zero),
		TotalCredit:                p.arith.Round(decimal.Zero),
		DifferenceInOpeningBalance: chart.DifferenceInOpeningBalance,
	}
	for _, n := range chart.LedgerNodes() {
		row := TrialBalanceRow{
			LedgerID: n.ID,
			ParentID: n.ParentID,
			Name:     n.Name,
			Code:     n.Code,
			Weight:   n.Weight,
			Opening:  n.Opening,
			DrTotal:  n.DebitTotal.Amount,
			CrTotal:  n.CreditTotal.Amount,
			Debit:    p.arith.Round(decimal.Zero),
			Credit:   p.arith.Round(decimal.Zero),
		}
		if n.Closing.Polarity == domain.Credit {
			row.Credit = n.Closing.Amount
			tb.TotalCredit = p.arith.Add(tb.TotalCredit, n.Closing.Amount)
		} else {
			row.Debit = n.Closing.Amount
			tb.TotalDebit = p.arith.Add(tb.TotalDebit, n.Closing.Amount)
		}
		tb.Rows = append(tb.Rows, row)
	}
	net := p.arith.Net(tb.TotalDebit, tb.TotalCredit, domain.Debit)
	tb.Balanced = p.sameBalance(net, chart.DifferenceInOpeningBalance)
	return tb
}

func (p *Projector) sameBalance(a, b domain.Balance) bool {
	if !p.arith.Compare(a.Amount, b.Amount, domain.OpEQ) {
		return false
	}
	return a.Amount.IsZero() || a.Polarity == b.Polarity
}

// LedgerSummary identifies the ledger a statement is for.
type LedgerSummary struct {
	ID   int64             `json:"id"`
	Name string            `json:"name"`
	Code string            `json:"code,omitempty"`
	Type domain.LedgerType `json:"type"`
}

// StatementLine is one entry as seen from a single ledger.
type StatementLine struct {
	EntryID     int64           `json:"entryId"`
	Date        time.Time       `json:"date"`
	EntryNumber string          `json:"entryNumber,omitempty"`
	Narration   string          `json:"narration,omitempty"`
	Type        string          `json:"type"`
	Tag         string          `json:"tag,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Reconciled  bool            `json:"reconciled"`
	Balance     domain.Balance  `json:"balance"`
}

// LedgerStatement is a ledger's opening balance, its entries for the
// selected period with a running balance, and its closing balance.
type LedgerStatement struct {
	Ledger         LedgerSummary        `json:"ledger"`
	OpeningBalance domain.AccountResult `json:"openingBalance"`
	ClosingBalance domain.AccountResult `json:"closingBalance"`
	Totals         domain.Totals        `json:"totals"`
	Lines          []StatementLine      `json:"lines"`
}

// ReconciliationStatement adds the not yet reconciled totals to a ledger statement.
type ReconciliationStatement struct {
	LedgerStatement
	Pending        domain.Totals  `json:"pending"`
	PendingBalance domain.Balance `json:"pendingBalance"`
}

func statementLedger(snap Snapshot, opts domain.EntryOptions) (*domain.Ledger, error) {
	if opts.LedgerID == 0 {
		return nil, domain.NewValidationError("Please select a ledger account and try again")
	}
	return ResolveLedger(snap.Ledgers, opts.LedgerID, "statement")
}

// LedgerStatement builds the statement of opts.LedgerID. The opening
// balance is taken as of opts.StartDate and the closing balance covers
// everything up to opts.EndDate.
func (p *Projector) LedgerStatement(snap Snapshot, opts domain.EntryOptions) (*LedgerStatement, error) {
	if err := opts.ValidatePeriod(); err != nil {
		return nil, err
	}
	ledger, err := statementLedger(snap, opts)
	if err != nil {
		return nil, err
	}
	engine := &BalanceEngine{arith: p.arith}
	ledgerEntries := domain.EntriesByLedger(snap.Entries, ledger.ID)

	opening, err := engine.OpeningBalance(ledger, ledgerEntries, opts.StartDate)
	if err != nil {
		return nil, err
	}
	closing, err := engine.ClosingBalance(ledger, ledgerEntries, nil, opts.EndDate)
	if err != nil {
		return nil, err
	}

	selected := domain.EntriesByOptions(ledgerEntries, opts)
	slices.SortStableFunc(selected, func(a, b domain.Entry) int {
		if c := a.Date().Compare(b.Date()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	stmt := &LedgerStatement{
		Ledger:         LedgerSummary{ID: ledger.ID, Name: ledger.Name, Code: ledger.Code, Type: ledger.Type},
		OpeningBalance: opening,
		ClosingBalance: closing,
		Totals:         domain.ComputeTotals(p.arith, selected, ledger.ID),
		Lines:          make([]StatementLine, 0, len(selected)),
	}
	running := opening.Balance()
	for i := range selected {
		line := p.statementLine(&selected[i], ledger.ID)
		running = p.arith.MergePolarized(running, p.arith.Net(line.Debit, line.Credit, domain.Debit))
		line.Balance = running
		stmt.Lines = append(stmt.Lines, line)
	}
	return stmt, nil
}

func (p *Projector) statementLine(e *domain.Entry, ledgerID int64) StatementLine {
	totals := domain.ComputeTotals(p.arith, []domain.Entry{*e}, ledgerID)
	return StatementLine{
		EntryID:     e.ID,
		Date:        e.Date(),
		EntryNumber: e.EntryNumber(),
		Narration:   e.Narration,
		Type:        e.Type.Name,
		Tag:         e.Tag.Title,
		Debit:       totals.DrTotal,
		Credit:      totals.CrTotal,
		Reconciled:  !e.HasUnreconciledItem(ledgerID),
	}
}

// ReconciliationStatement builds a ledger statement plus the totals still
// awaiting reconciliation. Unless opts.ShowAllEntries is set, lines whose
// entry already has a reconciled item on the ledger are left out.
func (p *Projector) ReconciliationStatement(snap Snapshot, opts domain.EntryOptions) (*ReconciliationStatement, error) {
	stmt, err := p.LedgerStatement(snap, opts)
	if err != nil {
		return nil, err
	}
	ledger, err := statementLedger(snap, opts)
	if err != nil {
		return nil, err
	}
	engine := &BalanceEngine{arith: p.arith}
	pending, err := engine.PendingReconciliation(ledger, snap.Entries, opts.StartDate, opts.EndDate)
	if err != nil {
		return nil, err
	}

	if !opts.ShowAllEntries {
		reconciled := make(map[int64]bool)
		for _, e := range domain.EntriesByLedger(snap.Entries, ledger.ID) {
			if e.HasReconciledItem(ledger.ID) {
				reconciled[e.ID] = true
			}
		}
		stmt.Lines = slices.DeleteFunc(stmt.Lines, func(l StatementLine) bool {
			return reconciled[l.EntryID]
		})
	}

	return &ReconciliationStatement{
		LedgerStatement: *stmt,
		Pending:         pending,
		PendingBalance:  p.arith.Net(pending.DrTotal, pending.CrTotal, domain.Debit),
	}, nil
}
