package accounting

import (
	"github.com/iho/branchledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Snapshot is the state a chart is computed from: one account's groups,
// ledgers and entries as loaded from the stores.
type Snapshot struct {
	Account domain.Account
	Groups  []domain.Group
	Ledgers []domain.Ledger
	Entries []domain.Entry
}

// BuildChart computes every ledger's balances for the period in opts,
// arranges groups and ledgers into a tree and rolls ledger balances up
// into their groups. Unbalanced books are reported through
// DifferenceInOpeningBalance, never as an error.
func BuildChart(snap Snapshot, opts domain.EntryOptions) (*domain.ChartOfAccounts, error) {
	if err := opts.ValidatePeriod(); err != nil {
		return nil, err
	}
	engine := NewBalanceEngine(snap.Account.Places())
	arith := engine.Arithmetic()
	weights := newWeigher(snap.Groups)

	chart := domain.NewChart(snap.Account.ID)
	for _, g := range snap.Groups {
		chart.Add(domain.ChartNode{
			Kind:         domain.NodeGroup,
			ID:           g.ID,
			ParentID:     g.ParentID,
			Name:         g.Name,
			Code:         g.Code,
			Weight:       weights.depth(g.ID),
			AffectsGross: g.AffectsGross,
			System:       g.System,
			Balances:     domain.EmptyBalances(),
		})
	}

	byLedger := indexEntries(snap.Entries)
	openings := make([]domain.Balance, 0, len(snap.Ledgers))
	for i := range snap.Ledgers {
		l := &snap.Ledgers[i]
		balances, err := ledgerBalances(engine, l, byLedger[l.ID], opts)
		if err != nil {
			return nil, err
		}
		chart.Add(domain.ChartNode{
			Kind:       domain.NodeLedger,
			ID:         l.ID,
			ParentID:   l.ParentID,
			Name:       l.Name,
			Code:       l.Code,
			Weight:     weights.depth(l.ParentID) + 1,
			LedgerType: l.Type,
			System:     l.System,
			Balances:   balances,
		})
		openings = append(openings, l.OpeningBalance)
	}
	chart.DifferenceInOpeningBalance = arith.Sum(domain.Debit, openings...)

	link(chart)
	propagateAffectsGross(chart)
	rollup(arith, chart)
	return chart, nil
}

func ledgerBalances(engine *BalanceEngine, l *domain.Ledger, entries []domain.Entry, opts domain.EntryOptions) (domain.Balances, error) {
	opening, err := engine.OpeningBalance(l, entries, nil)
	if err != nil {
		return domain.Balances{}, err
	}
	arith := engine.Arithmetic()
	balances := domain.Balances{
		Opening:     opening.Balance(),
		Closing:     opening.Balance(),
		DebitTotal:  domain.Balance{Polarity: domain.Debit, Amount: arith.Round(decimal.Zero)},
		CreditTotal: domain.Balance{Polarity: domain.Credit, Amount: arith.Round(decimal.Zero)},
	}
	if opts.ShowOnlyOpeningBalance {
		return balances, nil
	}
	closing, err := engine.ClosingBalance(l, entries, opts.StartDate, opts.EndDate)
	if err != nil {
		return domain.Balances{}, err
	}
	balances.Closing = closing.Balance()
	balances.DebitTotal.Amount = closing.DrTotal
	balances.CreditTotal.Amount = closing.CrTotal
	return balances, nil
}

// indexEntries buckets entries by every ledger they post to.
func indexEntries(entries []domain.Entry) map[int64][]domain.Entry {
	out := make(map[int64][]domain.Entry)
	for _, e := range entries {
		seen := make(map[int64]bool, len(e.Items))
		for _, item := range e.Items {
			if seen[item.LedgerID] {
				continue
			}
			seen[item.LedgerID] = true
			out[item.LedgerID] = append(out[item.LedgerID], e)
		}
	}
	return out
}

// weigher computes the depth of a group in the parent chain. Roots weigh 0.
type weigher struct {
	parents map[int64]int64
	memo    map[int64]int
}

func newWeigher(groups []domain.Group) *weigher {
	w := &weigher{parents: make(map[int64]int64, len(groups)), memo: make(map[int64]int)}
	for _, g := range groups {
		w.parents[g.ID] = g.ParentID
	}
	return w
}

func (w *weigher) depth(groupID int64) int {
	if d, ok := w.memo[groupID]; ok {
		return d
	}
	depth := 0
	seen := map[int64]bool{groupID: true}
	for cur := w.parents[groupID]; cur != domain.NoParent && !seen[cur]; cur = w.parents[cur] {
		if _, known := w.parents[cur]; !known {
			break
		}
		seen[cur] = true
		depth++
	}
	w.memo[groupID] = depth
	return depth
}

// link rebuilds children and roots from parent ids. Ledgers attach to
// groups, groups attach to groups; groups without a parent become roots.
// Nodes whose parent is missing, or who name themselves as parent, stay
// detached.
func link(chart *domain.ChartOfAccounts) {
	chart.Roots = chart.Roots[:0]
	for i := range chart.Nodes {
		chart.Nodes[i].Children = nil
	}
	for i := range chart.Nodes {
		n := &chart.Nodes[i]
		if n.Kind == domain.NodeGroup && n.ParentID == domain.NoParent {
			chart.Roots = append(chart.Roots, i)
			continue
		}
		if n.Kind == domain.NodeGroup && n.ParentID == n.ID {
			continue
		}
		parent, ok := chart.Lookup(domain.NodeGroup, n.ParentID)
		if !ok {
			continue
		}
		chart.Nodes[parent].Children = append(chart.Nodes[parent].Children, i)
	}
}

func propagateAffectsGross(chart *domain.ChartOfAccounts) {
	chart.Walk(func(idx, _ int) {
		n := chart.Nodes[idx]
		if n.Kind != domain.NodeGroup {
			return
		}
		for _, child := range n.Children {
			if chart.Nodes[child].Kind == domain.NodeGroup {
				chart.Nodes[child].AffectsGross = n.AffectsGross
			}
		}
	})
}

// rollup merges every node's balances into its parent group, children
// first. The visited array makes each group contribute exactly once.
func rollup(arith domain.Arithmetic, chart *domain.ChartOfAccounts) {
	visited := make([]bool, len(chart.Nodes))
	var visit func(idx int)
	visit = func(idx int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		for _, child := range chart.Nodes[idx].Children {
			if chart.Nodes[child].Kind == domain.NodeGroup {
				visit(child)
			}
			chart.Nodes[idx].Balances = mergeBalances(arith, chart.Nodes[idx].Balances, chart.Nodes[child].Balances)
		}
	}
	for _, root := range chart.Roots {
		visit(root)
	}
}

func mergeBalances(arith domain.Arithmetic, a, b domain.Balances) domain.Balances {
	return domain.Balances{
		Opening:     arith.MergePolarized(a.Opening, b.Opening),
		Closing:     arith.MergePolarized(a.Closing, b.Closing),
		DebitTotal:  arith.MergePolarized(a.DebitTotal, b.DebitTotal),
		CreditTotal: arith.MergePolarized(a.CreditTotal, b.CreditTotal),
	}
}

// MergeCharts combines the charts of several branches. Nodes with the same
// kind and id are merged field by field; nodes found in only one chart are
// carried over. Inputs are not modified.
func MergeCharts(places int32, charts ...*domain.ChartOfAccounts) *domain.ChartOfAccounts {
	arith := domain.NewArithmetic(places)
	merged := domain.NewChart("")
	for _, c := range charts {
		if c == nil {
			continue
		}
		merged.DifferenceInOpeningBalance = arith.MergePolarized(merged.DifferenceInOpeningBalance, c.DifferenceInOpeningBalance)
		for _, n := range c.Nodes {
			if idx, ok := merged.Lookup(n.Kind, n.ID); ok {
				merged.Nodes[idx].Balances = mergeBalances(arith, merged.Nodes[idx].Balances, n.Balances)
				continue
			}
			n.Children = nil
			merged.Add(n)
		}
	}
	link(merged)
	return merged
}
