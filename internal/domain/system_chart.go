package domain

// SystemNode is a predefined group or ledger created with every account.
type SystemNode struct {
	ID           int64
	ParentID     int64
	Name         string
	AffectsGross bool
	BankOrCash   bool
	Base         bool
}

// SystemGroups are seeded into every new account. Groups and ledgers use
// separate id spaces.
var SystemGroups = []SystemNode{
	{ID: 1, Name: "Assets", Base: true},
	{ID: 2, Name: "Liabilities", Base: true},
	{ID: 3, Name: "Capital", Base: true},
	{ID: 4, Name: "Income", AffectsGross: true, Base: true},
	{ID: 5, Name: "Expenses", AffectsGross: true, Base: true},
	{ID: 6, ParentID: 1, Name: "Current Assets"},
	{ID: 7, ParentID: 2, Name: "Current Liabilities"},
	{ID: 8, ParentID: 1, Name: "Fixed Assets"},
}

// SystemLedgers are seeded into every new account.
var SystemLedgers = []SystemNode{
	{ID: 1, ParentID: 6, Name: "Cash", BankOrCash: true, Base: true},
	{ID: 2, ParentID: 6, Name: "Bank", BankOrCash: true},
	{ID: 3, ParentID: 6, Name: "Suspense"},
	{ID: 4, ParentID: 3, Name: "Capital Account", Base: true},
	{ID: 5, ParentID: 4, Name: "Sales"},
	{ID: 6, ParentID: 5, Name: "Purchases"},
}

// SystemEntryTypes are the voucher types every account starts with.
var SystemEntryTypes = []string{DefaultEntryType, "Payment", "Receipt", "Contra", "Sales", "Purchase"}

// SystemChart materializes the predefined nodes for factoryID.
func SystemChart(factoryID string) ([]Group, []Ledger, []EntryType) {
	groups := make([]Group, 0, len(SystemGroups))
	for _, n := range SystemGroups {
		g := Group{
			ID:           n.ID,
			FactoryID:    factoryID,
			ParentID:     n.ParentID,
			Name:         n.Name,
			AffectsGross: n.AffectsGross,
			System:       true,
			Base:         n.Base,
		}
		if parent, ok := FindGroup(groups, n.ParentID); ok {
			g.ParentName = parent.Name
			g.AffectsGross = parent.AffectsGross
		}
		groups = append(groups, g)
	}

	ledgers := make([]Ledger, 0, len(SystemLedgers))
	for _, n := range SystemLedgers {
		l := Ledger{
			ID:             n.ID,
			FactoryID:      factoryID,
			ParentID:       n.ParentID,
			Name:           n.Name,
			Type:           LedgerUnrestricted,
			OpeningBalance: ZeroBalance(Debit),
			System:         true,
			Base:           n.Base,
		}
		if n.BankOrCash {
			l.Type = LedgerBankOrCash
		}
		if parent, ok := FindGroup(groups, n.ParentID); ok {
			l.ParentName = parent.Name
		}
		ledgers = append(ledgers, l)
	}

	types := make([]EntryType, 0, len(SystemEntryTypes))
	for i, name := range SystemEntryTypes {
		types = append(types, EntryType{ID: int64(i + 1), FactoryID: factoryID, Name: name, System: true})
	}
	return groups, ledgers, types
}
