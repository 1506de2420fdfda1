package accounting

import (
	"time"

	"github.com/iho/branchledger/internal/domain"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(day int) time.Time {
	return time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(day int) *time.Time {
	t := date(day)
	return &t
}

func debit(ledger int64, amount string) domain.EntryItem {
	return domain.EntryItem{LedgerID: ledger, Polarity: domain.Debit, Amount: d(amount)}
}

func credit(ledger int64, amount string) domain.EntryItem {
	return domain.EntryItem{LedgerID: ledger, Polarity: domain.Credit, Amount: d(amount)}
}

func entry(id int64, day int, items ...domain.EntryItem) domain.Entry {
	for i := range items {
		items[i].Date = date(day)
	}
	return domain.Entry{ID: id, FactoryID: "branch-a", Type: domain.EntryTypeRef{ID: 1, Name: "Journal"}, Items: items}
}

func ledger(id, parent int64, name string, opening domain.Balance) domain.Ledger {
	return domain.Ledger{
		ID:             id,
		FactoryID:      "branch-a",
		ParentID:       parent,
		Name:           name,
		Type:           domain.LedgerUnrestricted,
		OpeningBalance: opening,
	}
}

func bal(p domain.Polarity, amount string) domain.Balance {
	return domain.Balance{Polarity: p, Amount: d(amount)}
}

func account() domain.Account {
	return domain.Account{ID: "branch-a", Label: "a", Active: true, Settings: domain.AccountSettings{BranchName: "A", DecimalPlaces: 2}}
}

// sampleSnapshot is a small chart:
//
//	Assets(1) -> Current Assets(2) -> Cash(1), Bank(2)
//	Capital(3) -> Capital Account(3)
//	Income(4, affects gross) -> Sales(4)
func sampleSnapshot() Snapshot {
	return Snapshot{
		Account: account(),
		Groups: []domain.Group{
			{ID: 1, Name: "Assets", System: true},
			{ID: 2, ParentID: 1, Name: "Current Assets"},
			{ID: 3, Name: "Capital", System: true},
			{ID: 4, Name: "Income", AffectsGross: true, System: true},
		},
		Ledgers: []domain.Ledger{
			ledger(1, 2, "Cash", bal(domain.Debit, "100")),
			ledger(2, 2, "Bank", bal(domain.Debit, "0")),
			ledger(3, 3, "Capital Account", bal(domain.Credit, "100")),
			ledger(4, 4, "Sales", bal(domain.Credit, "0")),
		},
		Entries: []domain.Entry{
			entry(1, 5, debit(1, "40"), credit(4, "40")),
			entry(2, 10, debit(2, "25"), credit(1, "25")),
			entry(3, 20, debit(1, "10"), credit(4, "10")),
		},
	}
}
