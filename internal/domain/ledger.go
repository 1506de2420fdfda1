package domain

import "strings"

// LedgerType separates bank/cash ledgers, which can be reconciled, from the rest.
type LedgerType string

const (
	LedgerUnrestricted LedgerType = "UNRESTRICTED"
	LedgerBankOrCash   LedgerType = "BANK_OR_CASH"
)

// NoParent marks a group at the top of the chart. Allocated ids start at 1.
const NoParent int64 = 0

// Balances are the computed figures carried by every chart node.
type Balances struct {
	Opening     Balance `json:"openingBalance"`
	Closing     Balance `json:"closingBalance"`
	DebitTotal  Balance `json:"debitTotal"`
	CreditTotal Balance `json:"creditTotal"`
}

// EmptyBalances is the starting point of every group before rollup.
func EmptyBalances() Balances {
	return Balances{
		Opening:     ZeroBalance(Debit),
		Closing:     ZeroBalance(Debit),
		DebitTotal:  ZeroBalance(Debit),
		CreditTotal: ZeroBalance(Credit),
	}
}

// Ledger is a leaf account that entries post to.
type Ledger struct {
	ID             int64
	FactoryID      string
	ParentID       int64
	ParentName     string
	Name           string
	Code           string
	ReferenceNo    string
	Type           LedgerType
	OpeningBalance Balance
	System         bool
	Base           bool
	Hidden         bool
}

// IsBankOrCash reports whether the ledger can be reconciled.
func (l *Ledger) IsBankOrCash() bool {
	return l.Type == LedgerBankOrCash
}

// Group is an interior node of the chart of accounts.
type Group struct {
	ID           int64
	FactoryID    string
	ParentID     int64
	ParentName   string
	Name         string
	Code         string
	AffectsGross bool
	System       bool
	Base         bool
}

// IsRoot reports whether the group has no parent.
func (g *Group) IsRoot() bool {
	return g.ParentID == NoParent
}

// NamesMatch compares names the way lookups do: trimmed and case-insensitive.
func NamesMatch(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FindLedgerByName returns the first ledger whose name matches.
func FindLedgerByName(ledgers []Ledger, name string) (Ledger, bool) {
	for _, l := range ledgers {
		if NamesMatch(l.Name, name) {
			return l, true
		}
	}
	return Ledger{}, false
}

// FindLedger returns the ledger with the given id.
func FindLedger(ledgers []Ledger, id int64) (Ledger, bool) {
	for _, l := range ledgers {
		if l.ID == id {
			return l, true
		}
	}
	return Ledger{}, false
}

// FindGroup returns the group with the given id.
func FindGroup(groups []Group, id int64) (Group, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}
