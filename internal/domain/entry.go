package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryTypeRef names the voucher type an entry was posted under.
type EntryTypeRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TagRef is an optional label attached to an entry.
type TagRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// EntryType is a stored voucher type (Journal, Payment, Receipt...).
type EntryType struct {
	ID        int64
	FactoryID string
	Name      string
	System    bool
}

// Tag is a stored entry tag.
type Tag struct {
	ID        int64
	FactoryID string
	Title     string
}

// DefaultEntryType is used when an import row names no entry type.
const DefaultEntryType = "Journal"

// EntryItem is one debit or credit line of an entry. LedgerName and
// LedgerType are cached from the ledger at posting time.
type EntryItem struct {
	LedgerID    int64
	LedgerName  string
	LedgerType  LedgerType
	Polarity    Polarity
	Amount      decimal.Decimal
	EntryNumber string
	Date        time.Time
	Reconciled  bool
}

// Entry is a balanced set of items posted together.
type Entry struct {
	ID              int64
	FactoryID       string
	Narration       string
	Type            EntryTypeRef
	Tag             TagRef
	Items           []EntryItem
	SystemGenerated bool
}

// Date is the date of the first item.
func (e *Entry) Date() time.Time {
	if len(e.Items) == 0 {
		return time.Time{}
	}
	return e.Items[0].Date
}

// EntryNumber is the entry number of the first item that carries one.
func (e *Entry) EntryNumber() string {
	for _, item := range e.Items {
		if item.EntryNumber != "" {
			return item.EntryNumber
		}
	}
	return ""
}

// DebitTotal sums the debit items, rounded by a.
func (e *Entry) DebitTotal(a Arithmetic) decimal.Decimal {
	return e.sideTotal(a, Debit)
}

// CreditTotal sums the credit items, rounded by a.
func (e *Entry) CreditTotal(a Arithmetic) decimal.Decimal {
	return e.sideTotal(a, Credit)
}

func (e *Entry) sideTotal(a Arithmetic, p Polarity) decimal.Decimal {
	total := decimal.Zero
	for _, item := range e.Items {
		if item.Polarity == p {
			total = a.Add(total, item.Amount)
		}
	}
	return total
}

// Balances reports whether debits equal credits at a's precision.
func (e *Entry) Balances(a Arithmetic) bool {
	return a.Compare(e.DebitTotal(a), e.CreditTotal(a), OpEQ)
}

// HasLedger reports whether any item posts to ledgerID.
func (e *Entry) HasLedger(ledgerID int64) bool {
	for _, item := range e.Items {
		if item.LedgerID == ledgerID {
			return true
		}
	}
	return false
}

// ItemsFor returns the items posting to ledgerID.
func (e *Entry) ItemsFor(ledgerID int64) []EntryItem {
	var items []EntryItem
	for _, item := range e.Items {
		if item.LedgerID == ledgerID {
			items = append(items, item)
		}
	}
	return items
}

// HasUnreconciledItem reports whether some item for ledgerID is not yet reconciled.
func (e *Entry) HasUnreconciledItem(ledgerID int64) bool {
	for _, item := range e.Items {
		if item.LedgerID == ledgerID && !item.Reconciled {
			return true
		}
	}
	return false
}

// HasReconciledItem reports whether some item for ledgerID is reconciled.
func (e *Entry) HasReconciledItem(ledgerID int64) bool {
	for _, item := range e.Items {
		if item.LedgerID == ledgerID && item.Reconciled {
			return true
		}
	}
	return false
}

// MatchesText does a case-insensitive search over narration, entry
// number, type, tag and ledger names.
func (e *Entry) MatchesText(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	fields := []string{e.Narration, e.Type.Name, e.Tag.Title}
	for _, item := range e.Items {
		fields = append(fields, item.EntryNumber, item.LedgerName)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	items := make([]EntryItem, len(e.Items))
	copy(items, e.Items)
	e.Items = items
	return e
}
