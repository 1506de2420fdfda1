package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/branchledger/internal/accounting"
	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
)

// CreateAccountRequest represents a request to create a branch account.
type CreateAccountRequest struct {
	Label         string `json:"label"`
	BranchName    string `json:"branchName"`
	DecimalPlaces int32  `json:"decimalPlaces"`
	Currency      string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Label:         r.Label,
		BranchName:    r.BranchName,
		DecimalPlaces: r.DecimalPlaces,
		Currency:      r.Currency,
	}
}

// BalanceRequest is an amount with its side.
type BalanceRequest struct {
	Type   domain.Polarity `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

// LedgerRequest represents a ledger create or edit.
type LedgerRequest struct {
	ParentID       int64             `json:"parentId"`
	Name           string            `json:"name"`
	Code           string            `json:"code"`
	ReferenceNo    string            `json:"referenceNo"`
	Type           domain.LedgerType `json:"type"`
	OpeningBalance *BalanceRequest   `json:"openingBalance,omitempty"`
	Hidden         bool              `json:"hidden"`
}

// ToDomain converts to a domain ledger with the given id.
func (r *LedgerRequest) ToDomain(id int64) (domain.Ledger, error) {
	l := domain.Ledger{
		ID:             id,
		ParentID:       r.ParentID,
		Name:           r.Name,
		Code:           r.Code,
		ReferenceNo:    r.ReferenceNo,
		Type:           r.Type,
		Hidden:         r.Hidden,
		OpeningBalance: domain.ZeroBalance(domain.Debit),
	}
	if l.Type == "" {
		l.Type = domain.LedgerUnrestricted
	}
	if r.OpeningBalance != nil {
		p := r.OpeningBalance.Type
		if p == "" {
			p = domain.Debit
		}
		if !p.IsValid() {
			return l, fmt.Errorf("invalid opening balance type %q", r.OpeningBalance.Type)
		}
		l.OpeningBalance = domain.Balance{Polarity: p, Amount: r.OpeningBalance.Amount}
	}
	return l, nil
}

// GroupRequest represents a group create or edit.
type GroupRequest struct {
	ParentID     int64  `json:"parentId"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	AffectsGross bool   `json:"affectsGross"`
}

// ToDomain converts to a domain group with the given id.
func (r *GroupRequest) ToDomain(id int64) domain.Group {
	return domain.Group{
		ID:           id,
		ParentID:     r.ParentID,
		Name:         r.Name,
		Code:         r.Code,
		AffectsGross: r.AffectsGross,
	}
}

// EntryItemRequest is one debit or credit line.
type EntryItemRequest struct {
	LedgerID    int64           `json:"ledgerId"`
	LedgerName  string          `json:"ledgerName"`
	Type        domain.Polarity `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	EntryNumber string          `json:"entryNumber"`
	Date        *Date           `json:"date,omitempty"`
	Reconciled  bool            `json:"reconciled"`
}

// EntryRequest represents an entry post or edit. Date applies to items
// that carry none of their own.
type EntryRequest struct {
	Narration string             `json:"narration"`
	Date      *Date              `json:"date,omitempty"`
	TypeID    int64              `json:"typeId"`
	TypeName  string             `json:"typeName"`
	TagID     int64              `json:"tagId"`
	TagTitle  string             `json:"tagTitle"`
	Items     []EntryItemRequest `json:"items"`
}

// ToDomain converts to a domain entry with the given id.
func (r *EntryRequest) ToDomain(id int64) (domain.Entry, error) {
	e := domain.Entry{
		ID:        id,
		Narration: r.Narration,
		Type:      domain.EntryTypeRef{ID: r.TypeID, Name: r.TypeName},
		Tag:       domain.TagRef{ID: r.TagID, Title: r.TagTitle},
		Items:     make([]domain.EntryItem, len(r.Items)),
	}
	for i, it := range r.Items {
		if !it.Type.IsValid() {
			return e, fmt.Errorf("item %d: invalid type %q", i+1, it.Type)
		}
		date := it.Date.Ptr()
		if date == nil {
			date = r.Date.Ptr()
		}
		if date == nil {
			return e, fmt.Errorf("item %d: date is required", i+1)
		}
		e.Items[i] = domain.EntryItem{
			LedgerID:    it.LedgerID,
			LedgerName:  it.LedgerName,
			Polarity:    it.Type,
			Amount:      it.Amount,
			EntryNumber: it.EntryNumber,
			Date:        *date,
			Reconciled:  it.Reconciled,
		}
	}
	return e, nil
}

// ImportRowRequest is one flat row of an import.
type ImportRowRequest struct {
	EntryNumber string          `json:"entryNumber"`
	Date        *Date           `json:"date,omitempty"`
	Ledger      string          `json:"ledger"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Narration   string          `json:"narration"`
	EntryType   string          `json:"entryType"`
	Tag         string          `json:"tag"`
}

// ImportRequest represents a batch import into one destination ledger.
type ImportRequest struct {
	DestinationLedgerID int64              `json:"destinationLedgerId"`
	Rows                []ImportRowRequest `json:"rows"`
}

// ToUseCaseInput converts to use case input.
func (r *ImportRequest) ToUseCaseInput(accountID string) usecase.ImportEntriesInput {
	rows := make([]accounting.ImportRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = accounting.ImportRow{
			EntryNumber: row.EntryNumber,
			Date:        row.Date.Ptr(),
			LedgerName:  row.Ledger,
			Debit:       row.Debit,
			Credit:      row.Credit,
			Narration:   row.Narration,
			EntryType:   row.EntryType,
			Tag:         row.Tag,
		}
	}
	return usecase.ImportEntriesInput{
		AccountID:           accountID,
		DestinationLedgerID: r.DestinationLedgerID,
		Rows:                rows,
	}
}

// ReconcileRequest represents reconciliation flags for one ledger.
type ReconcileRequest struct {
	LedgerID int64                   `json:"ledgerId"`
	Items    []usecase.ReconcileItem `json:"items"`
}

// TagRequest represents a new tag.
type TagRequest struct {
	Title string `json:"title"`
}
