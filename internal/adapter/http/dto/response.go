package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/branchledger/internal/domain"
)

// AccountResponse represents a branch account in API responses.
type AccountResponse struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	BranchName    string    `json:"branchName"`
	DecimalPlaces int32     `json:"decimalPlaces"`
	Currency      string    `json:"currency,omitempty"`
	Active        bool      `json:"active"`
	Locked        bool      `json:"locked"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		Label:         a.Label,
		BranchName:    a.Settings.BranchName,
		DecimalPlaces: a.Places(),
		Currency:      a.Settings.Currency,
		Active:        a.Active,
		Locked:        a.Locked,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// LedgerResponse represents a ledger in API responses.
type LedgerResponse struct {
	ID             int64             `json:"id"`
	ParentID       int64             `json:"parentId"`
	ParentName     string            `json:"parentName"`
	Name           string            `json:"name"`
	Code           string            `json:"code,omitempty"`
	ReferenceNo    string            `json:"referenceNo,omitempty"`
	Type           domain.LedgerType `json:"type"`
	OpeningBalance domain.Balance    `json:"openingBalance"`
	System         bool              `json:"system"`
	Hidden         bool              `json:"hidden,omitempty"`
}

// LedgerFromDomain converts a domain ledger to response.
func LedgerFromDomain(l domain.Ledger) LedgerResponse {
	return LedgerResponse{
		ID:             l.ID,
		ParentID:       l.ParentID,
		ParentName:     l.ParentName,
		Name:           l.Name,
		Code:           l.Code,
		ReferenceNo:    l.ReferenceNo,
		Type:           l.Type,
		OpeningBalance: l.OpeningBalance,
		System:         l.System,
		Hidden:         l.Hidden,
	}
}

// LedgersFromDomain converts domain ledgers to responses.
func LedgersFromDomain(ledgers []domain.Ledger) []LedgerResponse {
	result := make([]LedgerResponse, len(ledgers))
	for i, l := range ledgers {
		result[i] = LedgerFromDomain(l)
	}
	return result
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID           int64  `json:"id"`
	ParentID     int64  `json:"parentId"`
	ParentName   string `json:"parentName,omitempty"`
	Name         string `json:"name"`
	Code         string `json:"code,omitempty"`
	AffectsGross bool   `json:"affectsGross"`
	System       bool   `json:"system"`
}

// GroupFromDomain converts a domain group to response.
func GroupFromDomain(g domain.Group) GroupResponse {
	return GroupResponse{
		ID:           g.ID,
		ParentID:     g.ParentID,
		ParentName:   g.ParentName,
		Name:         g.Name,
		Code:         g.Code,
		AffectsGross: g.AffectsGross,
		System:       g.System,
	}
}

// GroupsFromDomain converts domain groups to responses.
func GroupsFromDomain(groups []domain.Group) []GroupResponse {
	result := make([]GroupResponse, len(groups))
	for i, g := range groups {
		result[i] = GroupFromDomain(g)
	}
	return result
}

// EntryItemResponse represents one entry item.
type EntryItemResponse struct {
	LedgerID    int64             `json:"ledgerId"`
	LedgerName  string            `json:"ledgerName"`
	LedgerType  domain.LedgerType `json:"ledgerType"`
	Type        domain.Polarity   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	EntryNumber string            `json:"entryNumber,omitempty"`
	Date        Date              `json:"date"`
	Reconciled  bool              `json:"reconciled"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID              int64               `json:"id"`
	Date            Date                `json:"date"`
	EntryNumber     string              `json:"entryNumber,omitempty"`
	Narration       string              `json:"narration,omitempty"`
	Type            domain.EntryTypeRef `json:"type"`
	Tag             *domain.TagRef      `json:"tag,omitempty"`
	SystemGenerated bool                `json:"systemGenerated"`
	Items           []EntryItemResponse `json:"items"`
}

// EntryFromDomain converts a domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	resp := &EntryResponse{
		ID:              e.ID,
		Date:            Date{e.Date()},
		EntryNumber:     e.EntryNumber(),
		Narration:       e.Narration,
		Type:            e.Type,
		SystemGenerated: e.SystemGenerated,
		Items:           make([]EntryItemResponse, len(e.Items)),
	}
	if e.Tag.ID != 0 || e.Tag.Title != "" {
		tag := e.Tag
		resp.Tag = &tag
	}
	for i, item := range e.Items {
		resp.Items[i] = EntryItemResponse{
			LedgerID:    item.LedgerID,
			LedgerName:  item.LedgerName,
			LedgerType:  item.LedgerType,
			Type:        item.Polarity,
			Amount:      item.Amount,
			EntryNumber: item.EntryNumber,
			Date:        Date{item.Date},
			Reconciled:  item.Reconciled,
		}
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i := range entries {
		result[i] = EntryFromDomain(&entries[i])
	}
	return result
}

// ImportResponse reports what an import stored.
type ImportResponse struct {
	Entries          []*EntryResponse `json:"entries"`
	SynthesizedItems int              `json:"synthesizedItems"`
}

// ChartResponse is the nested chart of accounts.
type ChartResponse struct {
	AccountID                  string            `json:"accountId"`
	Groups                     []domain.TreeNode `json:"groups"`
	DifferenceInOpeningBalance domain.Balance    `json:"differenceInOpeningBalance"`
}

// ChartFromDomain converts a chart to response.
func ChartFromDomain(c *domain.ChartOfAccounts) *ChartResponse {
	return &ChartResponse{
		AccountID:                  c.FactoryID,
		Groups:                     c.Tree(),
		DifferenceInOpeningBalance: c.DifferenceInOpeningBalance,
	}
}

// EntryTypeResponse represents a voucher type.
type EntryTypeResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	System bool   `json:"system"`
}

// EntryTypesFromDomain converts domain entry types to responses.
func EntryTypesFromDomain(types []domain.EntryType) []EntryTypeResponse {
	result := make([]EntryTypeResponse, len(types))
	for i, t := range types {
		result[i] = EntryTypeResponse{ID: t.ID, Name: t.Name, System: t.System}
	}
	return result
}

// TagFromDomain converts a domain tag to response.
func TagFromDomain(t domain.Tag) domain.TagRef {
	return domain.TagRef{ID: t.ID, Title: t.Title}
}

// TagsFromDomain converts domain tags to responses.
func TagsFromDomain(tags []domain.Tag) []domain.TagRef {
	result := make([]domain.TagRef, len(tags))
	for i, t := range tags {
		result[i] = TagFromDomain(t)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
