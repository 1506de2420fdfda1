package domain

import "time"

// EntryOptions select entries and shape report output.
type EntryOptions struct {
	LedgerID               int64      `json:"ledgerId,omitempty"`
	StartDate              *time.Time `json:"startDate,omitempty"`
	EndDate                *time.Time `json:"endDate,omitempty"`
	TypeID                 int64      `json:"typeId,omitempty"`
	TagID                  int64      `json:"tagId,omitempty"`
	Text                   string     `json:"q,omitempty"`
	ShowOnlyOpeningBalance bool       `json:"showOnlyOpeningBalance,omitempty"`
	ShowAllEntries         bool       `json:"showAllEntries,omitempty"`
	AllBranches            bool       `json:"allBranches,omitempty"`
}

// ValidatePeriod rejects an end date before the start date.
func (o EntryOptions) ValidatePeriod() error {
	if o.StartDate != nil && o.EndDate != nil && o.EndDate.Before(*o.StartDate) {
		return NewValidationError("End date cannot be before start date")
	}
	return nil
}
