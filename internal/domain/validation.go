package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNameLength  = 255
	MaxLabelLength = 64
)

// ValidateLedger checks a ledger about to be saved against the ledgers
// already stored for the same factory. existing may include l itself.
func ValidateLedger(l Ledger, existing []Ledger, groups []Group, places int32) error {
	if l.ParentID == NoParent {
		return NewValidationError("Parent Group is required")
	}
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return NewValidationError("Ledger name is required")
	}
	if len(name) > MaxNameLength {
		return NewValidationError(fmt.Sprintf("Ledger name exceeds %d characters", MaxNameLength))
	}
	if _, ok := FindGroup(groups, l.ParentID); !ok {
		return WrapValidation("Parent Group does not exist", ErrGroupNotFound)
	}
	for _, other := range existing {
		if other.ID == l.ID {
			continue
		}
		if NamesMatch(other.Name, name) {
			return NewValidationError("Ledger name is already in use")
		}
		if l.Code != "" && NamesMatch(other.Code, l.Code) {
			return NewValidationError("Ledger code is already in use")
		}
	}
	if l.OpeningBalance.Amount.IsNegative() {
		return NewValidationError("Opening Balance cannot be less than 0.00")
	}
	if !l.OpeningBalance.Polarity.IsValid() {
		return NewValidationError("Opening Balance type must be DEBIT or CREDIT")
	}
	if ExceedsPlaces(l.OpeningBalance.Amount, places) {
		return NewValidationError(fmt.Sprintf("Opening Balance cannot have more than %d decimal places", places))
	}
	if l.Type != LedgerUnrestricted && l.Type != LedgerBankOrCash {
		return NewValidationError(fmt.Sprintf("unknown ledger type %q", l.Type))
	}
	return nil
}

// ValidateGroup checks a group about to be saved. existing may include g itself.
func ValidateGroup(g Group, existing []Group) error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return NewValidationError("Group name is required")
	}
	if len(name) > MaxNameLength {
		return NewValidationError(fmt.Sprintf("Group name exceeds %d characters", MaxNameLength))
	}
	if g.ParentID == NoParent {
		if !g.System {
			return NewValidationError("Parent Group is not set")
		}
	} else {
		if !ValidParent(existing, g.ID, g.ParentID) {
			return NewValidationError("Parent Group is Invalid, parent group can not be a sub group of the current group")
		}
		if _, ok := FindGroup(existing, g.ParentID); !ok {
			return WrapValidation("Parent Group does not exist", ErrGroupNotFound)
		}
	}
	for _, other := range existing {
		if other.ID == g.ID {
			continue
		}
		if NamesMatch(other.Name, name) {
			return NewValidationError("Group name is already in use")
		}
		if g.Code != "" && NamesMatch(other.Code, g.Code) {
			return NewValidationError("Group code is already in use")
		}
	}
	return nil
}

// ValidParent reports whether parentID can parent groupID: it must not be
// the group itself nor one of its descendants. A new group (id 0) accepts
// any parent.
func ValidParent(groups []Group, groupID, parentID int64) bool {
	if groupID == 0 {
		return true
	}
	if parentID == groupID {
		return false
	}
	parents := make(map[int64]int64, len(groups))
	for _, g := range groups {
		parents[g.ID] = g.ParentID
	}
	seen := make(map[int64]bool)
	for cur := parentID; cur != NoParent && !seen[cur]; cur = parents[cur] {
		if cur == groupID {
			return false
		}
		seen[cur] = true
	}
	return true
}

// InheritAffectsGross copies the parent's affectsGross flag onto g.
func InheritAffectsGross(g *Group, groups []Group) {
	if parent, ok := FindGroup(groups, g.ParentID); ok {
		g.AffectsGross = parent.AffectsGross
	}
}

// ValidateEntry checks that an entry is postable at the given precision.
func ValidateEntry(e Entry, a Arithmetic) error {
	if len(e.Items) < 2 {
		return NewValidationError("Entry must have at least two items")
	}
	for _, item := range e.Items {
		if item.LedgerID == 0 {
			return NewValidationError(fmt.Sprintf("Entry item %q has no ledger", item.LedgerName))
		}
		if err := ValidateAmount(item.Amount, a.Places); err != nil {
			return err
		}
		if !item.Polarity.IsValid() {
			return NewValidationError(fmt.Sprintf("Entry item %q has invalid type %q", item.LedgerName, item.Polarity))
		}
		if item.Date.IsZero() {
			return NewValidationError(fmt.Sprintf("Entry item %q has invalid date", item.LedgerName))
		}
	}
	if !e.Balances(a) {
		return NewValidationError(fmt.Sprintf("Entry is not balanced: debit %s, credit %s",
			e.DebitTotal(a).StringFixed(a.Places), e.CreditTotal(a).StringFixed(a.Places)))
	}
	return nil
}

// ValidateAmount rejects negative amounts and amounts finer than places.
func ValidateAmount(amount decimal.Decimal, places int32) error {
	if amount.IsNegative() {
		return NewValidationError(fmt.Sprintf("amount %s cannot be negative", amount))
	}
	if ExceedsPlaces(amount, places) {
		return NewValidationError(fmt.Sprintf("amount %s exceeds %d decimal places", amount, places))
	}
	return nil
}

// ValidateAccount checks a new account's label and settings.
func ValidateAccount(acc Account) error {
	label := strings.TrimSpace(acc.Label)
	if label == "" {
		return NewValidationError("Account label is required")
	}
	if len(label) > MaxLabelLength {
		return NewValidationError(fmt.Sprintf("Account label exceeds %d characters", MaxLabelLength))
	}
	if strings.TrimSpace(acc.Settings.BranchName) == "" {
		return NewValidationError("Branch name is required")
	}
	if acc.Settings.DecimalPlaces < 0 || acc.Settings.DecimalPlaces > MaxDecimalPlaces {
		return NewValidationError(fmt.Sprintf("Decimal places must be between 0 and %d", MaxDecimalPlaces))
	}
	return nil
}
