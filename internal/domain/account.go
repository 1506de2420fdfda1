package domain

import (
	"fmt"
	"strings"
	"time"
)

// Account is one branch's set of books. Its ID is the factory id that
// scopes every ledger, group, entry, type and tag it owns.
type Account struct {
	ID        string
	Label     string
	Settings  AccountSettings
	Active    bool
	Locked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountSettings are per-account bookkeeping preferences.
type AccountSettings struct {
	BranchName    string
	DecimalPlaces int32
	Currency      string
}

// DefaultDecimalPlaces is used when an account does not configure precision.
const DefaultDecimalPlaces int32 = 2

// MaxDecimalPlaces bounds AccountSettings.DecimalPlaces.
const MaxDecimalPlaces int32 = 8

// Arithmetic returns the money arithmetic for this account's precision.
func (a *Account) Arithmetic() Arithmetic {
	return NewArithmetic(a.Places())
}

// Places returns the configured decimal places, falling back to the default.
func (a *Account) Places() int32 {
	if a.Settings.DecimalPlaces <= 0 {
		return DefaultDecimalPlaces
	}
	return a.Settings.DecimalPlaces
}

// EnsureWritable rejects writes to a locked account.
func (a *Account) EnsureWritable() error {
	if a.Locked {
		return fmt.Errorf("%w: %s", ErrAccountLocked, a.Label)
	}
	return nil
}

// PickBranchAccount returns the active account of the named branch.
// When branch is empty the first active account wins.
func PickBranchAccount(accounts []Account, branch string) (Account, bool) {
	for _, acc := range accounts {
		if !acc.Active {
			continue
		}
		if branch == "" || strings.EqualFold(acc.Settings.BranchName, branch) {
			return acc, true
		}
	}
	return Account{}, false
}
