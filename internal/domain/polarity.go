package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Polarity is the side of a double-entry posting.
type Polarity string

const (
	Debit  Polarity = "DEBIT"
	Credit Polarity = "CREDIT"
)

// ParsePolarity accepts DEBIT/CREDIT in any case, plus the dr/cr shorthands.
func ParsePolarity(s string) (Polarity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBIT", "DR":
		return Debit, nil
	case "CREDIT", "CR":
		return Credit, nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid polarity %q", s))
}

// IsValid reports whether p is DEBIT or CREDIT.
func (p Polarity) IsValid() bool {
	return p == Debit || p == Credit
}

// Opposite returns the other side.
func (p Polarity) Opposite() Polarity {
	if p == Credit {
		return Debit
	}
	return Credit
}

// Balance is an amount together with the side it sits on.
type Balance struct {
	Polarity Polarity        `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
}

// ZeroBalance returns a zero amount on side p.
func ZeroBalance(p Polarity) Balance {
	return Balance{Polarity: p, Amount: decimal.Zero}
}

// Totals holds raw debit and credit sums.
type Totals struct {
	DrTotal decimal.Decimal `json:"drTotal"`
	CrTotal decimal.Decimal `json:"crTotal"`
}

// AccountResult is a computed balance plus the activity totals behind it.
// DrTotal and CrTotal exclude any opening balance.
type AccountResult struct {
	Polarity Polarity        `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	DrTotal  decimal.Decimal `json:"drTotal"`
	CrTotal  decimal.Decimal `json:"crTotal"`
}

// Balance drops the totals.
func (r AccountResult) Balance() Balance {
	return Balance{Polarity: r.Polarity, Amount: r.Amount}
}

// Operator is a comparison used by Arithmetic.Compare.
type Operator string

const (
	OpEQ  Operator = "=="
	OpNE  Operator = "!="
	OpGT  Operator = ">"
	OpGTE Operator = ">="
	OpLT  Operator = "<"
	OpLTE Operator = "<="
)

// Arithmetic does fixed-precision money math. Every result is rounded
// half away from zero to Places fractional digits.
type Arithmetic struct {
	Places int32
}

// NewArithmetic returns an Arithmetic for the given number of decimal places.
func NewArithmetic(places int32) Arithmetic {
	if places < 0 {
		places = 0
	}
	return Arithmetic{Places: places}
}

func (a Arithmetic) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(a.Places)
}

func (a Arithmetic) Add(x, y decimal.Decimal) decimal.Decimal {
	return x.Add(y).Round(a.Places)
}

func (a Arithmetic) Subtract(x, y decimal.Decimal) decimal.Decimal {
	return x.Sub(y).Round(a.Places)
}

// Compare rounds both operands before comparing them.
func (a Arithmetic) Compare(x, y decimal.Decimal, op Operator) bool {
	c := x.Round(a.Places).Cmp(y.Round(a.Places))
	switch op {
	case OpEQ:
		return c == 0
	case OpNE:
		return c != 0
	case OpGT:
		return c > 0
	case OpGTE:
		return c >= 0
	case OpLT:
		return c < 0
	case OpLTE:
		return c <= 0
	}
	return false
}

// Net nets a debit total against a credit total. When they are equal the
// result is zero on the tie side.
func (a Arithmetic) Net(drTotal, crTotal decimal.Decimal, tie Polarity) Balance {
	dr, cr := a.Round(drTotal), a.Round(crTotal)
	switch dr.Cmp(cr) {
	case 1:
		return Balance{Polarity: Debit, Amount: a.Subtract(dr, cr)}
	case -1:
		return Balance{Polarity: Credit, Amount: a.Subtract(cr, dr)}
	}
	return Balance{Polarity: tie, Amount: decimal.Zero.Round(a.Places)}
}

// MergePolarized adds two signed balances. Each operand lands on the debit
// or credit side according to its polarity and the sides are netted.
// Operands that cancel out keep their shared polarity, or DEBIT when they
// disagree, so the result does not depend on operand order.
func (a Arithmetic) MergePolarized(x, y Balance) Balance {
	dr, cr := decimal.Zero, decimal.Zero
	for _, b := range [2]Balance{x, y} {
		if b.Polarity == Credit {
			cr = a.Add(cr, b.Amount)
		} else {
			dr = a.Add(dr, b.Amount)
		}
	}
	tie := Debit
	if x.Polarity == y.Polarity && x.Polarity.IsValid() {
		tie = x.Polarity
	}
	return a.Net(dr, cr, tie)
}

// Sum folds MergePolarized over balances, starting from zero on side start.
func (a Arithmetic) Sum(start Polarity, balances ...Balance) Balance {
	acc := ZeroBalance(start)
	for _, b := range balances {
		acc = a.MergePolarized(acc, b)
	}
	return acc
}

// ExceedsPlaces reports whether d carries more fractional digits than places.
func ExceedsPlaces(d decimal.Decimal, places int32) bool {
	return !d.Equal(d.Truncate(places))
}
