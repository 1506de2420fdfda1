package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestArithmetic_AddSubtractRound(t *testing.T) {
	a := NewArithmetic(2)

	if got := a.Add(dec("0.1"), dec("0.2")); !got.Equal(dec("0.3")) {
		t.Fatalf("expected 0.3, got %s", got)
	}
	if got := a.Add(dec("1.005"), dec("0")); !got.Equal(dec("1.01")) {
		t.Fatalf("expected half away from zero rounding to 1.01, got %s", got)
	}
	if got := a.Subtract(dec("10"), dec("10.004")); !got.Equal(dec("0")) {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestArithmetic_Compare(t *testing.T) {
	a := NewArithmetic(2)
	tests := []struct {
		x, y string
		op   Operator
		want bool
	}{
		{"1.001", "1.00", OpEQ, true},
		{"1.01", "1.00", OpGT, true},
		{"1.00", "1.01", OpLT, true},
		{"1.00", "1.00", OpGTE, true},
		{"1.00", "1.00", OpLTE, true},
		{"1.00", "2.00", OpNE, true},
		{"1.00", "2.00", Operator("??"), false},
	}
	for _, tt := range tests {
		t.Run(tt.x+string(tt.op)+tt.y, func(t *testing.T) {
			if got := a.Compare(dec(tt.x), dec(tt.y), tt.op); got != tt.want {
				t.Errorf("Compare(%s %s %s) = %v, want %v", tt.x, tt.op, tt.y, got, tt.want)
			}
		})
	}
}

func TestArithmetic_MergePolarized(t *testing.T) {
	a := NewArithmetic(2)
	tests := []struct {
		name string
		x, y Balance
		want Balance
	}{
		{
			name: "debit outweighs credit",
			x:    Balance{Debit, dec("100")},
			y:    Balance{Credit, dec("40")},
			want: Balance{Debit, dec("60")},
		},
		{
			name: "credit outweighs debit",
			x:    Balance{Debit, dec("40")},
			y:    Balance{Credit, dec("100")},
			want: Balance{Credit, dec("60")},
		},
		{
			name: "same side adds up",
			x:    Balance{Credit, dec("1.25")},
			y:    Balance{Credit, dec("2.50")},
			want: Balance{Credit, dec("3.75")},
		},
		{
			name: "equal same side credit keeps credit",
			x:    Balance{Credit, dec("0")},
			y:    Balance{Credit, dec("0")},
			want: Balance{Credit, dec("0")},
		},
		{
			name: "opposite sides cancel to debit zero",
			x:    Balance{Credit, dec("5")},
			y:    Balance{Debit, dec("5")},
			want: Balance{Debit, dec("0")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.MergePolarized(tt.x, tt.y)
			if got.Polarity != tt.want.Polarity || !got.Amount.Equal(tt.want.Amount) {
				t.Fatalf("MergePolarized = %s %s, want %s %s", got.Polarity, got.Amount, tt.want.Polarity, tt.want.Amount)
			}
			swapped := a.MergePolarized(tt.y, tt.x)
			if swapped.Polarity != got.Polarity || !swapped.Amount.Equal(got.Amount) {
				t.Fatalf("merge is not commutative: %v vs %v", got, swapped)
			}
			if got.Amount.IsNegative() {
				t.Fatalf("amount must never be negative, got %s", got.Amount)
			}
		})
	}
}

func TestArithmetic_SumIsAssociative(t *testing.T) {
	a := NewArithmetic(2)
	x := Balance{Debit, dec("12.34")}
	y := Balance{Credit, dec("50")}
	z := Balance{Debit, dec("7.66")}

	left := a.MergePolarized(a.MergePolarized(x, y), z)
	right := a.MergePolarized(x, a.MergePolarized(y, z))
	if left.Polarity != right.Polarity || !left.Amount.Equal(right.Amount) {
		t.Fatalf("(x+y)+z = %v, x+(y+z) = %v", left, right)
	}
	if sum := a.Sum(Debit, x, y, z); sum.Polarity != Credit || !sum.Amount.Equal(dec("30")) {
		t.Fatalf("Sum = %v, want CREDIT 30", sum)
	}
}

func TestParsePolarity(t *testing.T) {
	for in, want := range map[string]Polarity{"debit": Debit, " DR ": Debit, "Credit": Credit, "cr": Credit} {
		got, err := ParsePolarity(in)
		if err != nil || got != want {
			t.Errorf("ParsePolarity(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolarity("sideways"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExceedsPlaces(t *testing.T) {
	if ExceedsPlaces(dec("1.10"), 1) {
		t.Error("1.10 fits one decimal place")
	}
	if !ExceedsPlaces(dec("1.123"), 2) {
		t.Error("1.123 does not fit two decimal places")
	}
}
