package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntriesByLedger keeps entries with at least one item posting to ledgerID.
func EntriesByLedger(entries []Entry, ledgerID int64) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.HasLedger(ledgerID) {
			out = append(out, e)
		}
	}
	return out
}

// EntriesUpToDate keeps entries dated before cutoff, or on it when inclusive.
func EntriesUpToDate(entries []Entry, cutoff time.Time, inclusive bool) []Entry {
	var out []Entry
	for _, e := range entries {
		d := e.Date()
		if d.Before(cutoff) || (inclusive && d.Equal(cutoff)) {
			out = append(out, e)
		}
	}
	return out
}

// EntriesByDateRange keeps entries dated within [start, end]. A nil bound is open.
func EntriesByDateRange(entries []Entry, start, end *time.Time) []Entry {
	if start == nil && end == nil {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if InRange(e.Date(), start, end) {
			out = append(out, e)
		}
	}
	return out
}

// InRange reports whether d lies within the inclusive, possibly open, range.
func InRange(d time.Time, start, end *time.Time) bool {
	if start != nil && d.Before(*start) {
		return false
	}
	if end != nil && d.After(*end) {
		return false
	}
	return true
}

// EntriesByOptions applies the ledger, period, type, tag and text filters.
// Zero-valued options do not filter.
func EntriesByOptions(entries []Entry, opts EntryOptions) []Entry {
	var out []Entry
	for _, e := range entries {
		if opts.LedgerID != 0 && !e.HasLedger(opts.LedgerID) {
			continue
		}
		if !InRange(e.Date(), opts.StartDate, opts.EndDate) {
			continue
		}
		if opts.TypeID != 0 && e.Type.ID != opts.TypeID {
			continue
		}
		if opts.TagID != 0 && e.Tag.ID != opts.TagID {
			continue
		}
		if !e.MatchesText(opts.Text) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ComputeTotals sums the debit and credit items posting to ledgerID.
func ComputeTotals(a Arithmetic, entries []Entry, ledgerID int64) Totals {
	totals := Totals{DrTotal: a.Round(decimal.Zero), CrTotal: a.Round(decimal.Zero)}
	for _, e := range entries {
		for _, item := range e.Items {
			if item.LedgerID != ledgerID {
				continue
			}
			if item.Polarity == Credit {
				totals.CrTotal = a.Add(totals.CrTotal, item.Amount)
			} else {
				totals.DrTotal = a.Add(totals.DrTotal, item.Amount)
			}
		}
	}
	return totals
}
