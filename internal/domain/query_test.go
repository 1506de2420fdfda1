package domain

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func entryOn(id int64, d int, items ...EntryItem) Entry {
	for i := range items {
		items[i].Date = day(d)
	}
	return Entry{ID: id, FactoryID: "acc", Items: items, Type: EntryTypeRef{ID: 1, Name: "Journal"}}
}

func dr(ledger int64, amount string) EntryItem {
	return EntryItem{LedgerID: ledger, Polarity: Debit, Amount: dec(amount)}
}

func cr(ledger int64, amount string) EntryItem {
	return EntryItem{LedgerID: ledger, Polarity: Credit, Amount: dec(amount)}
}

func ids(entries []Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEntryQueries(t *testing.T) {
	entries := []Entry{
		entryOn(1, 1, dr(10, "100"), cr(20, "100")),
		entryOn(2, 5, dr(20, "30"), cr(30, "30")),
		entryOn(3, 10, dr(10, "7.5"), cr(30, "7.5")),
	}

	t.Run("by ledger", func(t *testing.T) {
		if got := ids(EntriesByLedger(entries, 10)); !equalIDs(got, []int64{1, 3}) {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("up to date exclusive", func(t *testing.T) {
		if got := ids(EntriesUpToDate(entries, day(5), false)); !equalIDs(got, []int64{1}) {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("up to date inclusive", func(t *testing.T) {
		if got := ids(EntriesUpToDate(entries, day(5), true)); !equalIDs(got, []int64{1, 2}) {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("date range inclusive on both ends", func(t *testing.T) {
		got := ids(EntriesByDateRange(entries, ptr(day(5)), ptr(day(10))))
		if !equalIDs(got, []int64{2, 3}) {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("open start", func(t *testing.T) {
		got := ids(EntriesByDateRange(entries, nil, ptr(day(5))))
		if !equalIDs(got, []int64{1, 2}) {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("options combine", func(t *testing.T) {
		got := ids(EntriesByOptions(entries, EntryOptions{LedgerID: 30, StartDate: ptr(day(6))}))
		if !equalIDs(got, []int64{3}) {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("totals per ledger", func(t *testing.T) {
		totals := ComputeTotals(NewArithmetic(2), entries, 10)
		if !totals.DrTotal.Equal(dec("107.5")) || !totals.CrTotal.IsZero() {
			t.Fatalf("got dr %s cr %s", totals.DrTotal, totals.CrTotal)
		}
	})
}

func TestEntry_MatchesText(t *testing.T) {
	e := Entry{Narration: "Office rent", Items: []EntryItem{{LedgerName: "Bank", EntryNumber: "JV-7"}}}
	for _, q := range []string{"", "rent", "BANK", "jv-7"} {
		if !e.MatchesText(q) {
			t.Errorf("expected %q to match", q)
		}
	}
	if e.MatchesText("salary") {
		t.Error("unexpected match for salary")
	}
}
