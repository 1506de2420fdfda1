package accounting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iho/branchledger/internal/domain"
	"github.com/shopspring/decimal"
)

// DatePolicy decides how rows sharing an entry number but carrying
// different dates are treated.
type DatePolicy string

const (
	// DatePolicyFirstRow dates the whole entry with its first row's date.
	DatePolicyFirstRow DatePolicy = "first_row"
	// DatePolicyReject fails the import when dates disagree.
	DatePolicyReject DatePolicy = "reject"
)

// ParseDatePolicy maps a config value to a DatePolicy.
func ParseDatePolicy(s string) (DatePolicy, error) {
	switch DatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DatePolicyFirstRow:
		return DatePolicyFirstRow, nil
	case DatePolicyReject:
		return DatePolicyReject, nil
	}
	return "", fmt.Errorf("unknown import date policy %q", s)
}

// ImportRow is one flat line of an external entry listing.
type ImportRow struct {
	EntryNumber string
	Date        *time.Time
	LedgerName  string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Narration   string
	EntryType   string
	Tag         string
}

// ImportRequest carries the rows plus the lookups they resolve against.
type ImportRequest struct {
	FactoryID           string
	DestinationLedgerID int64
	Rows                []ImportRow
	Ledgers             []domain.Ledger
	EntryTypes          []domain.EntryType
	Tags                []domain.Tag
	Places              int32
	DatePolicy          DatePolicy
}

// ImportResult lists the normalized entries in emission order.
type ImportResult struct {
	Entries []domain.Entry
	// SynthesizedItems counts balancing items posted to the destination ledger.
	SynthesizedItems int
}

type importGroup struct {
	entryNumber string
	rows        []int
}

// NormalizeImport turns flat rows into entries. Rows sharing an entry
// number form one entry; rows without a number are grouped by date. An
// entry that does not balance and has no item on the destination ledger
// gets one extra item there for the difference. Entry-number groups are
// emitted before date groups, each in order of first appearance.
func NormalizeImport(req ImportRequest) (ImportResult, error) {
	dest, ok := domain.FindLedger(req.Ledgers, req.DestinationLedgerID)
	if !ok {
		return ImportResult{}, domain.NewNotFoundError("Destination Ledger",
			strconv.FormatInt(req.DestinationLedgerID, 10), domain.ErrLedgerNotFound)
	}
	arith := domain.NewArithmetic(req.Places)

	items := make([]domain.EntryItem, len(req.Rows))
	var byNumber, byDate []*importGroup
	numberIdx := make(map[string]*importGroup)
	dateIdx := make(map[int64]*importGroup)

	for i, row := range req.Rows {
		item, err := rowItem(row, req.Ledgers, req.Places)
		if err != nil {
			return ImportResult{}, err
		}
		items[i] = item

		if item.EntryNumber != "" {
			g, ok := numberIdx[item.EntryNumber]
			if !ok {
				g = &importGroup{entryNumber: item.EntryNumber}
				numberIdx[item.EntryNumber] = g
				byNumber = append(byNumber, g)
			}
			g.rows = append(g.rows, i)
			continue
		}
		key := row.Date.UTC().UnixNano()
		g, ok := dateIdx[key]
		if !ok {
			g = &importGroup{}
			dateIdx[key] = g
			byDate = append(byDate, g)
		}
		g.rows = append(g.rows, i)
	}

	result := ImportResult{Entries: make([]domain.Entry, 0, len(byNumber)+len(byDate))}
	for _, g := range append(byNumber, byDate...) {
		entry, synthesized, err := buildImportedEntry(req, arith, dest, g, items)
		if err != nil {
			return ImportResult{}, err
		}
		if synthesized {
			result.SynthesizedItems++
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func rowItem(row ImportRow, ledgers []domain.Ledger, places int32) (domain.EntryItem, error) {
	number := strings.TrimSpace(row.EntryNumber)
	if number == "" && row.Date == nil {
		return domain.EntryItem{}, domain.NewValidationError(fmt.Sprintf(
			"Entry %s %s must provide either date or entry number", rowAmount(row), row.Narration))
	}
	if row.Debit.IsNegative() || row.Credit.IsNegative() {
		return domain.EntryItem{}, domain.NewValidationError(fmt.Sprintf(
			"Entry %s %s has a negative amount", rowAmount(row), row.Narration))
	}

	item := domain.EntryItem{
		LedgerName:  strings.TrimSpace(row.LedgerName),
		Polarity:    domain.Debit,
		Amount:      row.Debit,
		EntryNumber: number,
	}
	if row.Credit.IsPositive() {
		item.Polarity = domain.Credit
		item.Amount = row.Credit
	}
	if err := domain.ValidateAmount(item.Amount, places); err != nil {
		return domain.EntryItem{}, err
	}
	if row.Date != nil {
		item.Date = *row.Date
	}
	if ledger, ok := domain.FindLedgerByName(ledgers, item.LedgerName); ok {
		item.LedgerID = ledger.ID
		item.LedgerName = ledger.Name
		item.LedgerType = ledger.Type
	}
	return item, nil
}

func rowAmount(row ImportRow) string {
	if row.Credit.IsPositive() {
		return row.Credit.String()
	}
	return row.Debit.String()
}

func buildImportedEntry(req ImportRequest, arith domain.Arithmetic, dest domain.Ledger, g *importGroup, items []domain.EntryItem) (domain.Entry, bool, error) {
	first := req.Rows[g.rows[0]]
	date, err := groupDate(req, g)
	if err != nil {
		return domain.Entry{}, false, err
	}

	entry := domain.Entry{
		FactoryID: req.FactoryID,
		Narration: strings.TrimSpace(first.Narration),
		Type:      resolveEntryType(req.EntryTypes, first.EntryType),
		Tag:       resolveTag(req.Tags, first.Tag),
		Items:     make([]domain.EntryItem, 0, len(g.rows)+1),
	}
	hasDestination := false
	for _, i := range g.rows {
		item := items[i]
		item.Date = date
		if item.LedgerID == dest.ID || domain.NamesMatch(item.LedgerName, dest.Name) {
			hasDestination = true
		}
		entry.Items = append(entry.Items, item)
	}

	if hasDestination || entry.Balances(arith) {
		return entry, false, nil
	}
	dr, cr := entry.DebitTotal(arith), entry.CreditTotal(arith)
	balancing := domain.EntryItem{
		LedgerID:    dest.ID,
		LedgerName:  dest.Name,
		LedgerType:  dest.Type,
		Polarity:    domain.Credit,
		Amount:      arith.Subtract(dr, cr),
		EntryNumber: g.entryNumber,
		Date:        date,
	}
	if cr.GreaterThan(dr) {
		balancing.Polarity = domain.Debit
		balancing.Amount = arith.Subtract(cr, dr)
	}
	entry.Items = append(entry.Items, balancing)
	return entry, true, nil
}

// groupDate picks the date of an entry-number group from its first dated
// row and applies the date policy. Date groups share one date by construction.
// A group with no dated row gets the zero date.
func groupDate(req ImportRequest, g *importGroup) (time.Time, error) {
	var date *time.Time
	for _, i := range g.rows {
		row := req.Rows[i]
		if row.Date == nil {
			continue
		}
		if date == nil {
			date = row.Date
			continue
		}
		if req.DatePolicy == DatePolicyReject && !row.Date.Equal(*date) {
			return time.Time{}, domain.NewValidationError(fmt.Sprintf(
				"Entry number %s has rows with different dates", g.entryNumber))
		}
	}
	if date == nil {
		return time.Time{}, nil
	}
	return *date, nil
}

func resolveEntryType(types []domain.EntryType, name string) domain.EntryTypeRef {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultEntryType
	}
	for _, t := range types {
		if domain.NamesMatch(t.Name, name) {
			return domain.EntryTypeRef{ID: t.ID, Name: t.Name}
		}
	}
	return domain.EntryTypeRef{Name: name}
}

func resolveTag(tags []domain.Tag, title string) domain.TagRef {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.TagRef{}
	}
	for _, t := range tags {
		if domain.NamesMatch(t.Title, title) {
			return domain.TagRef{ID: t.ID, Title: t.Title}
		}
	}
	return domain.TagRef{Title: title}
}
