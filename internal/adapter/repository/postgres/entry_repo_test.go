package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/branchledger/internal/domain"
)

var entryCols = []string{"id", "factory_id", "narration", "type_id", "type_name", "tag_id", "tag_title", "system_generated", "items"}

func testEntry(id int64, narration string, day int) domain.Entry {
	date := time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
	return domain.Entry{
		ID:        id,
		FactoryID: "acc-1",
		Narration: narration,
		Type:      domain.EntryTypeRef{ID: 1, Name: "Journal"},
		Items: []domain.EntryItem{
			{LedgerID: 1, LedgerName: "Cash", LedgerType: domain.LedgerBankOrCash, Polarity: domain.Debit,
				Amount: decimal.RequireFromString("40.25"), EntryNumber: "J-1", Date: date},
			{LedgerID: 5, LedgerName: "Sales", LedgerType: domain.LedgerUnrestricted, Polarity: domain.Credit,
				Amount: decimal.RequireFromString("40.25"), Date: date, Reconciled: true},
		},
	}
}

func TestEntryItemsRoundTrip(t *testing.T) {
	e := testEntry(1, "sale", 3)

	raw, err := encodeItems(e.Items)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount":40.25`)

	items, err := decodeItems(raw)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for i := range items {
		assert.True(t, e.Items[i].Amount.Equal(items[i].Amount))
		assert.Equal(t, e.Items[i].Polarity, items[i].Polarity)
		assert.True(t, e.Items[i].Date.Equal(items[i].Date))
	}
	assert.Equal(t, "J-1", items[0].EntryNumber)
	assert.True(t, items[1].Reconciled)
}

func TestDecodeItemsBadAmount(t *testing.T) {
	_, err := decodeItems([]byte(`[{"ledgerId":1,"type":"DEBIT","amount":"abc"}]`))
	assert.Error(t, err)
}

func TestLedgerIDsDeduplicates(t *testing.T) {
	items := []domain.EntryItem{{LedgerID: 3}, {LedgerID: 1}, {LedgerID: 3}}
	assert.Equal(t, []int64{3, 1}, ledgerIDs(items))
}

func TestEntryRepository_SaveEntries(t *testing.T) {
	pool := newMockPool(t)
	first, second := testEntry(1, "sale", 3), testEntry(2, "refund", 4)

	pool.ExpectBegin()
	for _, e := range []domain.Entry{first, second} {
		pool.ExpectExec("INSERT INTO entries").
			WithArgs("acc-1", e.ID, timeToPgTimestamptz(e.Date()), e.Narration, int64(1), "Journal",
				int64(0), "", false, []int64{1, 5}, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	pool.ExpectCommit()

	ctx := context.Background()
	tx, err := newTxManager(pool).Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, NewEntryRepository(pool).SaveEntries(ctx, tx, []domain.Entry{first, second}))
	require.NoError(t, tx.Commit(ctx))
	assertExpectations(t, pool)
}

func TestEntryRepository_AllEntriesFiltersText(t *testing.T) {
	pool := newMockPool(t)
	sale, refund := testEntry(1, "sale", 3), testEntry(2, "refund", 4)
	saleItems, err := encodeItems(sale.Items)
	require.NoError(t, err)
	refundItems, err := encodeItems(refund.Items)
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pool.ExpectQuery("FROM entries").
		WithArgs("acc-1", int64(5), timeToPgTimestamptz(start), optionalTimestamptz(nil)).
		WillReturnRows(pgxmock.NewRows(entryCols).
			AddRow(int64(1), "acc-1", "sale", int64(1), "Journal", int64(0), "", false, saleItems).
			AddRow(int64(2), "acc-1", "refund", int64(1), "Journal", int64(0), "", false, refundItems))

	entries, err := NewEntryRepository(pool).AllEntries(context.Background(), "acc-1", domain.EntryOptions{
		LedgerID:  5,
		StartDate: &start,
		Text:      "REFUND",
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ID)
	assert.Equal(t, "Sales", entries[0].Items[1].LedgerName)
	assertExpectations(t, pool)
}

func TestEntryRepository_GetEntry(t *testing.T) {
	pool := newMockPool(t)
	items, err := encodeItems(testEntry(1, "sale", 3).Items)
	require.NoError(t, err)

	pool.ExpectQuery("FROM entries WHERE").WithArgs("acc-1", int64(1)).
		WillReturnRows(pgxmock.NewRows(entryCols).
			AddRow(int64(1), "acc-1", "sale", int64(1), "Journal", int64(2), "Audit", true, items))
	pool.ExpectQuery("FROM entries WHERE").WithArgs("acc-1", int64(9)).WillReturnError(pgx.ErrNoRows)

	repo := NewEntryRepository(pool)

	e, err := repo.GetEntry(context.Background(), "acc-1", 1)
	require.NoError(t, err)
	assert.True(t, e.SystemGenerated)
	assert.Equal(t, domain.TagRef{ID: 2, Title: "Audit"}, e.Tag)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), e.Date().UTC())

	_, err = repo.GetEntry(context.Background(), "acc-1", 9)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestEntryRepository_DeleteEntry(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectExec("DELETE FROM entries").WithArgs("acc-1", int64(4)).WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, NewEntryRepository(pool).DeleteEntry(context.Background(), nil, "acc-1", 4))
	assertExpectations(t, pool)
}
