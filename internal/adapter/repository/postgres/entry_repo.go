package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
)

const entryColumns = `id, factory_id, narration, type_id, type_name, tag_id, tag_title, system_generated, items`

// Ledger and period filters run in SQL; type, tag and text filters run on
// the decoded entries.
const allEntries = `
SELECT ` + entryColumns + `
FROM entries
WHERE factory_id = $1
  AND ($2::bigint = 0 OR $2::bigint = ANY(ledger_ids))
  AND ($3::timestamptz IS NULL OR entry_date >= $3)
  AND ($4::timestamptz IS NULL OR entry_date <= $4)
ORDER BY id`

const getEntry = `SELECT ` + entryColumns + ` FROM entries WHERE factory_id = $1 AND id = $2`

const upsertEntry = `
INSERT INTO entries (factory_id, id, entry_date, narration, type_id, type_name, tag_id, tag_title,
                     system_generated, ledger_ids, items)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (factory_id, id) DO UPDATE SET
    entry_date = EXCLUDED.entry_date,
    narration = EXCLUDED.narration,
    type_id = EXCLUDED.type_id,
    type_name = EXCLUDED.type_name,
    tag_id = EXCLUDED.tag_id,
    tag_title = EXCLUDED.tag_title,
    system_generated = EXCLUDED.system_generated,
    ledger_ids = EXCLUDED.ledger_ids,
    items = EXCLUDED.items`

const deleteEntry = `DELETE FROM entries WHERE factory_id = $1 AND id = $2`

// itemRecord is the JSONB shape of one entry item.
type itemRecord struct {
	LedgerID    int64       `json:"ledgerId"`
	LedgerName  string      `json:"ledgerName"`
	LedgerType  string      `json:"ledgerType,omitempty"`
	Polarity    string      `json:"type"`
	Amount      json.Number `json:"amount"`
	EntryNumber string      `json:"entryNumber,omitempty"`
	Date        time.Time   `json:"date"`
	Reconciled  bool        `json:"reconciled"`
}

// EntryRepository implements usecase.EntryStore.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// AllEntries returns the entries of an account matching opts ordered by id.
func (r *EntryRepository) AllEntries(ctx context.Context, factoryID string, opts domain.EntryOptions) ([]domain.Entry, error) {
	rows, err := r.db.Query(ctx, allEntries, factoryID, opts.LedgerID,
		optionalTimestamptz(opts.StartDate), optionalTimestamptz(opts.EndDate))
	if err != nil {
		return nil, err
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Entry, error) {
		return scanEntry(row)
	})
	if err != nil {
		return nil, err
	}
	return domain.EntriesByOptions(entries, opts), nil
}

// GetEntry retrieves one entry.
func (r *EntryRepository) GetEntry(ctx context.Context, factoryID string, id int64) (*domain.Entry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, getEntry, factoryID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("entry", fmt.Sprint(id), domain.ErrEntryNotFound)
		}
		return nil, err
	}
	return &entry, nil
}

// SaveEntries inserts or replaces entries.
func (r *EntryRepository) SaveEntries(ctx context.Context, tx usecase.Transaction, entries []domain.Entry) error {
	db := conn(r.db, tx)
	for i := range entries {
		e := &entries[i]
		items, err := encodeItems(e.Items)
		if err != nil {
			return fmt.Errorf("encode entry %d: %w", e.ID, err)
		}
		_, err = db.Exec(ctx, upsertEntry,
			e.FactoryID, e.ID, timeToPgTimestamptz(e.Date()), e.Narration,
			e.Type.ID, e.Type.Name, e.Tag.ID, e.Tag.Title,
			e.SystemGenerated, ledgerIDs(e.Items), items,
		)
		if err != nil {
			return fmt.Errorf("save entry %d: %w", e.ID, err)
		}
	}
	return nil
}

// DeleteEntry removes an entry.
func (r *EntryRepository) DeleteEntry(ctx context.Context, tx usecase.Transaction, factoryID string, id int64) error {
	_, err := conn(r.db, tx).Exec(ctx, deleteEntry, factoryID, id)
	return err
}

func scanEntry(row pgx.Row) (domain.Entry, error) {
	var (
		e     domain.Entry
		items []byte
	)
	err := row.Scan(&e.ID, &e.FactoryID, &e.Narration, &e.Type.ID, &e.Type.Name,
		&e.Tag.ID, &e.Tag.Title, &e.SystemGenerated, &items)
	if err != nil {
		return e, err
	}
	e.Items, err = decodeItems(items)
	if err != nil {
		return e, fmt.Errorf("decode entry %d: %w", e.ID, err)
	}
	return e, nil
}

func encodeItems(items []domain.EntryItem) ([]byte, error) {
	records := make([]itemRecord, len(items))
	for i, item := range items {
		records[i] = itemRecord{
			LedgerID:    item.LedgerID,
			LedgerName:  item.LedgerName,
			LedgerType:  string(item.LedgerType),
			Polarity:    string(item.Polarity),
			Amount:      json.Number(item.Amount.String()),
			EntryNumber: item.EntryNumber,
			Date:        item.Date.UTC(),
			Reconciled:  item.Reconciled,
		}
	}
	return json.Marshal(records)
}

func decodeItems(raw []byte) ([]domain.EntryItem, error) {
	var records []itemRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	items := make([]domain.EntryItem, len(records))
	for i, rec := range records {
		amount, err := decimal.NewFromString(rec.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("item %d amount %q: %w", i, rec.Amount, err)
		}
		items[i] = domain.EntryItem{
			LedgerID:    rec.LedgerID,
			LedgerName:  rec.LedgerName,
			LedgerType:  domain.LedgerType(rec.LedgerType),
			Polarity:    domain.Polarity(rec.Polarity),
			Amount:      amount,
			EntryNumber: rec.EntryNumber,
			Date:        rec.Date,
			Reconciled:  rec.Reconciled,
		}
	}
	return items, nil
}

func ledgerIDs(items []domain.EntryItem) []int64 {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if !seen[item.LedgerID] {
			seen[item.LedgerID] = true
			ids = append(ids, item.LedgerID)
		}
	}
	return ids
}
