package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
)

const allLedgers = `
SELECT id, factory_id, parent_id, parent_name, name, code, reference_no, ledger_type,
       opening_polarity, opening_amount, system, base, hidden
FROM ledgers WHERE factory_id = $1 ORDER BY id`

const upsertLedger = `
INSERT INTO ledgers (factory_id, id, parent_id, parent_name, name, code, reference_no, ledger_type,
                     opening_polarity, opening_amount, system, base, hidden)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (factory_id, id) DO UPDATE SET
    parent_id = EXCLUDED.parent_id,
    parent_name = EXCLUDED.parent_name,
    name = EXCLUDED.name,
    code = EXCLUDED.code,
    reference_no = EXCLUDED.reference_no,
    ledger_type = EXCLUDED.ledger_type,
    opening_polarity = EXCLUDED.opening_polarity,
    opening_amount = EXCLUDED.opening_amount,
    system = EXCLUDED.system,
    base = EXCLUDED.base,
    hidden = EXCLUDED.hidden`

const deleteLedger = `DELETE FROM ledgers WHERE factory_id = $1 AND id = $2`

// LedgerRepository implements usecase.LedgerStore.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// AllLedgers returns the ledgers of an account ordered by id.
func (r *LedgerRepository) AllLedgers(ctx context.Context, factoryID string) ([]domain.Ledger, error) {
	rows, err := r.db.Query(ctx, allLedgers, factoryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Ledger, error) {
		var (
			l          domain.Ledger
			ledgerType string
			polarity   string
			amount     pgtype.Numeric
		)
		err := row.Scan(&l.ID, &l.FactoryID, &l.ParentID, &l.ParentName, &l.Name, &l.Code,
			&l.ReferenceNo, &ledgerType, &polarity, &amount, &l.System, &l.Base, &l.Hidden)
		if err != nil {
			return l, err
		}
		l.Type = domain.LedgerType(ledgerType)
		l.OpeningBalance = domain.Balance{Polarity: domain.Polarity(polarity), Amount: numericToDecimal(amount)}
		return l, nil
	})
}

// SaveLedger inserts or replaces a ledger.
func (r *LedgerRepository) SaveLedger(ctx context.Context, tx usecase.Transaction, l *domain.Ledger) error {
	polarity := l.OpeningBalance.Polarity
	if !polarity.IsValid() {
		polarity = domain.Debit
	}
	ledgerType := l.Type
	if ledgerType == "" {
		ledgerType = domain.LedgerUnrestricted
	}
	_, err := conn(r.db, tx).Exec(ctx, upsertLedger,
		l.FactoryID, l.ID, l.ParentID, l.ParentName, l.Name, l.Code, l.ReferenceNo, string(ledgerType),
		string(polarity), decimalToNumeric(l.OpeningBalance.Amount), l.System, l.Base, l.Hidden,
	)
	return err
}

// DeleteLedger removes a ledger. Removing a missing ledger is not an error.
func (r *LedgerRepository) DeleteLedger(ctx context.Context, tx usecase.Transaction, factoryID string, id int64) error {
	_, err := conn(r.db, tx).Exec(ctx, deleteLedger, factoryID, id)
	return err
}
