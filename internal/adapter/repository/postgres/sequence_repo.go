package postgres

import (
	"context"
	"fmt"

	"github.com/iho/branchledger/internal/usecase"
)

const reserveSequence = `
INSERT INTO sequences (factory_id, kind, last_id) VALUES ($1, $2, $3)
ON CONFLICT (factory_id, kind) DO UPDATE SET last_id = sequences.last_id + EXCLUDED.last_id
RETURNING last_id`

// SequenceRepository implements usecase.SequenceAllocator on the sequences
// table. The row lock taken by the upsert serializes concurrent allocations
// for the same account and kind.
type SequenceRepository struct {
	db DBTX
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(db DBTX) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next allocates one id.
func (r *SequenceRepository) Next(ctx context.Context, tx usecase.Transaction, factoryID string, kind usecase.SequenceKind) (int64, error) {
	return r.Reserve(ctx, tx, factoryID, kind, 1)
}

// Reserve allocates n consecutive ids and returns the first.
func (r *SequenceRepository) Reserve(ctx context.Context, tx usecase.Transaction, factoryID string, kind usecase.SequenceKind, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve %d %s ids: count must be positive", n, kind)
	}
	var last int64
	if err := conn(r.db, tx).QueryRow(ctx, reserveSequence, factoryID, string(kind), int64(n)).Scan(&last); err != nil {
		return 0, fmt.Errorf("reserve %s ids: %w", kind, err)
	}
	return last - int64(n) + 1, nil
}
