package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
)

const allEntryTypes = `SELECT id, factory_id, name, system FROM entry_types WHERE factory_id = $1 ORDER BY id`

const allTags = `SELECT id, factory_id, title FROM tags WHERE factory_id = $1 ORDER BY id`

const upsertEntryType = `
INSERT INTO entry_types (factory_id, id, name, system) VALUES ($1, $2, $3, $4)
ON CONFLICT (factory_id, id) DO UPDATE SET name = EXCLUDED.name, system = EXCLUDED.system`

const upsertTag = `
INSERT INTO tags (factory_id, id, title) VALUES ($1, $2, $3)
ON CONFLICT (factory_id, id) DO UPDATE SET title = EXCLUDED.title`

// CatalogRepository implements usecase.CatalogStore.
type CatalogRepository struct {
	db DBTX
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// AllEntryTypes returns the entry types of an account ordered by id.
func (r *CatalogRepository) AllEntryTypes(ctx context.Context, factoryID string) ([]domain.EntryType, error) {
	rows, err := r.db.Query(ctx, allEntryTypes, factoryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.EntryType, error) {
		var t domain.EntryType
		err := row.Scan(&t.ID, &t.FactoryID, &t.Name, &t.System)
		return t, err
	})
}

// AllTags returns the tags of an account ordered by id.
func (r *CatalogRepository) AllTags(ctx context.Context, factoryID string) ([]domain.Tag, error) {
	rows, err := r.db.Query(ctx, allTags, factoryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Tag, error) {
		var t domain.Tag
		err := row.Scan(&t.ID, &t.FactoryID, &t.Title)
		return t, err
	})
}

// SaveEntryType inserts or replaces an entry type.
func (r *CatalogRepository) SaveEntryType(ctx context.Context, tx usecase.Transaction, t *domain.EntryType) error {
	_, err := conn(r.db, tx).Exec(ctx, upsertEntryType, t.FactoryID, t.ID, t.Name, t.System)
	return err
}

// SaveTag inserts or replaces a tag.
func (r *CatalogRepository) SaveTag(ctx context.Context, tx usecase.Transaction, t *domain.Tag) error {
	_, err := conn(r.db, tx).Exec(ctx, upsertTag, t.FactoryID, t.ID, t.Title)
	return err
}
