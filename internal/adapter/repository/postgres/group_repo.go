package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
)

const allGroups = `
SELECT id, factory_id, parent_id, parent_name, name, code, affects_gross, system, base
FROM account_groups WHERE factory_id = $1 ORDER BY id`

const upsertGroup = `
INSERT INTO account_groups (factory_id, id, parent_id, parent_name, name, code, affects_gross, system, base)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (factory_id, id) DO UPDATE SET
    parent_id = EXCLUDED.parent_id,
    parent_name = EXCLUDED.parent_name,
    name = EXCLUDED.name,
    code = EXCLUDED.code,
    affects_gross = EXCLUDED.affects_gross,
    system = EXCLUDED.system,
    base = EXCLUDED.base`

const deleteGroup = `DELETE FROM account_groups WHERE factory_id = $1 AND id = $2`

// GroupRepository implements usecase.GroupStore.
type GroupRepository struct {
	db DBTX
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(db DBTX) *GroupRepository {
	return &GroupRepository{db: db}
}

// AllGroups returns the groups of an account ordered by id.
func (r *GroupRepository) AllGroups(ctx context.Context, factoryID string) ([]domain.Group, error) {
	rows, err := r.db.Query(ctx, allGroups, factoryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Group, error) {
		var g domain.Group
		err := row.Scan(&g.ID, &g.FactoryID, &g.ParentID, &g.ParentName, &g.Name, &g.Code,
			&g.AffectsGross, &g.System, &g.Base)
		return g, err
	})
}

// SaveGroup inserts or replaces a group.
func (r *GroupRepository) SaveGroup(ctx context.Context, tx usecase.Transaction, g *domain.Group) error {
	_, err := conn(r.db, tx).Exec(ctx, upsertGroup,
		g.FactoryID, g.ID, g.ParentID, g.ParentName, g.Name, g.Code, g.AffectsGross, g.System, g.Base)
	return err
}

// DeleteGroup removes a group.
func (r *GroupRepository) DeleteGroup(ctx context.Context, tx usecase.Transaction, factoryID string, id int64) error {
	_, err := conn(r.db, tx).Exec(ctx, deleteGroup, factoryID, id)
	return err
}
