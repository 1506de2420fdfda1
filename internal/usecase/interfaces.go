package usecase

import (
	"context"
	"time"

	"github.com/iho/branchledger/internal/domain"
)

// AccountRepository defines data access for branch accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByLabel(ctx context.Context, label string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	ListActive(ctx context.Context) ([]domain.Account, error)
	SetLocked(ctx context.Context, id string, locked bool, updatedAt time.Time) error
}

// LedgerStore defines data access for the ledgers of one account.
type LedgerStore interface {
	AllLedgers(ctx context.Context, factoryID string) ([]domain.Ledger, error)
	SaveLedger(ctx context.Context, tx Transaction, ledger *domain.Ledger) error
	DeleteLedger(ctx context.Context, tx Transaction, factoryID string, id int64) error
}

// GroupStore defines data access for the groups of one account.
type GroupStore interface {
	AllGroups(ctx context.Context, factoryID string) ([]domain.Group, error)
	SaveGroup(ctx context.Context, tx Transaction, group *domain.Group) error
	DeleteGroup(ctx context.Context, tx Transaction, factoryID string, id int64) error
}

// EntryStore defines data access for journal entries.
type EntryStore interface {
	// AllEntries returns the account's entries matching opts.
	AllEntries(ctx context.Context, factoryID string, opts domain.EntryOptions) ([]domain.Entry, error)
	GetEntry(ctx context.Context, factoryID string, id int64) (*domain.Entry, error)
	// SaveEntries inserts or replaces entries by (factory id, id).
	SaveEntries(ctx context.Context, tx Transaction, entries []domain.Entry) error
	DeleteEntry(ctx context.Context, tx Transaction, factoryID string, id int64) error
}

// CatalogStore defines data access for entry types and tags.
type CatalogStore interface {
	AllEntryTypes(ctx context.Context, factoryID string) ([]domain.EntryType, error)
	AllTags(ctx context.Context, factoryID string) ([]domain.Tag, error)
	SaveEntryType(ctx context.Context, tx Transaction, entryType *domain.EntryType) error
	SaveTag(ctx context.Context, tx Transaction, tag *domain.Tag) error
}

// SequenceKind names an id space within an account.
type SequenceKind string

const (
	SequenceLedger    SequenceKind = "ledger"
	SequenceGroup     SequenceKind = "group"
	SequenceEntry     SequenceKind = "entry"
	SequenceEntryType SequenceKind = "entry_type"
	SequenceTag       SequenceKind = "tag"
)

// SequenceAllocator hands out per-account integer ids atomically.
type SequenceAllocator interface {
	Next(ctx context.Context, tx Transaction, factoryID string, kind SequenceKind) (int64, error)
	// Reserve allocates n consecutive ids and returns the first one.
	Reserve(ctx context.Context, tx Transaction, factoryID string, kind SequenceKind, n int) (int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier reruns an operation on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ChartCache stores serialized charts per account under a generation.
// Invalidate moves the account to a new generation, so charts read and
// stored under an older one are never served again.
type ChartCache interface {
	Generation(ctx context.Context, factoryID string) (int64, error)
	Get(ctx context.Context, factoryID string, generation int64, key string) ([]byte, bool, error)
	Set(ctx context.Context, factoryID string, generation int64, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, factoryID string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim so the request can be retried.
	Release(ctx context.Context, key string) error
}

// Observer receives instrumentation events from the use cases.
type Observer interface {
	ChartBuilt(scope string, d time.Duration, cached bool)
	EntriesImported(rows, entries, synthesized int)
	ImportRejected(reason string)
	EntriesSaved(n int)
	AccountCreated()
}
