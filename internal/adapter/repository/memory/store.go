// Package memory keeps accounts and their books in process memory. It backs
// the server when no database is configured and the use case tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
)

type scopedID struct {
	factoryID string
	id        int64
}

type sequenceKey struct {
	factoryID string
	kind      usecase.SequenceKind
}

// Store implements every repository interface of the use case layer.
// Writes made through a transaction become visible on Commit; sequence
// allocations apply immediately and are not returned on Rollback.
type Store struct {
	mu         sync.RWMutex
	accounts   map[string]*domain.Account
	ledgers    map[scopedID]domain.Ledger
	groups     map[scopedID]domain.Group
	entries    map[scopedID]domain.Entry
	entryTypes map[scopedID]domain.EntryType
	tags       map[scopedID]domain.Tag
	sequences  map[sequenceKey]int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*domain.Account),
		ledgers:    make(map[scopedID]domain.Ledger),
		groups:     make(map[scopedID]domain.Group),
		entries:    make(map[scopedID]domain.Entry),
		entryTypes: make(map[scopedID]domain.EntryType),
		tags:       make(map[scopedID]domain.Tag),
		sequences:  make(map[sequenceKey]int64),
	}
}

// Tx buffers writes until Commit.
type Tx struct {
	store *Store
	ops   []func()
	done  bool
}

// Begin starts a new transaction.
func (s *Store) Begin(_ context.Context) (usecase.Transaction, error) {
	return &Tx{store: s}, nil
}

// Commit applies the buffered writes atomically.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already closed")
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, op := range t.ops {
		op()
	}
	return nil
}

// Rollback discards the buffered writes. Rolling back a committed
// transaction is a no-op.
func (t *Tx) Rollback(_ context.Context) error {
	t.done = true
	t.ops = nil
	return nil
}

// write queues op on tx, or applies it now when tx is not a memory transaction.
func (s *Store) write(tx usecase.Transaction, op func()) error {
	if t, ok := tx.(*Tx); ok && t != nil {
		if t.done {
			return fmt.Errorf("transaction already closed")
		}
		t.ops = append(t.ops, op)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	op()
	return nil
}

// Create stores a new account.
func (s *Store) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	acc := *account
	return s.write(tx, func() { s.accounts[acc.ID] = &acc })
}

// GetByID retrieves an account by ID.
func (s *Store) GetByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.NewNotFoundError("account", id, domain.ErrAccountNotFound)
	}
	out := *acc
	return &out, nil
}

// GetByLabel retrieves an account by label, ignoring case.
func (s *Store) GetByLabel(_ context.Context, label string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.Label, label) {
			out := *acc
			return &out, nil
		}
	}
	return nil, domain.NewNotFoundError("account", label, domain.ErrAccountNotFound)
}

// List lists accounts ordered by creation time.
func (s *Store) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	all := s.sortedAccounts()
	if offset >= len(all) {
		return []*domain.Account{}, nil
	}
	end := min(offset+limit, len(all))
	out := make([]*domain.Account, 0, end-offset)
	for i := offset; i < end; i++ {
		acc := all[i]
		out = append(out, &acc)
	}
	return out, nil
}

// ListActive returns every active account ordered by creation time.
func (s *Store) ListActive(_ context.Context) ([]domain.Account, error) {
	var out []domain.Account
	for _, acc := range s.sortedAccounts() {
		if acc.Active {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (s *Store) sortedAccounts() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, *acc)
	}
	slices.SortFunc(out, func(a, b domain.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// SetLocked locks or unlocks an account.
func (s *Store) SetLocked(_ context.Context, id string, locked bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.NewNotFoundError("account", id, domain.ErrAccountNotFound)
	}
	acc.Locked = locked
	acc.UpdatedAt = updatedAt
	return nil
}

// AllLedgers returns the ledgers of factoryID ordered by id.
func (s *Store) AllLedgers(_ context.Context, factoryID string) ([]domain.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.ledgers, factoryID, func(l domain.Ledger) int64 { return l.ID }), nil
}

// SaveLedger inserts or replaces a ledger.
func (s *Store) SaveLedger(_ context.Context, tx usecase.Transaction, ledger *domain.Ledger) error {
	l := *ledger
	return s.write(tx, func() { s.ledgers[scopedID{l.FactoryID, l.ID}] = l })
}

// DeleteLedger removes a ledger.
func (s *Store) DeleteLedger(_ context.Context, tx usecase.Transaction, factoryID string, id int64) error {
	return s.write(tx, func() { delete(s.ledgers, scopedID{factoryID, id}) })
}

// AllGroups returns the groups of factoryID ordered by id.
func (s *Store) AllGroups(_ context.Context, factoryID string) ([]domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.groups, factoryID, func(g domain.Group) int64 { return g.ID }), nil
}

// SaveGroup inserts or replaces a group.
func (s *Store) SaveGroup(_ context.Context, tx usecase.Transaction, group *domain.Group) error {
	g := *group
	return s.write(tx, func() { s.groups[scopedID{g.FactoryID, g.ID}] = g })
}

// DeleteGroup removes a group.
func (s *Store) DeleteGroup(_ context.Context, tx usecase.Transaction, factoryID string, id int64) error {
	return s.write(tx, func() { delete(s.groups, scopedID{factoryID, id}) })
}

// AllEntries returns the entries of factoryID matching opts ordered by id.
func (s *Store) AllEntries(_ context.Context, factoryID string, opts domain.EntryOptions) ([]domain.Entry, error) {
	s.mu.RLock()
	all := collect(s.entries, factoryID, func(e domain.Entry) int64 { return e.ID })
	s.mu.RUnlock()
	for i := range all {
		all[i] = all[i].Clone()
	}
	return domain.EntriesByOptions(all, opts), nil
}

// GetEntry retrieves one entry.
func (s *Store) GetEntry(_ context.Context, factoryID string, id int64) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[scopedID{factoryID, id}]
	if !ok {
		return nil, domain.NewNotFoundError("entry", fmt.Sprint(id), domain.ErrEntryNotFound)
	}
	out := e.Clone()
	return &out, nil
}

// SaveEntries inserts or replaces entries.
func (s *Store) SaveEntries(_ context.Context, tx usecase.Transaction, entries []domain.Entry) error {
	batch := make([]domain.Entry, len(entries))
	for i := range entries {
		batch[i] = entries[i].Clone()
	}
	return s.write(tx, func() {
		for _, e := range batch {
			s.entries[scopedID{e.FactoryID, e.ID}] = e
		}
	})
}

// DeleteEntry removes an entry.
func (s *Store) DeleteEntry(_ context.Context, tx usecase.Transaction, factoryID string, id int64) error {
	return s.write(tx, func() { delete(s.entries, scopedID{factoryID, id}) })
}

// AllEntryTypes returns the entry types of factoryID ordered by id.
func (s *Store) AllEntryTypes(_ context.Context, factoryID string) ([]domain.EntryType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.entryTypes, factoryID, func(t domain.EntryType) int64 { return t.ID }), nil
}

// AllTags returns the tags of factoryID ordered by id.
func (s *Store) AllTags(_ context.Context, factoryID string) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.tags, factoryID, func(t domain.Tag) int64 { return t.ID }), nil
}

// SaveEntryType inserts or replaces an entry type.
func (s *Store) SaveEntryType(_ context.Context, tx usecase.Transaction, entryType *domain.EntryType) error {
	t := *entryType
	return s.write(tx, func() { s.entryTypes[scopedID{t.FactoryID, t.ID}] = t })
}

// SaveTag inserts or replaces a tag.
func (s *Store) SaveTag(_ context.Context, tx usecase.Transaction, tag *domain.Tag) error {
	t := *tag
	return s.write(tx, func() { s.tags[scopedID{t.FactoryID, t.ID}] = t })
}

// Next allocates one id.
func (s *Store) Next(ctx context.Context, tx usecase.Transaction, factoryID string, kind usecase.SequenceKind) (int64, error) {
	return s.Reserve(ctx, tx, factoryID, kind, 1)
}

// Reserve allocates n consecutive ids and returns the first.
func (s *Store) Reserve(_ context.Context, _ usecase.Transaction, factoryID string, kind usecase.SequenceKind, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve %d %s ids: count must be positive", n, kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sequenceKey{factoryID, kind}
	first := s.sequences[key] + 1
	s.sequences[key] += int64(n)
	return first, nil
}

func collect[T any](m map[scopedID]T, factoryID string, id func(T) int64) []T {
	out := make([]T, 0)
	for k, v := range m {
		if k.factoryID == factoryID {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}
