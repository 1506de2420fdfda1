package usecase

import (
	"context"
	"time"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultChartCacheTTL is how long a built chart stays cached
	DefaultChartCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// MaxImportRows bounds a single import batch
	MaxImportRows = 10000

	defaultPageSize = 20
	maxPageSize     = 100
)

type nopObserver struct{}

func (nopObserver) ChartBuilt(string, time.Duration, bool) {}
func (nopObserver) EntriesImported(int, int, int)         {}
func (nopObserver) ImportRejected(string)                 {}
func (nopObserver) EntriesSaved(int)                      {}
func (nopObserver) AccountCreated()                       {}

// NopObserver discards instrumentation events.
var NopObserver Observer = nopObserver{}

type directRetrier struct{}

func (directRetrier) Retry(_ context.Context, operation func() error) error {
	return operation()
}
