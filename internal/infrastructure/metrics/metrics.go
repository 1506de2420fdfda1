package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chart metrics
	ChartsBuilt   *prometheus.CounterVec
	ChartDuration prometheus.Histogram
	ChartCache    *prometheus.CounterVec

	// Import metrics
	ImportRows        prometheus.Counter
	ImportedEntries   prometheus.Counter
	SynthesizedItems  prometheus.Counter
	ImportRejections  *prometheus.CounterVec
	EntriesPersisted  prometheus.Counter
	AccountsCreated   prometheus.Counter
	StoreRetries      *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ChartsBuilt: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchledger_charts_built_total",
				Help: "Total charts of accounts built, by scope",
			},
			[]string{"scope"},
		),
		ChartDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "branchledger_chart_build_duration_seconds",
			Help:    "Duration of chart of accounts builds",
			Buckets: prometheus.DefBuckets,
		}),
		ChartCache: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchledger_chart_cache_total",
				Help: "Chart cache lookups by result",
			},
			[]string{"result"},
		),

		ImportRows: promauto.NewCounter(prometheus.CounterOpts{
			Name: "branchledger_import_rows_total",
			Help: "Total rows received for import",
		}),
		ImportedEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "branchledger_imported_entries_total",
			Help: "Total entries produced by imports",
		}),
		SynthesizedItems: promauto.NewCounter(prometheus.CounterOpts{
			Name: "branchledger_synthesized_items_total",
			Help: "Total balancing items added to the destination ledger during imports",
		}),
		ImportRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchledger_import_rejections_total",
				Help: "Total rejected imports by reason class",
			},
			[]string{"reason"},
		),
		EntriesPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "branchledger_entries_persisted_total",
			Help: "Total entries written to the store",
		}),
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "branchledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		StoreRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchledger_store_retries_total",
				Help: "Total retried store operations by failure reason",
			},
			[]string{"reason"},
		),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "branchledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		AuthFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branchledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}

// ChartBuilt records one chart build. Cached builds only count the cache hit.
func (m *Metrics) ChartBuilt(scope string, d time.Duration, cached bool) {
	if cached {
		m.ChartCache.WithLabelValues("hit").Inc()
		return
	}
	m.ChartCache.WithLabelValues("miss").Inc()
	m.ChartsBuilt.WithLabelValues(scope).Inc()
	m.ChartDuration.Observe(d.Seconds())
}

// EntriesImported records the outcome of one import batch.
func (m *Metrics) EntriesImported(rows, entries, synthesized int) {
	m.ImportRows.Add(float64(rows))
	m.ImportedEntries.Add(float64(entries))
	m.SynthesizedItems.Add(float64(synthesized))
}

// ImportRejected records an import that failed validation.
func (m *Metrics) ImportRejected(reason string) {
	m.ImportRejections.WithLabelValues(reason).Inc()
}

// EntriesSaved records entries written to the store.
func (m *Metrics) EntriesSaved(n int) {
	m.EntriesPersisted.Add(float64(n))
}

// AccountCreated records a new account.
func (m *Metrics) AccountCreated() {
	m.AccountsCreated.Inc()
}

// Retried records a store operation retried after a transient failure.
func (m *Metrics) Retried(reason string) {
	m.StoreRetries.WithLabelValues(reason).Inc()
}
