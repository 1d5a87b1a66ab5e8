package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational metrics for the dispatcher and ingestion
// pipeline.
type Metrics struct {
	// Dispatch metrics
	RequestsDispatched atomic.Int64
	RateLimitWaits     atomic.Int64
	FetchErrors500     atomic.Int64
	FetchErrorsFatal   atomic.Int64

	// Ingestion metrics
	IngestionsOK     atomic.Int64
	IngestionsFailed atomic.Int64

	// Staging backlog
	StagingRowsPending atomic.Int64

	logger      *slog.Logger
	statsSource func() map[string]int64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// SetStatsSource registers a snapshot function (typically
// dispatcher.Stats.Snapshot) that ServeHTTP pulls from on every scrape,
// so the exposed counters reflect live dispatcher activity rather than
// staying at zero.
func (m *Metrics) SetStatsSource(source func() map[string]int64) {
	m.statsSource = source
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.statsSource != nil {
		FromDispatcherStats(m, m.statsSource())
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"siftcore_requests_dispatched_total", "Total requests dispatched to a transport", m.RequestsDispatched.Load()},
		{"siftcore_rate_limit_waits_total", "Total times the rate governor blocked dispatch", m.RateLimitWaits.Load()},
		{"siftcore_fetch_errors_500_total", "Total transient (500-class) fetch errors", m.FetchErrors500.Load()},
		{"siftcore_fetch_errors_fatal_total", "Total fatal fetch errors", m.FetchErrorsFatal.Load()},
		{"siftcore_ingestions_ok_total", "Total successful ingestions", m.IngestionsOK.Load()},
		{"siftcore_ingestions_failed_total", "Total failed ingestions, staging row retained", m.IngestionsFailed.Load()},
		{"siftcore_staging_rows_pending", "Rows currently in the raw-fetcher-output staging table", m.StagingRowsPending.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_dispatched":  m.RequestsDispatched.Load(),
		"rate_limit_waits":     m.RateLimitWaits.Load(),
		"fetch_errors_500":     m.FetchErrors500.Load(),
		"fetch_errors_fatal":   m.FetchErrorsFatal.Load(),
		"ingestions_ok":        m.IngestionsOK.Load(),
		"ingestions_failed":    m.IngestionsFailed.Load(),
		"staging_rows_pending": m.StagingRowsPending.Load(),
	}
}

// FromDispatcherStats folds dispatcher counters into the metrics
// struct ahead of a scrape, keyed by the same field names the
// dispatcher tracks in memory.
func FromDispatcherStats(m *Metrics, snapshot map[string]int64) {
	m.RequestsDispatched.Store(snapshot["dispatched"])
	m.FetchErrors500.Store(snapshot["rate_limit_hits"])
	m.IngestionsOK.Store(snapshot["ingest_ok"])
	m.IngestionsFailed.Store(snapshot["ingest_failed"])
}
