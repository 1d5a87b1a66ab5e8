// Package dispatcher runs the control loop that claims request rows,
// dispatches them to a transport, and drives ingestion of whatever
// comes back.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/trendvane/siftcore/internal/governor"
	"github.com/trendvane/siftcore/internal/ingest"
	"github.com/trendvane/siftcore/internal/store"
	"github.com/trendvane/siftcore/internal/transport"
	"github.com/trendvane/siftcore/internal/types"
)

// defaultIdlePollDelay is used when the caller doesn't supply one.
const defaultIdlePollDelay = 1 * time.Second

// Stats tracks control-loop counters, exposed to the metrics endpoint.
type Stats struct {
	Dispatched    atomic.Int64
	RateLimitHits atomic.Int64
	IngestOK      atomic.Int64
	IngestFailed  atomic.Int64
	IdleCycles    atomic.Int64
}

// Snapshot returns a point-in-time copy of the counters.
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"dispatched":      s.Dispatched.Load(),
		"rate_limit_hits": s.RateLimitHits.Load(),
		"ingest_ok":       s.IngestOK.Load(),
		"ingest_failed":   s.IngestFailed.Load(),
		"idle_cycles":     s.IdleCycles.Load(),
	}
}

// Dispatcher runs one control loop instance. It owns no durable state:
// the relational store is authoritative, the Dispatcher's fields are
// in-memory scheduling bookkeeping only.
type Dispatcher struct {
	store          *store.Store
	pool           *transport.Pool
	pipeline       *ingest.Pipeline
	governor       *governor.Governor
	materializeLag time.Duration
	extraSeconds   float64
	idlePollDelay  time.Duration
	exitWhenIdle   bool
	logger         *slog.Logger

	lastDispatch time.Time
	stats        *Stats
}

// New builds a Dispatcher from its collaborators. extraSeconds is the
// "+1" term in the rate governor's 60/N + extraSeconds floor.
// idlePollDelay is how long the loop sleeps after finding no claimable
// work before trying again; a value <= 0 falls back to
// defaultIdlePollDelay.
func New(st *store.Store, pool *transport.Pool, pipeline *ingest.Pipeline, materializeLag time.Duration, extraSeconds float64, idlePollDelay time.Duration, exitWhenIdle bool, logger *slog.Logger) *Dispatcher {
	if idlePollDelay <= 0 {
		idlePollDelay = defaultIdlePollDelay
	}
	return &Dispatcher{
		store:          st,
		pool:           pool,
		pipeline:       pipeline,
		governor:       governor.New(),
		materializeLag: materializeLag,
		extraSeconds:   extraSeconds,
		idlePollDelay:  idlePollDelay,
		exitWhenIdle:   exitWhenIdle,
		logger:         logger.With("component", "dispatcher"),
		stats:          &Stats{},
	}
}

// Stats returns the dispatcher's live counters.
func (d *Dispatcher) Stats() *Stats { return d.stats }

// Run drives the control loop until ctx is cancelled, or, with
// exitWhenIdle set, until the queue drains. A nil return means clean
// shutdown; any other return is a fatal error per §4.4 step 6, which
// the caller should treat as cause to crash the process.
func (d *Dispatcher) Run(ctx context.Context) error {
	interval := governor.Interval(d.pool.Len(), d.extraSeconds)
	for {
		if ctx.Err() != nil {
			return nil
		}

		d.lastDispatch = d.governor.Wait(d.lastDispatch, interval)

		done, err := d.iterate(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// iterate runs one control-loop iteration. The returned bool reports
// whether the caller should stop (queue drained and exitWhenIdle set).
func (d *Dispatcher) iterate(ctx context.Context) (bool, error) {
	claimed, err := d.store.ClaimNext(ctx, d.materializeLag)
	if errors.Is(err, types.ErrClaimLost) {
		return false, nil
	}
	if errors.Is(err, types.ErrNoWork) {
		d.stats.IdleCycles.Add(1)
		if d.exitWhenIdle {
			d.logger.Info("queue drained, exiting")
			return true, nil
		}
		time.Sleep(d.idlePollDelay)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim next request: %w", err)
	}

	window := claimed.FormatWindow()
	t := d.pool.Next()
	d.stats.Dispatched.Add(1)

	raw, fetchErr := t.Fetch(ctx, window, claimed.QueryOrTopicID, claimed.Geo)
	if fetchErr != nil {
		return false, d.handleFetchError(ctx, claimed, t, fetchErr)
	}

	fetcherID, err := d.fetcherID(ctx, t, claimed.APIFlavor)
	if err != nil {
		if releaseErr := d.store.ReleaseRequest(ctx, claimed.RID); releaseErr != nil {
			d.logger.Error("release request after fetcher intern failure also failed", "request", claimed.RID, "error", releaseErr)
		}
		d.logger.Warn("fetcher intern failed, request released for retry", "request", claimed.RID, "transport", t.Name(), "error", err)
		return false, nil
	}

	in := ingest.Input{
		RID:         claimed.RID,
		KID:         claimed.KID,
		FetcherID:   fetcherID,
		Geo:         claimed.Geo,
		WindowStart: claimed.WindowStart,
		WindowEnd:   claimed.WindowEnd,
		Raw:         raw,
		FetchedAt:   time.Now(),
	}
	if err := d.pipeline.Run(ctx, in); err != nil {
		d.stats.IngestFailed.Add(1)
		var fault *types.IngestionFault
		if errors.As(err, &fault) {
			return false, fmt.Errorf("ingestion fault on request %d: %w", claimed.RID, err)
		}
		d.logger.Error("ingestion failed, staging row retained for recovery", "request", claimed.RID, "error", err)
		return false, nil
	}
	d.stats.IngestOK.Add(1)
	return false, nil
}

// handleFetchError implements §4.4 step 6: a 500-class structured
// error is transient and reverts the request to open; anything else is
// treated as a logic/protocol fault and propagated to crash the
// dispatcher after the compensating revert commits.
func (d *Dispatcher) handleFetchError(ctx context.Context, claimed *store.ClaimedRequest, t transport.Transport, fetchErr error) error {
	d.pool.RecordError(t)

	var respErr *types.FetcherResponseError
	if errors.As(fetchErr, &respErr) && respErr.IsHTTP500() {
		d.pool.Record500(t)
		d.stats.RateLimitHits.Add(1)
		if err := d.store.ReleaseRequest(ctx, claimed.RID); err != nil {
			return fmt.Errorf("release request %d after transient error: %w", claimed.RID, err)
		}
		d.logger.Warn("transient fetch error, request released", "request", claimed.RID, "transport", t.Name(), "error", fetchErr)
		return nil
	}

	if err := d.store.ReleaseRequest(ctx, claimed.RID); err != nil {
		d.logger.Error("release request after fatal error also failed", "request", claimed.RID, "error", err)
	}
	return fmt.Errorf("fatal fetch error on transport %s: %w", t.Name(), fetchErr)
}

// fetcherID resolves the transport's provenance to a store-level
// fetcher id, interning it on first use. There is no valid fallback
// value: raw_fetcher_output.fetcher_id is NOT NULL and references
// fetchers(f_id), so a failed intern must not be papered over with a
// sentinel id.
func (d *Dispatcher) fetcherID(ctx context.Context, t transport.Transport, apiFlavor string) (int64, error) {
	id, err := d.store.InternFetcherByName(ctx, t.Name(), t.Host(), apiFlavor)
	if err != nil {
		return 0, fmt.Errorf("intern fetcher %s: %w", t.Name(), err)
	}
	return id, nil
}
