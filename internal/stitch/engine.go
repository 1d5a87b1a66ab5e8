package stitch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trendvane/siftcore/internal/store"
	"github.com/trendvane/siftcore/internal/types"
)

// Engine runs Phases 1-3 of the stitching algorithm over a Store's
// completed requests and returns the rows that AnalyticsDB.Write
// persists (Phase 4).
type Engine struct {
	store          *store.Store
	logger         *slog.Logger
	maxConcurrency int
}

// New returns an Engine backed by st. maxConcurrency bounds how many
// (keyword, location) pairs are stitched at once; the relational store
// is read-only from this point on, so the only real contention is
// connection-pool pressure.
func New(st *store.Store, maxConcurrency int, logger *slog.Logger) *Engine {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Engine{store: st, maxConcurrency: maxConcurrency, logger: logger.With("component", "stitch")}
}

// Row is one stitched output point, ready to persist.
type Row struct {
	KID      int64
	Time     time.Time
	Location string // empty means worldwide
	Value    float64
}

// StitchKeyword runs Phases 1-3 for kid across the worldwide series and
// every geo location with data, returning the rows Phase 4 should
// persist. When a series has several hourly layers that cannot be
// anchored to a daily series (no daily fragments, daily fragments that
// do not stitch into one layer, or no scale factor for some layer), a
// warning is logged and the hourly fragments are concatenated instead;
// such a series is not omitted. A geo location whose stitching returns
// an error is logged and omitted rather than failing the whole run; an
// error on the worldwide series fails the run.
func (e *Engine) StitchKeyword(ctx context.Context, kid int64) ([]Row, error) {
	var rows []Row

	worldwide, err := e.stitchLocation(ctx, kid, "")
	if err != nil {
		return nil, fmt.Errorf("stitch worldwide series for keyword %d: %w", kid, err)
	}
	rows = append(rows, worldwide...)

	locations, err := e.store.ListLocationsForKeyword(ctx, kid)
	if err != nil {
		return nil, fmt.Errorf("list locations for keyword %d: %w", kid, err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for _, loc := range locations {
		loc := loc
		g.Go(func() error {
			locRows, err := e.stitchLocation(gctx, kid, loc)
			if err != nil {
				e.logger.Warn("stitch failed for location, skipping", "keyword", kid, "location", loc, "error", err)
				return nil
			}
			mu.Lock()
			rows = append(rows, locRows...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// stitchLocation runs Phases 1-3 for a single (keyword, location) pair.
func (e *Engine) stitchLocation(ctx context.Context, kid int64, location string) ([]Row, error) {
	hourlyRaw, err := e.store.EnumerateResolutionTaggedFragments(ctx, kid, location, types.TagResolutionHourly)
	if err != nil {
		return nil, fmt.Errorf("enumerate hourly fragments: %w", err)
	}

	hourlyFrags, err := averageDuplicates(hourlyRaw)
	if err != nil {
		return nil, err
	}

	layers := stitchAll(hourlyFrags, false)

	var final []fragment
	switch {
	case len(layers) <= 1:
		final = layers
	default:
		anchored, ok, err := e.anchorLayers(ctx, kid, location, layers)
		if err != nil {
			return nil, err
		}
		if ok {
			final = anchored
		} else {
			e.logger.Warn("daily anchor unavailable, falling back to concatenation", "keyword", kid, "location", location)
			final = stitchAll(hourlyFrags, true)
		}
	}

	var rows []Row
	for _, f := range final {
		for i, t := range f.labels {
			rows = append(rows, Row{KID: kid, Time: t, Location: location, Value: f.values[i]})
		}
	}
	return rows, nil
}

// anchorLayers implements Phase 3: fetch the daily fragments for the
// same (keyword, location), stitch them with overlap-splitting
// disabled, and require exactly one resulting layer to serve as the
// anchor. Each hourly layer is then independently rescaled to match
// the anchor; if any layer cannot be anchored, the whole location
// falls back (ok=false) rather than emitting partial data.
func (e *Engine) anchorLayers(ctx context.Context, kid int64, location string, hourlyLayers []fragment) ([]fragment, bool, error) {
	dailyRaw, err := e.store.EnumerateResolutionTaggedFragments(ctx, kid, location, types.TagResolutionDaily)
	if err != nil {
		return nil, false, fmt.Errorf("enumerate daily fragments: %w", err)
	}
	if len(dailyRaw) == 0 {
		return nil, false, nil
	}

	dailyFrags, err := averageDuplicates(dailyRaw)
	if err != nil {
		return nil, false, err
	}
	dailyLayers := stitchAll(dailyFrags, true)
	if len(dailyLayers) != 1 {
		return nil, false, nil
	}
	anchor := averagePerDay(dailyLayers[0])

	out := make([]fragment, 0, len(hourlyLayers))
	for _, layer := range hourlyLayers {
		anchored, err := anchorToDaily(layer, anchor)
		if err != nil {
			return nil, false, nil
		}
		out = append(out, anchored)
	}
	return out, true, nil
}
