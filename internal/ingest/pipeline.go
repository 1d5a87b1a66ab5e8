package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trendvane/siftcore/internal/store"
)

// Input describes the work one call to Run performs: a raw payload
// fetched for a specific (request, keyword, fetcher).
type Input struct {
	RID         int64
	KID         int64
	FetcherID   int64
	Geo         string
	WindowStart time.Time
	WindowEnd   time.Time
	Raw         []byte
	FetchedAt   time.Time
}

// Pipeline runs the stage/parse/validate/write sequence (§4.5 Steps
// A-E) against a Store.
type Pipeline struct {
	store  *store.Store
	logger *slog.Logger
}

// New returns a Pipeline backed by st.
func New(st *store.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{store: st, logger: logger.With("component", "ingest")}
}

// Run executes Steps A through E for a freshly fetched payload: it
// stages the raw bytes durably first (Step A, its own transaction),
// then parses, validates, and writes (Steps B-E, one transaction).
func (p *Pipeline) Run(ctx context.Context, in Input) error {
	stagingID, err := p.store.StoreRawPayload(ctx, in.RID, in.KID, in.FetcherID, string(in.Raw), in.FetchedAt)
	if err != nil {
		return fmt.Errorf("stage payload: %w", err)
	}
	return p.runStaged(ctx, stagingID, in)
}

// RunStaged re-runs Steps B-E for a payload that is already present in
// the staging table (the startup recovery path, §4.6). It does not
// re-stage: the row already exists and carries the original
// fetch-timestamp.
func (p *Pipeline) RunStaged(ctx context.Context, stagingID string, in Input) error {
	return p.runStaged(ctx, stagingID, in)
}

func (p *Pipeline) runStaged(ctx context.Context, stagingID string, in Input) error {
	parsed, err := parsePayload(in.Raw)
	if err != nil {
		p.logger.Warn("payload parse failed, staging row retained", "request", in.RID, "error", err)
		return fmt.Errorf("parse payload for request %d: %w", in.RID, err)
	}

	reconstructed, err := reconstructAndValidate(in.WindowStart, in.WindowEnd, parsed)
	if err != nil {
		p.logger.Warn("label validation failed, staging row retained", "request", in.RID, "error", err)
		return fmt.Errorf("validate request %d: %w", in.RID, err)
	}

	geoEntries := make([]store.GeoEntry, len(parsed.GeoEntries))
	for i, g := range parsed.GeoEntries {
		geoEntries[i] = store.GeoEntry{
			Scope:        g.Scope,
			LocationCode: g.LocationCode,
			LocationName: g.LocationName,
			Value:        g.Value,
		}
	}
	related := make([]store.RelatedEntry, len(parsed.Related))
	for i, r := range parsed.Related {
		related[i] = store.RelatedEntry{
			Kind: r.Kind, IsTop: r.IsTop, Value: r.Value,
			Query: r.Query, MID: r.MID, Title: r.Title, TopicName: r.TopicName,
		}
	}

	if err := p.store.IngestStructuredPayload(ctx, store.IngestInput{
		StagingID:   stagingID,
		RID:         in.RID,
		KID:         in.KID,
		FetcherID:   in.FetcherID,
		Geo:         in.Geo,
		Samples:     parsed.Samples,
		GeoEntries:  geoEntries,
		Related:     related,
		CompletedAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("write structured records for request %d: %w", in.RID, err)
	}

	if tag := resolutionTag(reconstructed); tag != "" {
		if err := p.store.TagRequest(ctx, in.RID, tag); err != nil {
			p.logger.Warn("failed to apply resolution tag", "request", in.RID, "tag", tag, "error", err)
		}
	}

	p.logger.Info("ingestion complete", "request", in.RID, "keyword", in.KID, "samples", len(parsed.Samples))
	return nil
}

// reconstructAndValidate wraps validateLabels, also returning the
// reconstructed sequence so the caller can derive the resolution tag
// without reconstructing twice.
func reconstructAndValidate(windowStart, windowEnd time.Time, p *parsed) ([]time.Time, error) {
	if err := validateLabels(windowStart, windowEnd, p); err != nil {
		return nil, err
	}
	return p.Labels, nil
}
