package dispatcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/trendvane/siftcore/internal/ingest"
	"github.com/trendvane/siftcore/internal/store"
	"github.com/trendvane/siftcore/internal/types"
)

// Confirm prompts on r and returns true if the operator typed "y" or
// "yes" (case-insensitive). Used by RecoverStaging before replaying any
// row.
func Confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// RecoverStaging implements §4.6: if the staging table holds rows left
// behind by a crash between Step A and Step E, prompt the operator and,
// on confirmation, replay each through the ingestion pipeline using its
// recorded fetch-timestamp. A refusal returns ErrNotConfirmed rather
// than silently skipping recovery, so the caller can decide whether
// that is fatal for its invocation.
func RecoverStaging(ctx context.Context, st *store.Store, pipeline *ingest.Pipeline, confirm func(prompt string) bool, logger *slog.Logger) error {
	logger = logger.With("component", "dispatcher.recovery")

	rows, err := st.ListStaging(ctx)
	if errors.Is(err, types.ErrStagingEmpty) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("list staging rows: %w", err)
	}

	prompt := fmt.Sprintf("%d staged payload(s) found from a previous crash. Replay them now? [y/N] ", len(rows))
	if !confirm(prompt) {
		return types.ErrNotConfirmed
	}

	for _, row := range rows {
		req, err := st.GetRequest(ctx, row.RID)
		if err != nil {
			return fmt.Errorf("recover staging row %s: %w", row.ID, err)
		}
		in := ingest.Input{
			RID:         row.RID,
			KID:         row.KID,
			FetcherID:   row.FetcherID,
			Geo:         req.Geo,
			WindowStart: req.WindowStart,
			WindowEnd:   req.WindowEnd,
			Raw:         []byte(row.RawText),
			FetchedAt:   row.FetchedAt,
		}
		if err := pipeline.RunStaged(ctx, row.ID, in); err != nil {
			logger.Error("recovery replay failed, staging row retained", "staging_id", row.ID, "request", row.RID, "error", err)
			continue
		}
		logger.Info("recovered staged payload", "staging_id", row.ID, "request", row.RID)
	}
	return nil
}
