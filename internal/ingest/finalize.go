package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	embedsql "github.com/agurod42/outfox-health/internal/sql"
)

// Finalize records the run's counts in load_runs and refreshes planner
// statistics on the tables the load wrote.
func Finalize(ctx context.Context, conn DB, log zerolog.Logger, runID uuid.UUID, lr *LoadResult) (time.Duration, error) {
	start := time.Now()

	if _, err := conn.Exec(ctx, embedsql.FinishLoadRun,
		runID.String(), lr.RowsRead, lr.RowsLoaded, lr.RowsRejected, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("finish load run: %w", err)
	}

	// ANALYZE
	if _, err := conn.Exec(ctx, "ANALYZE providers, drg_prices, ratings, zip_centroids"); err != nil {
		log.Warn().Err(err).Msg("analyze failed (non-fatal)")
	}

	dur := time.Since(start)
	log.Info().Str("run_id", runID.String()).Dur("duration", dur).Msg("finalize complete")
	return dur, nil
}
