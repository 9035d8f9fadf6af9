package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	embedsql "github.com/agurod42/outfox-health/internal/sql"
)

// Cleanup deletes load_runs rows for sha that never finished, left behind by
// interrupted loads.
func Cleanup(ctx context.Context, conn DB, log zerolog.Logger, sha string) error {
	start := time.Now()

	tag, err := conn.Exec(ctx, embedsql.DeleteUnfinishedLoadRuns, sha)
	if err != nil {
		return err
	}

	if n := tag.RowsAffected(); n > 0 {
		log.Info().
			Int64("runs_deleted", n).
			Dur("duration", time.Since(start)).
			Msg("removed unfinished load runs")
	}
	return nil
}
