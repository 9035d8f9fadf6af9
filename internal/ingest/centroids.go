package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/db"
	"github.com/agurod42/outfox-health/internal/geo"
	"github.com/agurod42/outfox-health/internal/model"
	embedsql "github.com/agurod42/outfox-health/internal/sql"
	"github.com/agurod42/outfox-health/internal/store"
)

// ErrNoCentroids is returned by LoadCentroids when the reference dataset is
// empty or missing.
var ErrNoCentroids = errors.New("no ZIP centroids available to load")

// Resolver is the part of *geo.Resolver the loader uses.
type Resolver interface {
	ResolveBatch(zips []string) map[string]*geo.LatLng
	Each(fn func(zip string, ll geo.LatLng))
}

// CentroidResult holds metrics from centroid backfill.
type CentroidResult struct {
	Added    int64
	Missing  int64
	Duration time.Duration
}

// FillCentroids resolves every provider ZIP that has no zip_centroids row
// and inserts the ones the dataset knows.
func FillCentroids(ctx context.Context, conn DB, res Resolver, log zerolog.Logger) (*CentroidResult, error) {
	start := time.Now()

	rows, err := conn.Query(ctx, embedsql.DistinctProviderZips)
	if err != nil {
		return nil, fmt.Errorf("list provider zips: %w", err)
	}
	zips, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list provider zips: %w", err)
	}
	if len(zips) == 0 {
		return &CentroidResult{Duration: time.Since(start)}, nil
	}

	resolved := res.ResolveBatch(zips)
	centroids := make([]model.ZipCentroid, 0, len(resolved))
	var missing []string
	for zip, ll := range resolved {
		if ll == nil {
			missing = append(missing, zip)
			continue
		}
		centroids = append(centroids, store.NewCentroid(zip, *ll))
	}
	sort.Slice(centroids, func(i, j int) bool { return centroids[i].Zip5 < centroids[j].Zip5 })
	sort.Strings(missing)

	added, err := store.New(conn, log).InsertCentroids(ctx, centroids)
	if err != nil {
		return nil, fmt.Errorf("insert centroids: %w", err)
	}

	out := &CentroidResult{
		Added:    added,
		Missing:  int64(len(zips) - len(centroids)),
		Duration: time.Since(start),
	}
	ev := log.Info().
		Int("provider_zips", len(zips)).
		Int64("added", out.Added).
		Int64("missing", out.Missing)
	if len(missing) > 0 {
		ev = ev.Strs("missing_sample", missing[:min(len(missing), 10)])
	}
	ev.Dur("duration", out.Duration).Msg("centroid backfill complete")
	return out, nil
}

// LoadCentroids copies the whole reference dataset into a temporary staging
// table and merges it into zip_centroids, keeping existing rows. Returns the
// number of rows added.
func LoadCentroids(ctx context.Context, conn DB, res Resolver, log zerolog.Logger) (int64, error) {
	start := time.Now()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, embedsql.CreateCentroidStaging); err != nil {
		return 0, fmt.Errorf("create centroid staging: %w", err)
	}

	ch := make(chan model.ZipCentroid, 1024)
	go func() {
		defer close(ch)
		res.Each(func(zip string, ll geo.LatLng) {
			ch <- store.NewCentroid(zip, ll)
		})
	}()

	source := db.NewCentroidSource(ch)
	copied, copyErr := tx.CopyFrom(ctx, pgx.Identifier{"zip_centroids_staging"}, db.CentroidColumns, source)
	// Let the producer finish if COPY stopped early.
	for range ch {
	}
	if copyErr != nil {
		return 0, fmt.Errorf("copy centroids: %w", copyErr)
	}
	if copied == 0 {
		return 0, ErrNoCentroids
	}

	tag, err := tx.Exec(ctx, embedsql.MergeCentroidStaging)
	if err != nil {
		return 0, fmt.Errorf("merge centroids: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	log.Info().
		Int64("copied", copied).
		Int64("added", tag.RowsAffected()).
		Dur("duration", time.Since(start)).
		Msg("centroid load complete")
	return tag.RowsAffected(), nil
}
