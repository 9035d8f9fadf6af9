package ingest

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/model"
	"github.com/agurod42/outfox-health/internal/normalize"
	embedsql "github.com/agurod42/outfox-health/internal/sql"
)

// LoadResult holds metrics from the upsert phase.
type LoadResult struct {
	RowsRead         int64
	RowsLoaded       int64
	RowsRejected     int64
	ProvidersTouched int64
	RatingsWritten   int64
	Duration         time.Duration
}

// Load streams rows from src, normalizes them, and upserts providers, prices
// and ratings in batches of opts.BatchSize. Each batch runs as one implicit
// transaction.
func Load(ctx context.Context, conn DB, log zerolog.Logger, src RowSource, opts Options) (*LoadResult, error) {
	start := time.Now()
	opts = opts.withDefaults()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan *model.NormalizedRow, opts.BatchSize)
	errCh := make(chan error, 1)

	var rowsRead, rowsRejected atomic.Int64

	// Producer goroutine: read → normalize → push to channel
	go func() {
		defer close(ch)
		for {
			row, readErr := src.Next()
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				errCh <- fmt.Errorf("read row %d: %w", rowsRead.Load()+1, readErr)
				return
			}
			n := rowsRead.Add(1)

			nr, normErr := normalize.ToNormalizedRow(row)
			if normErr != nil {
				rowsRejected.Add(1)
				log.Warn().Err(normErr).Int64("row", n).Msg("row rejected")
				continue
			}

			select {
			case ch <- nr:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		errCh <- nil
	}()

	w := &batchWriter{
		conn:     conn,
		opts:     opts,
		touched:  make(map[string]struct{}),
		rated:    make(map[string]struct{}),
		pending:  make([]*model.NormalizedRow, 0, opts.BatchSize),
		lastTick: time.Now(),
	}

	var writeErr error
	for nr := range ch {
		w.pending = append(w.pending, nr)
		if len(w.pending) < opts.BatchSize {
			continue
		}
		if writeErr = w.flush(ctx); writeErr != nil {
			break
		}
		if time.Since(w.lastTick) >= opts.ProgressInterval {
			w.lastTick = time.Now()
			log.Info().
				Int64("rows_read", rowsRead.Load()).
				Int64("rows_loaded", w.loaded).
				Int64("rows_rejected", rowsRejected.Load()).
				Msg("load progress")
		}
	}
	if writeErr == nil {
		writeErr = w.flush(ctx)
	}
	if writeErr != nil {
		cancel()
		for range ch {
		}
		<-errCh
		return nil, fmt.Errorf("load upsert: %w", writeErr)
	}

	// Wait for producer to finish
	if prodErr := <-errCh; prodErr != nil {
		return nil, fmt.Errorf("load producer: %w", prodErr)
	}

	res := &LoadResult{
		RowsRead:         rowsRead.Load(),
		RowsLoaded:       w.loaded,
		RowsRejected:     rowsRejected.Load(),
		ProvidersTouched: int64(len(w.touched)),
		RatingsWritten:   w.ratings,
		Duration:         time.Since(start),
	}

	log.Info().
		Int64("rows_read", res.RowsRead).
		Int64("rows_loaded", res.RowsLoaded).
		Int64("rows_rejected", res.RowsRejected).
		Int64("providers", res.ProvidersTouched).
		Str("duration", res.Duration.String()).
		Float64("rows_per_sec", float64(res.RowsLoaded)/res.Duration.Seconds()).
		Msg("load complete")

	return res, nil
}

// batchWriter accumulates normalized rows and sends them as one pgx.Batch.
type batchWriter struct {
	conn     DB
	opts     Options
	pending  []*model.NormalizedRow
	touched  map[string]struct{}
	rated    map[string]struct{}
	loaded   int64
	ratings  int64
	lastTick time.Time
}

func (w *batchWriter) flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	var labels []string
	queue := func(label, sql string, args ...any) {
		batch.Queue(sql, args...)
		labels = append(labels, label)
	}

	inBatch := make(map[string]struct{})
	var prices, ratings int64
	for _, nr := range w.pending {
		p := nr.Provider
		if _, ok := inBatch[p.ProviderID]; !ok {
			inBatch[p.ProviderID] = struct{}{}
			queue("provider "+p.ProviderID, embedsql.UpsertProvider,
				p.ProviderID, p.Name, p.City, p.State, p.Zip5)
		}

		d := nr.Price
		queue("price "+d.ProviderID+"/"+d.DrgCode, embedsql.UpsertDrgPrice,
			d.ProviderID, d.DrgCode, d.DrgDescription, d.TotalDischarges,
			d.AvgCoveredCharges, d.AvgTotalPayments, d.AvgMedicarePayments)
		prices++

		if r := w.rating(nr); r != nil {
			queue("rating "+r.ProviderID, embedsql.UpsertRating, r.ProviderID, r.Rating)
			ratings++
		}
	}

	br := w.conn.SendBatch(ctx, batch)
	for _, label := range labels {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert %s: %w", label, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	for id := range inBatch {
		w.touched[id] = struct{}{}
	}
	w.loaded += prices
	w.ratings += ratings
	w.pending = w.pending[:0]
	return nil
}

// rating returns the rating to write for nr: the source rating when present,
// otherwise a mock rating the first time a provider is seen, if enabled.
func (w *batchWriter) rating(nr *model.NormalizedRow) *model.Rating {
	if nr.Rating != nil {
		w.rated[nr.Provider.ProviderID] = struct{}{}
		return nr.Rating
	}
	if !w.opts.MockRatings {
		return nil
	}
	id := nr.Provider.ProviderID
	if _, ok := w.rated[id]; ok {
		return nil
	}
	w.rated[id] = struct{}{}
	return &model.Rating{ProviderID: id, Rating: MockRating(id)}
}
