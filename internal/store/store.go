// Package store executes validated provider queries and maintains the
// zip_centroids table.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/apperr"
	"github.com/agurod42/outfox-health/internal/geo"
	"github.com/agurod42/outfox-health/internal/model"
	"github.com/agurod42/outfox-health/internal/query"
	embedsql "github.com/agurod42/outfox-health/internal/sql"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Ping(ctx context.Context) error
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Store reads provider prices and writes centroids.
type Store struct {
	db  DB
	log zerolog.Logger
}

// New wraps db.
func New(db DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "store").Logger()}
}

// Query runs q inside a read-only transaction and maps at most
// query.MaxRows rows into ProviderOut. Failures are QueryExecution errors.
func (s *Store) Query(ctx context.Context, q query.Query) ([]model.ProviderOut, error) {
	var args []any
	if len(q.Args) > 0 {
		args = append(args, q.Args)
	}
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindQueryExecution, err, "begin read-only transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, q.SQL, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindQueryExecution, err, "query failed")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	out := make([]model.ProviderOut, 0, 16)
	for rows.Next() {
		if len(out) == query.MaxRows {
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindQueryExecution, err, "read row %d", len(out)+1)
		}
		p, err := mapRow(names, vals)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindQueryExecution, err, "map row %d", len(out)+1)
		}
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindQueryExecution, err, "query failed")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindQueryExecution, err, "commit read-only transaction")
	}
	return out, nil
}

// CentroidExists reports whether zip has a zip_centroids row.
func (s *Store) CentroidExists(ctx context.Context, zip string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, embedsql.CentroidExists, zip).Scan(&exists); err != nil {
		return false, fmt.Errorf("check centroid %s: %w", zip, err)
	}
	return exists, nil
}

// InsertCentroid inserts c unless a row for its ZIP already exists.
// Returns whether a row was written.
func (s *Store) InsertCentroid(ctx context.Context, c model.ZipCentroid) (bool, error) {
	tag, err := s.db.Exec(ctx, embedsql.InsertCentroid, c.Zip5, c.Lat, c.Lng, nullIfEmpty(c.Geohash))
	if err != nil {
		return false, fmt.Errorf("insert centroid %s: %w", c.Zip5, err)
	}
	return tag.RowsAffected() == 1, nil
}

// InsertCentroids inserts-if-absent in one round trip and returns the number
// of new rows.
func (s *Store) InsertCentroids(ctx context.Context, cs []model.ZipCentroid) (int64, error) {
	if len(cs) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, c := range cs {
		batch.Queue(embedsql.InsertCentroid, c.Zip5, c.Lat, c.Lng, nullIfEmpty(c.Geohash))
	}
	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for i := range cs {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert centroid %s: %w", cs[i].Zip5, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// NewCentroid builds a ZipCentroid with its geohash filled in.
func NewCentroid(zip string, ll geo.LatLng) model.ZipCentroid {
	return model.ZipCentroid{Zip5: zip, Lat: ll.Lat, Lng: ll.Lng, Geohash: geo.Geohash(ll)}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
