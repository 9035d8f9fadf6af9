package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/normalize"
	embedsql "github.com/agurod42/outfox-health/internal/sql"
)

// PreflightResult holds all context resolved during the preflight phase.
type PreflightResult struct {
	// FilePath is the original path passed to Preflight, stored as-is.
	FilePath string
	// FileSHA256 is the hex-encoded SHA-256 digest of the file.
	FileSHA256 string
	// FileSize is the file size in bytes.
	FileSize int64
	// Columns are the PriceRow columns the file provides.
	Columns []string
	// RunID identifies this load in load_runs. Unset when AlreadyLoaded.
	RunID uuid.UUID
	// PreviousRunID is the last finished run for the same file contents, if any.
	PreviousRunID string
	// AlreadyLoaded is true when a finished run exists for this SHA-256 and
	// force mode is off; the pipeline skips the file.
	AlreadyLoaded bool
}

// Preflight hashes the file, validates its columns, and registers a new
// load run unless the same contents were already loaded.
func Preflight(ctx context.Context, conn DB, log zerolog.Logger, filePath string, force bool) (*PreflightResult, error) {
	start := time.Now()

	sha, size, err := normalize.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}

	src, err := OpenSource(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight validate: %w", err)
	}
	columns := src.Columns()
	src.Close()

	pf := &PreflightResult{
		FilePath:   filePath,
		FileSHA256: sha,
		FileSize:   size,
		Columns:    columns,
	}

	err = conn.QueryRow(ctx, embedsql.LookupLoadRun, sha).Scan(&pf.PreviousRunID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("preflight lookup load run: %w", err)
	}

	log.Info().
		Str("file", filepath.Base(filePath)).
		Str("sha256", sha).
		Int64("bytes", pf.FileSize).
		Strs("columns", columns).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	if pf.PreviousRunID != "" && !force {
		pf.AlreadyLoaded = true
		return pf, nil
	}

	if err := Cleanup(ctx, conn, log, sha); err != nil {
		return nil, fmt.Errorf("preflight cleanup: %w", err)
	}

	pf.RunID = uuid.New()
	if _, err := conn.Exec(ctx, embedsql.RegisterLoadRun,
		pf.RunID.String(), filepath.Base(filePath), sha, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("preflight register load run: %w", err)
	}
	return pf, nil
}
