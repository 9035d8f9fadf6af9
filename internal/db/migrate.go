package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	embedsql "github.com/agurod42/outfox-health/internal/sql"
)

// Execer is the subset of pgxpool.Pool and pgx.Tx used to run DDL.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ApplyMigrations runs every embedded migration in filename order. The DDL is
// written with IF NOT EXISTS / OR REPLACE so reapplying is a no-op.
func ApplyMigrations(ctx context.Context, db Execer, log zerolog.Logger) error {
	return applyFrom(ctx, db, embedsql.Migrations, "migrations", log)
}

func applyFrom(ctx context.Context, db Execer, fsys fs.FS, dir string, log zerolog.Logger) error {
	names, err := MigrationNames(fsys, dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		log.Info().Str("migration", name).Msg("applying migration")
		if _, err := db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
	}

	log.Info().Int("count", len(names)).Msg("all migrations applied")
	return nil
}

// MigrationNames lists the .sql files under dir sorted by name.
func MigrationNames(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
