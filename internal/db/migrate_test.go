package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	embedsql "github.com/agurod42/outfox-health/internal/sql"
)

type recordingExecer struct {
	stmts []string
	fail  string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if r.fail != "" && strings.Contains(sql, r.fail) {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	r.stmts = append(r.stmts, sql)
	return pgconn.CommandTag{}, nil
}

func TestApplyFrom_Order(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_b.sql":  {Data: []byte("B")},
		"m/001_a.sql":  {Data: []byte("A")},
		"m/README.txt": {Data: []byte("ignored")},
	}
	ex := &recordingExecer{}
	if err := applyFrom(context.Background(), ex, fsys, "m", zerolog.Nop()); err != nil {
		t.Fatalf("applyFrom: %v", err)
	}
	if strings.Join(ex.stmts, ",") != "A,B" {
		t.Errorf("unexpected order: %v", ex.stmts)
	}
}

func TestApplyFrom_StopsOnError(t *testing.T) {
	fsys := fstest.MapFS{
		"m/001_a.sql": {Data: []byte("A")},
		"m/002_b.sql": {Data: []byte("B")},
		"m/003_c.sql": {Data: []byte("C")},
	}
	ex := &recordingExecer{fail: "B"}
	err := applyFrom(context.Background(), ex, fsys, "m", zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "002_b.sql") {
		t.Fatalf("expected error naming 002_b.sql, got %v", err)
	}
	if len(ex.stmts) != 1 {
		t.Errorf("expected to stop after first migration, ran %v", ex.stmts)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := MigrationNames(embedsql.Migrations, "migrations")
	if err != nil {
		t.Fatalf("MigrationNames: %v", err)
	}
	if len(names) < 2 || names[0] != "001_schema.sql" {
		t.Fatalf("unexpected migrations: %v", names)
	}
	ex := &recordingExecer{}
	if err := ApplyMigrations(context.Background(), ex, zerolog.Nop()); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	all := strings.Join(ex.stmts, "\n")
	for _, want := range []string{"zip_centroids", "drg_prices", "haversine_km", "least(1.0"} {
		if !strings.Contains(all, want) {
			t.Errorf("migrations missing %q", want)
		}
	}
}
