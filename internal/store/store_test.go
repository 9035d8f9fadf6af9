package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/apperr"
	"github.com/agurod42/outfox-health/internal/query"
)

// fakeRows serves canned values through the pgx.Rows interface.
type fakeRows struct {
	names []string
	data  [][]any
	i     int
	err   error
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Scan(...any) error             { return errors.New("not implemented") }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.names))
	for i, n := range r.names {
		fds[i] = pgconn.FieldDescription{Name: n}
	}
	return fds
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Values() ([]any, error) { return r.data[r.i-1], nil }

type fakeDB struct {
	rows     *fakeRows
	queryErr error
	gotSQL   string
	gotArgs  []any
	gotOpts  *pgx.TxOptions
	direct   int
	txQuery  int
	commits  int
	rollback int
}

// fakeTx forwards queries to its fakeDB and counts how it was finished.
type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	t.db.txQuery++
	return t.db.run(sql, args)
}
func (t *fakeTx) Commit(context.Context) error   { t.db.commits++; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.db.rollback++; return nil }

func (f *fakeDB) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	f.gotOpts = &opts
	return &fakeTx{db: f}, nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.direct++
	return f.run(sql, args)
}

func (f *fakeDB) run(sql string, args []any) (pgx.Rows, error) {
	f.gotSQL, f.gotArgs = sql, args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}
func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }
func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (f *fakeDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (f *fakeDB) Ping(context.Context) error                             { return nil }

func numeric(unscaled int64, exp int32) pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(unscaled), Exp: exp, Valid: true}
}

func TestQuery_MapsColumnsByName(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{
		names: []string{"provider_name", "provider_id", "zip", "ms_drg_code", "total_discharges", "avg_covered_charges", "rating", "distance_km", "extra"},
		data: [][]any{
			{"Mount Sinai", "330024", "10029", "470", int32(120), numeric(5432109, -2), int32(9), 5.25, "ignored"},
			{"NYU Langone", "330214", "10016", "470", nil, nil, nil, 3.1, nil},
		},
	}}
	q := query.Query{SQL: "SELECT ...", Args: map[string]any{"drg": "470"}}
	out, err := New(db, zerolog.Nop()).Query(context.Background(), q)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	p := out[0]
	if p.ProviderID != "330024" || p.ProviderName != "Mount Sinai" || p.Zip != "10029" {
		t.Errorf("unexpected identity: %+v", p)
	}
	if p.MsDrgCode == nil || *p.MsDrgCode != "470" {
		t.Errorf("MsDrgCode: %v", p.MsDrgCode)
	}
	if p.TotalDischarges == nil || *p.TotalDischarges != 120 {
		t.Errorf("TotalDischarges: %v", p.TotalDischarges)
	}
	if p.AvgCoveredCharges == nil || p.AvgCoveredCharges.StringFixed(2) != "54321.09" {
		t.Errorf("AvgCoveredCharges: %v", p.AvgCoveredCharges)
	}
	if p.Rating == nil || *p.Rating != 9 {
		t.Errorf("Rating: %v", p.Rating)
	}
	if p.DistanceKm == nil || *p.DistanceKm != 5.25 {
		t.Errorf("DistanceKm: %v", p.DistanceKm)
	}
	if out[1].AvgCoveredCharges != nil || out[1].Rating != nil {
		t.Errorf("NULLs should stay nil: %+v", out[1])
	}
	if len(db.gotArgs) != 1 {
		t.Errorf("named args should be passed as one argument, got %d", len(db.gotArgs))
	}
}

func TestQuery_NoArgsPassesNone(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{}}
	if _, err := New(db, zerolog.Nop()).Query(context.Background(), query.Query{SQL: "SELECT 1"}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(db.gotArgs) != 0 {
		t.Errorf("expected no args, got %v", db.gotArgs)
	}
}

func TestQuery_RunsInReadOnlyTransaction(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{names: []string{"provider_id"}, data: [][]any{{"330024"}}}}
	if _, err := New(db, zerolog.Nop()).Query(context.Background(), query.Query{SQL: "SELECT provider_id FROM providers"}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if db.gotOpts == nil || db.gotOpts.AccessMode != pgx.ReadOnly {
		t.Fatalf("expected a read-only transaction, got %+v", db.gotOpts)
	}
	if db.txQuery != 1 || db.direct != 0 {
		t.Errorf("query should run on the transaction: tx=%d direct=%d", db.txQuery, db.direct)
	}
	if db.commits != 1 {
		t.Errorf("expected one commit, got %d", db.commits)
	}
}

func TestQuery_FailureRollsBack(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("cannot execute INSERT in a read-only transaction")}
	_, err := New(db, zerolog.Nop()).Query(context.Background(), query.Query{SQL: "SELECT"})
	if !apperr.Is(err, apperr.KindQueryExecution) {
		t.Fatalf("expected QueryExecution, got %v", err)
	}
	if db.commits != 0 || db.rollback != 1 {
		t.Errorf("expected rollback without commit: commits=%d rollbacks=%d", db.commits, db.rollback)
	}
}

func TestQuery_CapsRows(t *testing.T) {
	rows := &fakeRows{names: []string{"provider_id"}}
	for i := 0; i < query.MaxRows+25; i++ {
		rows.data = append(rows.data, []any{fmt.Sprintf("%06d", i)})
	}
	out, err := New(&fakeDB{rows: rows}, zerolog.Nop()).Query(context.Background(), query.Query{SQL: "SELECT"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(out) != query.MaxRows {
		t.Errorf("expected %d rows, got %d", query.MaxRows, len(out))
	}
}

func TestQuery_ErrorsAreQueryExecution(t *testing.T) {
	_, err := New(&fakeDB{queryErr: errors.New("relation does not exist")}, zerolog.Nop()).
		Query(context.Background(), query.Query{SQL: "SELECT"})
	if !apperr.Is(err, apperr.KindQueryExecution) {
		t.Errorf("expected QueryExecution, got %v", err)
	}

	rows := &fakeRows{err: errors.New("canceling statement due to statement timeout")}
	_, err = New(&fakeDB{rows: rows}, zerolog.Nop()).Query(context.Background(), query.Query{SQL: "SELECT"})
	if !apperr.Is(err, apperr.KindQueryExecution) {
		t.Errorf("expected QueryExecution for rows error, got %v", err)
	}
}

func TestMapRow_Conversions(t *testing.T) {
	p, err := mapRow(
		[]string{"PROVIDER_ID", "zip", "avg_total_payments", "avg_medicare_payments", "total_discharges", "rating"},
		[]any{"010001", "36301", 1234.567, "99.999", int64(12), pgtype.Numeric{Int: big.NewInt(75), Exp: -1, Valid: true}},
	)
	if err != nil {
		t.Fatalf("mapRow: %v", err)
	}
	if p.ProviderID != "010001" || p.Zip != "36301" {
		t.Errorf("identity: %+v", p)
	}
	if p.AvgTotalPayments.StringFixed(2) != "1234.57" {
		t.Errorf("float money: %s", p.AvgTotalPayments)
	}
	if p.AvgMedicarePayments.StringFixed(2) != "100.00" {
		t.Errorf("string money: %s", p.AvgMedicarePayments)
	}
	if *p.TotalDischarges != 12 || *p.Rating != 8 {
		t.Errorf("ints: %d %d", *p.TotalDischarges, *p.Rating)
	}

	if _, err := mapRow([]string{"rating"}, []any{true}); err == nil {
		t.Error("expected error for bool rating")
	}
	if _, err := mapRow([]string{"avg_covered_charges"}, []any{pgtype.Numeric{NaN: true, Valid: true}}); err == nil {
		t.Error("expected error for NaN money")
	}
}
