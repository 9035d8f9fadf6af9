package db

import (
	"testing"

	"github.com/agurod42/outfox-health/internal/model"
)

func TestCentroidSource(t *testing.T) {
	ch := make(chan model.ZipCentroid, 2)
	ch <- model.ZipCentroid{Zip5: "10001", Lat: 40.7, Lng: -74.0, Geohash: "dr5rs1"}
	ch <- model.ZipCentroid{Zip5: "36301", Lat: 31.2, Lng: -85.4}
	close(ch)

	src := NewCentroidSource(ch)
	var rows [][]any
	for src.Next() {
		v, err := src.Values()
		if err != nil {
			t.Fatalf("Values: %v", err)
		}
		rows = append(rows, v)
	}
	if src.Err() != nil {
		t.Fatalf("Err: %v", src.Err())
	}
	if src.Count() != 2 || len(rows) != 2 {
		t.Fatalf("expected 2 rows, got count=%d rows=%d", src.Count(), len(rows))
	}
	if len(rows[0]) != len(CentroidColumns) {
		t.Errorf("column count mismatch: %d vs %d", len(rows[0]), len(CentroidColumns))
	}
	if rows[0][0] != "10001" || rows[0][3] != "dr5rs1" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if rows[1][3] != nil {
		t.Errorf("empty geohash should be NULL, got %v", rows[1][3])
	}
}
