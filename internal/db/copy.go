package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/agurod42/outfox-health/internal/model"
)

// CentroidColumns is the COPY column order produced by CentroidSource.
var CentroidColumns = []string{"zip5", "lat", "lng", "geohash"}

// CentroidSource implements pgx.CopyFromSource over a channel of centroids,
// so the producer walking the reference dataset and the COPY writer run in step.
type CentroidSource struct {
	ch      <-chan model.ZipCentroid
	current model.ZipCentroid
	n       int64
}

// NewCentroidSource creates a CopyFromSource backed by ch.
func NewCentroidSource(ch <-chan model.ZipCentroid) *CentroidSource {
	return &CentroidSource{ch: ch}
}

// Next advances to the next centroid. Returns false when the channel is closed.
func (s *CentroidSource) Next() bool {
	c, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = c
	s.n++
	return true
}

// Values returns the current centroid in CentroidColumns order.
func (s *CentroidSource) Values() ([]any, error) {
	c := s.current
	var gh any
	if c.Geohash != "" {
		gh = c.Geohash
	}
	return []any{c.Zip5, c.Lat, c.Lng, gh}, nil
}

// Err always returns nil; the producer reports its own failures.
func (s *CentroidSource) Err() error {
	return nil
}

// Count returns how many rows have been handed to COPY.
func (s *CentroidSource) Count() int64 {
	return s.n
}

var _ pgx.CopyFromSource = (*CentroidSource)(nil)
