// Package search runs structured provider searches and natural-language asks.
package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agurod42/outfox-health/internal/geo"
	"github.com/agurod42/outfox-health/internal/model"
	"github.com/agurod42/outfox-health/internal/query"
	"github.com/agurod42/outfox-health/internal/sqlsafe"
	"github.com/agurod42/outfox-health/internal/translate"
)

// Store is the storage the service reads from.
type Store interface {
	Query(ctx context.Context, q query.Query) ([]model.ProviderOut, error)
	CentroidExists(ctx context.Context, zip string) (bool, error)
	InsertCentroid(ctx context.Context, c model.ZipCentroid) (bool, error)
	Ping(ctx context.Context) error
}

// Resolver answers in-memory ZIP centroid lookups.
type Resolver interface {
	Resolve(zip string) (geo.LatLng, bool)
	ResolveBatch(zips []string) map[string]*geo.LatLng
}

// Translator turns a question into an outcome.
type Translator interface {
	Translate(ctx context.Context, question string, h translate.Hints) (translate.Outcome, error)
}

// Service wires the builder, validator, translator and store together.
type Service struct {
	store      Store
	resolver   Resolver
	centroids  *centroidEnsurer
	builder    *query.Builder
	translator Translator
	log        zerolog.Logger
}

// NewService builds a Service. The query builder ensures centroids through
// the store and resolver given here.
func NewService(st Store, res Resolver, tr Translator, log zerolog.Logger) *Service {
	log = log.With().Str("component", "search").Logger()
	ce := &centroidEnsurer{store: st, resolver: res, log: log}
	return &Service{
		store:      st,
		resolver:   res,
		centroids:  ce,
		builder:    query.NewBuilder(ce),
		translator: tr,
		log:        log,
	}
}

// Providers runs a structured search: build, validate, execute.
func (s *Service) Providers(ctx context.Context, f query.Filter) ([]model.ProviderOut, error) {
	start := time.Now()
	q, err := s.builder.Build(ctx, f)
	if err != nil {
		return nil, err
	}
	stmt, err := sqlsafe.Validate(q.SQL)
	if err != nil {
		s.log.Error().Err(err).Msg("builder produced a statement the validator rejected")
		return nil, err
	}
	q.SQL = stmt

	out, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Str("drg", f.DRG).
		Str("zip", f.ZIP).
		Float64("radius_km", f.RadiusKm).
		Int("rows", len(out)).
		Dur("duration", time.Since(start)).
		Msg("provider search")
	return out, nil
}

// Ping reports storage health.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
