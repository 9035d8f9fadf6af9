package search

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/agurod42/outfox-health/internal/apperr"
	"github.com/agurod42/outfox-health/internal/geo"
	"github.com/agurod42/outfox-health/internal/model"
	"github.com/agurod42/outfox-health/internal/query"
	"github.com/agurod42/outfox-health/internal/sqlsafe"
	"github.com/agurod42/outfox-health/internal/translate"
)

// AskRequest is a natural-language question plus optional explicit filters.
type AskRequest struct {
	Question   string  `json:"question"`
	IncludeSQL bool    `json:"include_sql"`
	DRG        string  `json:"drg"`
	ZIP        string  `json:"zip"`
	RadiusKm   float64 `json:"radius_km"`
}

// AskResponse is always returned, even when the request failed.
type AskResponse struct {
	Answer   string              `json:"answer"`
	Results  []model.ProviderOut `json:"results"`
	FollowUp *string             `json:"follow_up"`
	SQL      *string             `json:"sql"`
}

// Ask answers a question. It never returns an error: every failure becomes a
// descriptive answer with empty results.
func (s *Service) Ask(ctx context.Context, req AskRequest) AskResponse {
	start := time.Now()
	question := strings.TrimSpace(req.Question)
	hints := translate.ExtractHints(question, translate.Hints{DRG: req.DRG, ZIP: req.ZIP, RadiusKm: req.RadiusKm})
	log := s.log.With().Str("hints", hints.String()).Logger()

	resp := s.ask(ctx, question, hints, req.IncludeSQL)
	if resp.Results == nil {
		resp.Results = []model.ProviderOut{}
	}
	log.Info().Int("rows", len(resp.Results)).Dur("duration", time.Since(start)).Msg("ask answered")
	return resp
}

func (s *Service) ask(ctx context.Context, question string, h translate.Hints, includeSQL bool) AskResponse {
	if question == "" {
		return s.askStructured(ctx, h, includeSQL)
	}

	outcome, err := s.translator.Translate(ctx, question, h)
	if err != nil {
		s.log.Warn().Err(err).Msg("translation failed")
		return AskResponse{Answer: fmt.Sprintf("Sorry, the question could not be translated: %v", err)}
	}

	switch o := outcome.(type) {
	case translate.GuidanceOutcome:
		resp := AskResponse{Answer: o.Message}
		if o.FollowUp != "" {
			resp.FollowUp = strPtr(o.FollowUp)
		}
		return resp
	case translate.SQLOutcome:
		return s.runGenerated(ctx, o.Query, h, includeSQL)
	}
	return AskResponse{Answer: translate.FallbackGuidance}
}

// askStructured serves a body with filters but no question through the
// query builder directly.
func (s *Service) askStructured(ctx context.Context, h translate.Hints, includeSQL bool) AskResponse {
	if h.DRG == "" && h.ZIP == "" {
		return AskResponse{Answer: translate.FallbackGuidance}
	}
	f := query.Filter{DRG: h.DRG, ZIP: h.ZIP, RadiusKm: h.RadiusKm}
	q, err := s.builder.Build(ctx, f)
	if err != nil {
		return AskResponse{Answer: fmt.Sprintf("Sorry, that search is not possible: %v", err)}
	}
	return s.execute(ctx, q, h, includeSQL)
}

func (s *Service) runGenerated(ctx context.Context, raw string, h translate.Hints, includeSQL bool) AskResponse {
	var echo *string
	if includeSQL {
		echo = strPtr(raw)
	}
	if _, err := sqlsafe.Validate(raw); err != nil {
		s.log.Warn().Err(err).Str("sql", raw).Msg("generated query rejected")
		return AskResponse{Answer: fmt.Sprintf("Sorry, the generated query was rejected: %v", err), SQL: echo}
	}

	// The model's distance join needs the origin centroid to be in the table.
	if z, ok := geo.NormalizeZip(h.ZIP); ok && h.RadiusKm > 0 {
		found, err := s.centroids.EnsureCentroid(ctx, z)
		if err != nil {
			err = apperr.Wrap(apperr.KindCentroidUnavailable, err, "centroid lookup for %s failed", z)
		} else if !found {
			err = apperr.New(apperr.KindCentroidUnavailable, "no centroid known for zip %s", z)
		}
		if err != nil {
			s.log.Warn().Err(err).Str("zip", z).Msg("origin centroid unavailable for generated query")
			return AskResponse{Answer: fmt.Sprintf("Sorry, that search is not possible: %v", err), SQL: echo}
		}
	}
	return s.execute(ctx, query.Query{SQL: raw}, h, includeSQL)
}

func (s *Service) execute(ctx context.Context, q query.Query, h translate.Hints, includeSQL bool) AskResponse {
	stmt, err := sqlsafe.Validate(q.SQL)
	var echo *string
	if includeSQL {
		echo = strPtr(q.SQL)
	}
	if err != nil {
		return AskResponse{Answer: fmt.Sprintf("Sorry, the generated query was rejected: %v", err), SQL: echo}
	}
	q.SQL = stmt
	if includeSQL {
		echo = strPtr(stmt)
	}

	rows, err := s.store.Query(ctx, q)
	if err != nil {
		s.log.Warn().Err(err).Msg("ask query failed")
		return AskResponse{Answer: fmt.Sprintf("Sorry, the query could not be executed: %v", err), SQL: echo}
	}
	s.annotateDistances(rows, h.ZIP)
	return AskResponse{Answer: composeAnswer(rows, h), Results: rows, SQL: echo}
}

// annotateDistances fills distance_km from the in-memory resolver for rows
// whose query did not compute it.
func (s *Service) annotateDistances(rows []model.ProviderOut, zip string) {
	if s.resolver == nil || len(rows) == 0 {
		return
	}
	origin, ok := s.resolver.Resolve(zip)
	if !ok {
		return
	}
	var zips []string
	for _, r := range rows {
		if r.DistanceKm == nil {
			zips = append(zips, r.Zip)
		}
	}
	if len(zips) == 0 {
		return
	}
	coords := s.resolver.ResolveBatch(zips)
	for i := range rows {
		if rows[i].DistanceKm != nil {
			continue
		}
		z, ok := geo.NormalizeZip(rows[i].Zip)
		if !ok || coords[z] == nil {
			continue
		}
		d := geo.DistanceKm(origin, *coords[z])
		if math.IsNaN(d) {
			continue
		}
		d = math.Round(d*100) / 100
		rows[i].DistanceKm = &d
	}
}

func strPtr(s string) *string { return &s }
