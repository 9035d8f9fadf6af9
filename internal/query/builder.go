// Package query builds the parameterized provider search statement.
package query

import (
	"context"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/agurod42/outfox-health/internal/apperr"
	"github.com/agurod42/outfox-health/internal/geo"
)

// MaxRows caps every provider query.
const MaxRows = 100

// Filter is a structured provider search.
type Filter struct {
	DRG      string
	ZIP      string
	RadiusKm float64
}

// Query is a statement plus its named arguments. User-supplied values only
// ever appear in Args.
type Query struct {
	SQL  string
	Args pgx.NamedArgs
}

// CentroidSource guarantees a centroid row exists for a ZIP before a radius
// query joins on it.
type CentroidSource interface {
	EnsureCentroid(ctx context.Context, zip string) (bool, error)
}

// Builder turns a Filter into a Query.
type Builder struct {
	Centroids CentroidSource
}

// NewBuilder returns a Builder using cs for radius searches.
func NewBuilder(cs CentroidSource) *Builder {
	return &Builder{Centroids: cs}
}

const selectColumns = `SELECT
  p.provider_id,
  p.provider_name,
  p.city,
  p.state,
  p.zip,
  dp.ms_drg_code,
  dp.ms_drg_description,
  dp.total_discharges,
  dp.avg_covered_charges,
  dp.avg_total_payments,
  dp.avg_medicare_payments,
  r.rating`

const distanceExpr = "haversine_km(zq.lat, zq.lng, zp.lat, zp.lng)"

// Build produces the search statement for f. A radius search first asks the
// CentroidSource for the request ZIP's centroid and fails with
// CentroidUnavailable when there is none.
func (b *Builder) Build(ctx context.Context, f Filter) (Query, error) {
	drg := strings.TrimSpace(f.DRG)
	zip := strings.TrimSpace(f.ZIP)
	if drg == "" && zip == "" {
		return Query{}, apperr.New(apperr.KindInvalidRequest, "provide at least one of drg or zip")
	}
	if zip != "" {
		z, ok := geo.NormalizeZip(zip)
		if !ok || len(zip) != 5 {
			return Query{}, apperr.New(apperr.KindInvalidRequest, "zip must be a 5-digit code")
		}
		zip = z
	}
	if math.IsNaN(f.RadiusKm) || math.IsInf(f.RadiusKm, 0) {
		return Query{}, apperr.New(apperr.KindInvalidRequest, "radius_km must be a finite number")
	}
	radius := zip != "" && f.RadiusKm > 0

	if radius {
		if b.Centroids == nil {
			return Query{}, apperr.New(apperr.KindCentroidUnavailable, "no centroid source configured for radius search")
		}
		ok, err := b.Centroids.EnsureCentroid(ctx, zip)
		if err != nil {
			return Query{}, apperr.Wrap(apperr.KindCentroidUnavailable, err, "centroid lookup for %s failed", zip)
		}
		if !ok {
			return Query{}, apperr.New(apperr.KindCentroidUnavailable, "no centroid known for zip %s", zip)
		}
	}

	args := pgx.NamedArgs{}
	var sb strings.Builder
	sb.WriteString(selectColumns)
	if radius {
		sb.WriteString(",\n  " + distanceExpr + " AS distance_km")
	}
	sb.WriteString("\nFROM drg_prices dp\nJOIN providers p ON p.provider_id = dp.provider_id\nLEFT JOIN ratings r ON r.provider_id = p.provider_id")
	if radius {
		sb.WriteString("\nJOIN zip_centroids zp ON zp.zip5 = p.zip\nJOIN zip_centroids zq ON zq.zip5 = @zip")
	}

	var where []string
	if drg != "" {
		where = append(where, "(dp.ms_drg_code = @drg OR dp.ms_drg_description ILIKE @drg_like)")
		args["drg"] = drg
		args["drg_like"] = "%" + EscapeLike(drg) + "%"
	}
	switch {
	case radius:
		where = append(where, distanceExpr+" <= @radius_km")
		args["zip"] = zip
		args["radius_km"] = f.RadiusKm
	case zip != "":
		where = append(where, "p.zip = @zip")
		args["zip"] = zip
	}
	sb.WriteString("\nWHERE " + strings.Join(where, "\n  AND "))
	sb.WriteString("\nORDER BY dp.avg_covered_charges ASC NULLS LAST\nLIMIT 100")

	return Query{SQL: sb.String(), Args: args}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE metacharacters using the default backslash escape.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
