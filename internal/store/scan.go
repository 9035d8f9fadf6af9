package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/agurod42/outfox-health/internal/model"
)

// mapRow assigns values by column name. Columns outside the result shape are
// ignored, so model-written queries may select extra expressions.
func mapRow(names []string, vals []any) (model.ProviderOut, error) {
	var p model.ProviderOut
	for i, name := range names {
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		v := vals[i]
		var err error
		switch strings.ToLower(name) {
		case "provider_id":
			p.ProviderID, err = asString(v)
		case "provider_name":
			p.ProviderName, err = asString(v)
		case "city":
			p.City, err = asOptString(v)
		case "state":
			p.State, err = asOptString(v)
		case "zip":
			p.Zip, err = asString(v)
		case "ms_drg_code":
			p.MsDrgCode, err = asOptString(v)
		case "ms_drg_description":
			p.MsDrgDescription, err = asOptString(v)
		case "total_discharges":
			p.TotalDischarges, err = asOptInt(v)
		case "avg_covered_charges":
			p.AvgCoveredCharges, err = asMoney(v)
		case "avg_total_payments":
			p.AvgTotalPayments, err = asMoney(v)
		case "avg_medicare_payments":
			p.AvgMedicarePayments, err = asMoney(v)
		case "rating":
			p.Rating, err = asOptInt(v)
		case "distance_km":
			p.DistanceKm, err = asOptFloat(v)
		}
		if err != nil {
			return p, fmt.Errorf("column %s: %w", name, err)
		}
	}
	return p, nil
}

func asString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return strings.TrimRight(t, " "), nil
	case []byte:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return fmt.Sprint(v), nil
}

func asOptString(v any) (*string, error) {
	s, err := asString(v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func asOptInt(v any) (*int64, error) {
	var i int64
	switch t := v.(type) {
	case int16:
		i = int64(t)
	case int32:
		i = int64(t)
	case int64:
		i = t
	case int:
		i = int64(t)
	case float64:
		i = int64(math.Round(t))
	case pgtype.Numeric:
		d, err := numericToDecimal(t)
		if err != nil || d == nil {
			return nil, err
		}
		i = d.Round(0).IntPart()
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, err
		}
		i = n
	default:
		return nil, fmt.Errorf("unsupported integer type %T", v)
	}
	return &i, nil
}

func asOptFloat(v any) (*float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case pgtype.Numeric:
		d, err := numericToDecimal(t)
		if err != nil || d == nil {
			return nil, err
		}
		f = d.InexactFloat64()
	default:
		return nil, fmt.Errorf("unsupported float type %T", v)
	}
	return &f, nil
}

// asMoney converts a NUMERIC (or a float from an aggregate the model cast)
// into a decimal rounded to cents.
func asMoney(v any) (*decimal.Decimal, error) {
	var d decimal.Decimal
	switch t := v.(type) {
	case pgtype.Numeric:
		p, err := numericToDecimal(t)
		if err != nil || p == nil {
			return nil, err
		}
		d = *p
	case float64:
		d = decimal.NewFromFloat(t)
	case float32:
		d = decimal.NewFromFloat32(t)
	case int32:
		d = decimal.NewFromInt32(t)
	case int64:
		d = decimal.NewFromInt(t)
	case string:
		p, err := decimal.NewFromString(t)
		if err != nil {
			return nil, err
		}
		d = p
	default:
		return nil, fmt.Errorf("unsupported money type %T", v)
	}
	d = d.Round(2)
	return &d, nil
}

func numericToDecimal(n pgtype.Numeric) (*decimal.Decimal, error) {
	if !n.Valid {
		return nil, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, fmt.Errorf("non-finite numeric")
	}
	if n.Int == nil {
		return &decimal.Zero, nil
	}
	d := decimal.NewFromBigInt(n.Int, n.Exp)
	return &d, nil
}
