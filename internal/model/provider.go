package model

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Money is emitted as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Provider is one facility, keyed by its CCN.
type Provider struct {
	ProviderID string
	Name       string
	City       *string
	State      *string
	Zip5       string
}

// DrgPrice is one (provider, MS-DRG) price line. Money values are fixed-point
// with two fractional digits; nil means the source did not report it.
type DrgPrice struct {
	ProviderID          string
	DrgCode             string // always a zero-padded 3-digit string
	DrgDescription      string
	TotalDischarges     *int32
	AvgCoveredCharges   *decimal.Decimal
	AvgTotalPayments    *decimal.Decimal
	AvgMedicarePayments *decimal.Decimal
}

// Rating is a provider's quality score (1–10). Most recent write wins.
type Rating struct {
	ProviderID string
	Rating     int32
}

// ZipCentroid is the representative coordinate of a ZIP5 area.
type ZipCentroid struct {
	Zip5    string
	Lat     float64
	Lng     float64
	Geohash string
}

// ProviderOut is the result record returned by /providers and /ask.
type ProviderOut struct {
	ProviderID          string           `json:"provider_id"`
	ProviderName        string           `json:"provider_name"`
	City                *string          `json:"city"`
	State               *string          `json:"state"`
	Zip                 string           `json:"zip"`
	MsDrgCode           *string          `json:"ms_drg_code"`
	MsDrgDescription    *string          `json:"ms_drg_description"`
	TotalDischarges     *int64           `json:"total_discharges"`
	AvgCoveredCharges   *decimal.Decimal `json:"avg_covered_charges"`
	AvgTotalPayments    *decimal.Decimal `json:"avg_total_payments"`
	AvgMedicarePayments *decimal.Decimal `json:"avg_medicare_payments"`
	Rating              *int64           `json:"rating"`
	DistanceKm          *float64         `json:"distance_km,omitempty"`
}
