package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/agurod42/outfox-health/internal/model"
)

// ToNormalizedRow converts a header-mapped PriceRow into a DB-ready row.
// Rows without a provider id, a provider name or a derivable DRG code are
// rejected rather than stored under a sentinel code.
func ToNormalizedRow(row *model.PriceRow) (*model.NormalizedRow, error) {
	providerID := CCN(row.ProviderID)
	if providerID == "" {
		return nil, fmt.Errorf("missing provider id")
	}
	name := CleanText(row.ProviderName)
	if name == "" {
		return nil, fmt.Errorf("provider %s: missing provider name", providerID)
	}
	description := CleanText(row.DrgDescription)
	code, err := DrgCode(row.DrgCode, description)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", providerID, err)
	}

	n := &model.NormalizedRow{
		Provider: model.Provider{
			ProviderID: providerID,
			Name:       name,
			City:       OptText(row.City),
			State:      optUpper(row.State),
			Zip5:       Zip5(row.Zip),
		},
		Price: model.DrgPrice{
			ProviderID:     providerID,
			DrgCode:        code,
			DrgDescription: description,
		},
	}

	if n.Price.TotalDischarges, err = optInt32(row.TotalDischarges); err != nil {
		return nil, fmt.Errorf("provider %s drg %s: total discharges: %w", providerID, code, err)
	}
	amounts := []struct {
		column string
		raw    string
		dst    **decimal.Decimal
	}{
		{"avg covered charges", row.AvgCoveredCharges, &n.Price.AvgCoveredCharges},
		{"avg total payments", row.AvgTotalPayments, &n.Price.AvgTotalPayments},
		{"avg medicare payments", row.AvgMedicarePayments, &n.Price.AvgMedicarePayments},
	}
	for _, a := range amounts {
		if *a.dst, err = Money(a.raw); err != nil {
			return nil, fmt.Errorf("provider %s drg %s: %s: %w", providerID, code, a.column, err)
		}
	}

	if row.Rating != nil {
		r := *row.Rating
		if r < 1 || r > 10 {
			return nil, fmt.Errorf("provider %s: rating %d out of range 1..10", providerID, r)
		}
		n.Rating = &model.Rating{ProviderID: providerID, Rating: r}
	}
	return n, nil
}

func optUpper(s string) *string {
	s = strings.ToUpper(CleanText(s))
	if s == "" {
		return nil
	}
	return &s
}

func optInt32(s string) (*int32, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil, err
	}
	i := int32(v)
	return &i, nil
}
