package ingest

import (
	"fmt"
	"strings"

	"github.com/agurod42/outfox-health/internal/model"
)

// headerAliases lists, per PriceRow column, the header spellings seen across
// CMS inpatient charge releases. Earlier entries win when a file carries
// more than one.
var headerAliases = map[string][]string{
	"provider_id":           {"Rndrng_Prvdr_CCN", "provider_id", "Provider.Id", "Provider Id"},
	"provider_name":         {"Rndrng_Prvdr_Org_Name", "provider_name", "Provider.Name", "Provider Name", "name"},
	"city":                  {"Rndrng_Prvdr_City", "city", "provider_city", "Provider City"},
	"state":                 {"Rndrng_Prvdr_State_Abrvtn", "state", "provider_state", "Provider State"},
	"zip":                   {"Rndrng_Prvdr_Zip5", "zip", "zip5", "zip_code", "Provider Zip Code"},
	"ms_drg_code":           {"DRG_Cd", "ms_drg_code", "DRG.Code", "DRG_Code", "drg"},
	"ms_drg_description":    {"ms_drg_description", "ms_drg_definition", "DRG.Definition", "DRG Definition", "DRG_Desc"},
	"total_discharges":      {"Tot_Dschrgs", "total_discharges", "Total Discharges"},
	"avg_covered_charges":   {"Avg_Cvrg_Chrg", "average_covered_charges", "avg_covered_charges", "Average.Covered.Charges", "Average Covered Charges", "Avg Covered Charges"},
	"avg_total_payments":    {"Avg_Tot_Pymt_Amt", "average_total_payments", "avg_total_payments", "Average.Total.Payments", "Average Total Payments", "Avg Total Payments"},
	"avg_medicare_payments": {"Avg_Mdcr_Pymt_Amt", "average_medicare_payments", "avg_medicare_payments", "Average.Medicare.Payments", "Average Medicare Payments", "Avg Medicare Payments"},
	"rating":                {"rating", "hospital_rating", "Hospital Rating"},
}

// ColumnMap records, for each PriceRow column, the index and original header
// of the source column feeding it. Absent columns are not in the map.
type ColumnMap map[string]SourceColumn

// SourceColumn is one matched header.
type SourceColumn struct {
	Index  int
	Header string
}

// MapHeader matches a CSV header row against the known aliases,
// case-insensitively and ignoring surrounding whitespace and a UTF-8 BOM.
func MapHeader(header []string) (ColumnMap, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		key := headerKey(h)
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}

	cols := make(ColumnMap)
	for _, col := range model.PriceRowColumns() {
		for _, alias := range headerAliases[col] {
			if i, ok := byName[headerKey(alias)]; ok {
				cols[col] = SourceColumn{Index: i, Header: strings.TrimSpace(strings.TrimPrefix(header[i], bom))}
				break
			}
		}
	}

	var missing []string
	for _, col := range model.RequiredPriceColumns() {
		if _, ok := cols[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

// Columns returns the mapped PriceRow columns in schema order.
func (m ColumnMap) Columns() []string {
	var out []string
	for _, col := range model.PriceRowColumns() {
		if _, ok := m[col]; ok {
			out = append(out, col)
		}
	}
	return out
}

const bom = "\ufeff"

func headerKey(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, bom)))
}
