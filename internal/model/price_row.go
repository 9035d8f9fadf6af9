package model

// PriceRow is one source line of the CMS inpatient charges dataset, after
// header mapping but before normalization. It doubles as the Parquet schema
// for fixture and columnar inputs.
type PriceRow struct {
	ProviderID          string `parquet:"provider_id"`
	ProviderName        string `parquet:"provider_name"`
	City                string `parquet:"city,optional"`
	State               string `parquet:"state,optional"`
	Zip                 string `parquet:"zip"`
	DrgCode             string `parquet:"ms_drg_code,optional"`
	DrgDescription      string `parquet:"ms_drg_description"`
	TotalDischarges     string `parquet:"total_discharges,optional"`
	AvgCoveredCharges   string `parquet:"avg_covered_charges,optional"`
	AvgTotalPayments    string `parquet:"avg_total_payments,optional"`
	AvgMedicarePayments string `parquet:"avg_medicare_payments,optional"`
	Rating              *int32 `parquet:"rating,optional"`
}

// PriceRowColumns lists the Parquet column names in struct order.
func PriceRowColumns() []string {
	return []string{
		"provider_id",
		"provider_name",
		"city",
		"state",
		"zip",
		"ms_drg_code",
		"ms_drg_description",
		"total_discharges",
		"avg_covered_charges",
		"avg_total_payments",
		"avg_medicare_payments",
		"rating",
	}
}

// RequiredPriceColumns are the columns a source must provide.
func RequiredPriceColumns() []string {
	return []string{"provider_id", "provider_name", "zip", "ms_drg_description"}
}

// NormalizedRow is a PriceRow after normalization, ready for upsert.
type NormalizedRow struct {
	Provider Provider
	Price    DrgPrice
	Rating   *Rating
}
