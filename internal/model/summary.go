package model

import "time"

// LoadSummary captures metrics from a single bulk load run.
type LoadSummary struct {
	RunID             string
	FilePath          string
	FileSHA256        string
	Skipped           bool
	RowsRead          int64
	RowsLoaded        int64
	RowsRejected      int64
	ProvidersTouched  int64
	CentroidsAdded    int64
	CentroidsMissing  int64
	DurationLoad      time.Duration
	DurationCentroids time.Duration
	DurationTotal     time.Duration
}
