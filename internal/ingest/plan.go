package ingest

import (
	"fmt"
	"io"

	"github.com/agurod42/outfox-health/internal/normalize"
)

const maxRejectSamples = 5

// PlanResult describes what a load of a file would do, without touching
// the database.
type PlanResult struct {
	FilePath   string
	FileSHA256 string
	FileSize   int64
	Columns    []string
	// Mapping is the matched source header per column; nil for Parquet.
	Mapping ColumnMap

	RowsRead      int64
	RowsValid     int64
	RowsRejected  int64
	Providers     int
	DrgCodes      int
	Zips          int
	RatedRows     int64
	RejectSamples []string
}

// Plan reads and normalizes every row of path and reports counts.
func Plan(path string) (*PlanResult, error) {
	sha, size, err := normalize.FileHash(path)
	if err != nil {
		return nil, fmt.Errorf("plan hash: %w", err)
	}

	src, err := OpenSource(path)
	if err != nil {
		return nil, fmt.Errorf("plan open: %w", err)
	}
	defer src.Close()

	pr := &PlanResult{
		FilePath:   path,
		FileSHA256: sha,
		FileSize:   size,
		Columns:    src.Columns(),
	}
	if c, ok := src.(*CSVReader); ok {
		pr.Mapping = c.Mapping()
	}

	providers := make(map[string]struct{})
	codes := make(map[string]struct{})
	zips := make(map[string]struct{})

	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("plan read: %w", err)
		}
		pr.RowsRead++

		nr, err := normalize.ToNormalizedRow(row)
		if err != nil {
			pr.RowsRejected++
			if len(pr.RejectSamples) < maxRejectSamples {
				pr.RejectSamples = append(pr.RejectSamples, fmt.Sprintf("row %d: %v", pr.RowsRead, err))
			}
			continue
		}
		pr.RowsValid++
		providers[nr.Provider.ProviderID] = struct{}{}
		codes[nr.Price.DrgCode] = struct{}{}
		zips[nr.Provider.Zip5] = struct{}{}
		if nr.Rating != nil {
			pr.RatedRows++
		}
	}

	pr.Providers = len(providers)
	pr.DrgCodes = len(codes)
	pr.Zips = len(zips)
	return pr, nil
}
