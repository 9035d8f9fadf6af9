package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agurod42/outfox-health/internal/model"
	"github.com/agurod42/outfox-health/internal/parquetread"
)

// RowSource yields header-mapped price rows until io.EOF.
type RowSource interface {
	Next() (*model.PriceRow, error)
	// Columns lists the PriceRow columns the source provides.
	Columns() []string
	Close() error
}

// OpenSource opens a Parquet file when path ends in .parquet and a CSV file
// otherwise. Both validate their columns before returning.
func OpenSource(path string) (RowSource, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		r, err := parquetread.Open(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	r, err := OpenCSV(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// CSVReader streams a CMS inpatient charges CSV.
type CSVReader struct {
	closer io.Closer
	r      *csv.Reader
	cols   ColumnMap
	line   int
	row    model.PriceRow
}

// OpenCSV opens path and maps its header.
func OpenCSV(path string) (*CSVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	r, err := NewCSVReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewCSVReader reads the header from rd and maps it.
func NewCSVReader(rd io.Reader) (*CSVReader, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := MapHeader(header)
	if err != nil {
		return nil, err
	}
	return &CSVReader{r: cr, cols: cols, line: 1}, nil
}

// Mapping returns the matched source headers.
func (c *CSVReader) Mapping() ColumnMap {
	return c.cols
}

// Columns implements RowSource.
func (c *CSVReader) Columns() []string {
	return c.cols.Columns()
}

// Next returns the next data row. The returned pointer is reused by the
// following call.
func (c *CSVReader) Next() (*model.PriceRow, error) {
	rec, err := c.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	c.line++
	if err != nil {
		return nil, fmt.Errorf("read csv line %d: %w", c.line, err)
	}

	get := func(col string) string {
		sc, ok := c.cols[col]
		if !ok || sc.Index >= len(rec) {
			return ""
		}
		return rec[sc.Index]
	}

	c.row = model.PriceRow{
		ProviderID:          get("provider_id"),
		ProviderName:        get("provider_name"),
		City:                get("city"),
		State:               get("state"),
		Zip:                 get("zip"),
		DrgCode:             get("ms_drg_code"),
		DrgDescription:      get("ms_drg_description"),
		TotalDischarges:     get("total_discharges"),
		AvgCoveredCharges:   get("avg_covered_charges"),
		AvgTotalPayments:    get("avg_total_payments"),
		AvgMedicarePayments: get("avg_medicare_payments"),
	}
	// A blank or non-numeric rating leaves the provider unrated.
	if v := strings.TrimSpace(get("rating")); v != "" {
		if r, err := strconv.ParseInt(v, 10, 32); err == nil {
			rating := int32(r)
			c.row.Rating = &rating
		}
	}
	return &c.row, nil
}

// Line returns the 1-based line number of the last row read.
func (c *CSVReader) Line() int {
	return c.line
}

// Close closes the underlying file, if any.
func (c *CSVReader) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

var (
	_ RowSource = (*CSVReader)(nil)
	_ RowSource = (*parquetread.Reader)(nil)
)
