// Package parquetread streams price rows out of Parquet files whose columns
// follow model.PriceRow.
package parquetread

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/agurod42/outfox-health/internal/model"
)

const bufferRows = 512

// Reader yields PriceRow records one at a time, reading the file in blocks.
type Reader struct {
	file   *os.File
	reader *parquet.GenericReader[model.PriceRow]

	buf  []model.PriceRow
	pos  int
	n    int
	done bool
}

// Open opens path and checks its schema before returning a Reader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if err := ValidateSchema(pf.Schema()); err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{
		file:   f,
		reader: parquet.NewGenericReader[model.PriceRow](pf),
		buf:    make([]model.PriceRow, bufferRows),
	}, nil
}

// NumRows returns the row count recorded in the file metadata.
func (r *Reader) NumRows() int64 {
	return r.reader.NumRows()
}

// Columns returns the logical column names the file provides.
func (r *Reader) Columns() []string {
	var cols []string
	for _, f := range r.reader.Schema().Fields() {
		cols = append(cols, f.Name())
	}
	return cols
}

// Next returns the next row, or io.EOF after the last one. The returned
// pointer is only valid until the following call.
func (r *Reader) Next() (*model.PriceRow, error) {
	for r.pos >= r.n {
		if r.done {
			return nil, io.EOF
		}
		n, err := r.reader.Read(r.buf)
		r.pos, r.n = 0, n
		if err == io.EOF {
			r.done = true
		} else if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}
	row := &r.buf[r.pos]
	r.pos++
	return row, nil
}

// Close releases the reader and the underlying file.
func (r *Reader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
