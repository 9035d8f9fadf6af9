// mkfixture converts a CMS inpatient charges CSV into a small Parquet fixture
// of price rows. Rows covering a DRG code or state not yet selected are
// taken first, then the rest fill up to --rows.
// Usage: go run ./cmd/mkfixture --in testdata/prices.csv --out testdata/prices-small.parquet --rows 200
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/agurod42/outfox-health/internal/ingest"
	"github.com/agurod42/outfox-health/internal/model"
	"github.com/agurod42/outfox-health/internal/normalize"
)

func main() {
	in := flag.String("in", "testdata/prices.csv", "input csv")
	out := flag.String("out", "testdata/prices-small.parquet", "output parquet")
	maxRows := flag.Int("rows", 200, "max rows to output; 0 keeps every row")
	checkOnly := flag.Bool("check", false, "only print stats, don't write")
	flag.Parse()

	src, err := ingest.OpenCSV(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	seenDrg := make(map[string]bool)
	seenState := make(map[string]bool)
	var diverse, general []model.PriceRow
	var totalRead, rejected int

	for {
		row, readErr := src.Next()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "read: %v\n", readErr)
			os.Exit(1)
		}
		totalRead++

		nr, err := normalize.ToNormalizedRow(row)
		if err != nil {
			rejected++
			continue
		}
		state := ""
		if nr.Provider.State != nil {
			state = *nr.Provider.State
		}
		if !seenDrg[nr.Price.DrgCode] || !seenState[state] {
			seenDrg[nr.Price.DrgCode] = true
			seenState[state] = true
			diverse = append(diverse, *row)
			continue
		}
		if *maxRows == 0 || len(general) < *maxRows {
			general = append(general, *row)
		}
	}
	fmt.Printf("Scanned %d rows (%d rejected, %d DRG codes, %d states)\n",
		totalRead, rejected, len(seenDrg), len(seenState))

	if *checkOnly {
		codes := make([]string, 0, len(seenDrg))
		for c := range seenDrg {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		fmt.Printf("DRG codes: %v\n", codes)
		return
	}

	selected := append(diverse, general...)
	if *maxRows > 0 && len(selected) > *maxRows {
		selected = selected[:*maxRows]
	}

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	writer := goparquet.NewGenericWriter[model.PriceRow](outFile)
	if _, err := writer.Write(selected); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close writer: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d rows to %s (%d chosen for coverage)\n", len(selected), *out, min(len(diverse), len(selected)))
}
