package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agurod42/outfox-health/internal/exitcode"
	"github.com/agurod42/outfox-health/internal/ingest"
)

var planFile string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run header mapping and row stats (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planFile, "file", "", "Path to CSV or Parquet file (required)")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	pr, err := ingest.Plan(planFile)
	if err != nil {
		log.Error().Err(err).Msg("plan failed")
		os.Exit(exitcode.ValidationError)
	}

	fmt.Println("=== costnav plan ===")
	fmt.Printf("File:       %s\n", pr.FilePath)
	fmt.Printf("SHA-256:    %s\n", pr.FileSHA256)
	fmt.Printf("Size:       %d bytes\n", pr.FileSize)
	fmt.Println()
	fmt.Println("Columns:")
	for _, col := range pr.Columns {
		if sc, ok := pr.Mapping[col]; ok {
			fmt.Printf("  %-22s <- %s\n", col, sc.Header)
		} else {
			fmt.Printf("  %s\n", col)
		}
	}
	fmt.Println()
	fmt.Printf("Rows read:     %d\n", pr.RowsRead)
	fmt.Printf("Rows valid:    %d\n", pr.RowsValid)
	fmt.Printf("Rows rejected: %d\n", pr.RowsRejected)
	fmt.Printf("Rated rows:    %d\n", pr.RatedRows)
	fmt.Printf("Providers:     %d\n", pr.Providers)
	fmt.Printf("DRG codes:     %d\n", pr.DrgCodes)
	fmt.Printf("ZIPs:          %d\n", pr.Zips)
	if len(pr.RejectSamples) > 0 {
		fmt.Println()
		fmt.Println("Sample rejections:")
		for _, s := range pr.RejectSamples {
			fmt.Printf("  %s\n", s)
		}
	}
	return nil
}
