package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agurod42/outfox-health/internal/exitcode"
	"github.com/agurod42/outfox-health/internal/geo"
	"github.com/agurod42/outfox-health/internal/ingest"
)

var loadOpts ingest.Options

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a CMS inpatient charges CSV or Parquet file",
	RunE:  runLoad,
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&loadOpts.FilePath, "file", "", "Path to CSV or Parquet file (required)")
	f.BoolVar(&loadOpts.Force, "force", false, "Re-load even if the file SHA-256 was already loaded")
	f.BoolVar(&loadOpts.MockRatings, "mock-ratings", false, "Assign a 1-10 rating to providers the file does not rate")
	f.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Rows per upsert batch (or set BATCH_SIZE)")
	_ = loadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pool := openPool(ctx, false)
	defer pool.Close()

	loadOpts.BatchSize = cfg.BatchSize
	loadOpts.ProgressInterval = cfg.ProgressInterval

	summary, err := ingest.Run(ctx, pool, geo.NewResolver(cfg.ZipFile, log), log, loadOpts)
	if err != nil {
		var pe *ingest.PhaseError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("load failed")
			if pe.Phase == ingest.PhasePreflight {
				os.Exit(exitcode.ValidationError)
			}
			os.Exit(exitcode.LoadError)
		}
		log.Error().Err(err).Msg("load failed")
		os.Exit(exitcode.LoadError)
	}

	if summary.Skipped {
		fmt.Printf("Already loaded as run %s; nothing to do (use --force to re-load)\n", summary.RunID)
		return nil
	}
	fmt.Printf("Load complete: %d rows loaded, %d rejected, %d providers, %d centroids added, %d ZIPs unresolved (%.1fs)\n",
		summary.RowsLoaded, summary.RowsRejected, summary.ProvidersTouched,
		summary.CentroidsAdded, summary.CentroidsMissing, summary.DurationTotal.Seconds())
	return nil
}
