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

var zipsCmd = &cobra.Command{
	Use:   "zips",
	Short: "Load the ZIP centroid dataset into zip_centroids",
	Long:  "Copies every centroid in the GeoNames TSV into zip_centroids. Existing rows are kept.",
	RunE:  runZips,
}

func init() {
	zipsCmd.Flags().StringVar(&cfg.ZipFile, "file", cfg.ZipFile, "GeoNames ZIP centroid TSV")
	rootCmd.AddCommand(zipsCmd)
}

func runZips(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pool := openPool(ctx, false)
	defer pool.Close()

	added, err := ingest.LoadCentroids(ctx, pool, geo.NewResolver(cfg.ZipFile, log), log)
	if errors.Is(err, ingest.ErrNoCentroids) {
		log.Error().Str("file", cfg.ZipFile).Msg("ZIP centroid file is missing or empty")
		os.Exit(exitcode.ValidationError)
	}
	if err != nil {
		log.Error().Err(err).Msg("centroid load failed")
		os.Exit(exitcode.LoadError)
	}

	fmt.Printf("ZIP centroids loaded: %d new rows\n", added)
	return nil
}
