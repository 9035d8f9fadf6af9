package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agurod42/outfox-health/internal/db"
	"github.com/agurod42/outfox-health/internal/exitcode"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pool := openPool(ctx, false)
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.MigrationError)
	}

	log.Info().Msg("all migrations applied successfully")
	return nil
}
