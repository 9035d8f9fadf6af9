package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/agurod42/outfox-health/internal/db"
	"github.com/agurod42/outfox-health/internal/exitcode"
	"github.com/agurod42/outfox-health/internal/geo"
	"github.com/agurod42/outfox-health/internal/llm"
	"github.com/agurod42/outfox-health/internal/search"
	"github.com/agurod42/outfox-health/internal/server"
	"github.com/agurod42/outfox-health/internal/store"
	"github.com/agurod42/outfox-health/internal/translate"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and the static app",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "Listen address (or set HTTP_ADDR)")
	f.BoolVar(&serveMigrate, "migrate", false, "Apply schema migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := openPool(ctx, true)
	defer pool.Close()

	if serveMigrate {
		if err := db.ApplyMigrations(ctx, pool, log); err != nil {
			log.Error().Err(err).Msg("migration failed")
			os.Exit(exitcode.MigrationError)
		}
	}

	svc := newService(pool)
	if err := server.Run(ctx, cfg.HTTPAddr, server.NewRouter(svc, log), log); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(exitcode.ServeError)
	}
	return nil
}

// newService wires the store, resolver and translator, or exits on an
// unusable LLM_MODEL.
func newService(pool *pgxpool.Pool) *search.Service {
	provider, err := llm.NewProvider(cfg.LLMModel, cfg.LLMAPIKey)
	if err != nil {
		log.Error().Err(err).Msg("invalid LLM model")
		os.Exit(exitcode.UsageError)
	}
	if _, ok := provider.(llm.Unavailable); ok {
		log.Warn().Str("model", cfg.LLMModel).Msg("no LLM API key set; /ask will answer from extracted hints only")
	}

	return search.NewService(
		store.New(pool, log),
		geo.NewResolver(cfg.ZipFile, log),
		translate.New(provider, cfg.LLMTimeout, log),
		log,
	)
}
