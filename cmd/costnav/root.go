package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agurod42/outfox-health/internal/config"
	"github.com/agurod42/outfox-health/internal/db"
	"github.com/agurod42/outfox-health/internal/exitcode"
	"github.com/agurod42/outfox-health/internal/logging"
)

var (
	cfg        = config.FromEnv()
	configPath string
	log        zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "costnav",
	Short: "Hospital DRG price navigator",
	Long: "Loads CMS inpatient charge data into Postgres and answers structured and " +
		"natural-language questions about provider prices, ratings and distance.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Optional YAML config file")
	pf.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.ZipFile, "zip-file", cfg.ZipFile, "GeoNames ZIP centroid TSV (or set ZIP_LOCAL_FILE)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
}

// loadConfig overlays the YAML file, then re-applies any flags set on the
// command line so they win over the file.
func loadConfig(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		flags := cfg
		if err := cfg.LoadFromFile(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(exitcode.UsageError)
		}
		cmd.Flags().Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "dsn":
				cfg.DSN = flags.DSN
			case "zip-file":
				cfg.ZipFile = flags.ZipFile
			case "file":
				if cmd == zipsCmd {
					cfg.ZipFile = flags.ZipFile
				}
			case "log-format":
				cfg.LogFormat = flags.LogFormat
			case "log-level":
				cfg.LogLevel = flags.LogLevel
			case "batch-size":
				cfg.BatchSize = flags.BatchSize
			case "addr":
				cfg.HTTPAddr = flags.HTTPAddr
			}
		})
	}

	log = logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	return nil
}

// openPool connects with the given statement timeout or exits.
func openPool(ctx context.Context, statementTimeout bool) *pgxpool.Pool {
	timeout := cfg.StatementTimeout
	if !statementTimeout {
		timeout = 0
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL(), timeout)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	return pool
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
