package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/agurod42/outfox-health/internal/exitcode"
	"github.com/agurod42/outfox-health/internal/search"
)

var askReq search.AskRequest

var askCmd = &cobra.Command{
	Use:   `ask "<question>"`,
	Short: "Answer one natural-language question and print the JSON response",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAsk,
}

func init() {
	f := askCmd.Flags()
	f.BoolVar(&askReq.IncludeSQL, "include-sql", false, "Include the executed SQL in the response")
	f.StringVar(&askReq.DRG, "drg", "", "DRG code or description hint")
	f.StringVar(&askReq.ZIP, "zip", "", "5-digit ZIP hint")
	f.Float64Var(&askReq.RadiusKm, "radius-km", 0, "Search radius in kilometers")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pool := openPool(ctx, true)
	defer pool.Close()

	if len(args) == 1 {
		askReq.Question = args[0]
	}
	resp := newService(pool).Ask(ctx, askReq)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		log.Error().Err(err).Msg("write response")
		os.Exit(exitcode.AskError)
	}
	return nil
}
