package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/partsynth/internal/app"
	"github.com/joseph-ayodele/partsynth/internal/common"
)

var (
	verbose bool

	cfg   *common.Config
	wired *app.App
)

var rootCmd = &cobra.Command{
	Use:   "partsynth",
	Short: "Synthesize structured part records from part identifiers",
	Long: `partsynth turns manufacturing part identifiers into bilingual part records
using a completion service, optional source pages and image acquisition.
Configuration is read from the environment (and a .env file when present).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		cfg = common.LoadConfig()
		applyOverrides(cmd, cfg)

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelInfo
		}
		logger := app.NewLogger(cmd.ErrOrStderr(), false, level)
		slog.SetDefault(logger)

		a, err := app.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		wired = a
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if wired == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		wired.Close(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
