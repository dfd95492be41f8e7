package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var usageDays int

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage and estimated cost",
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().IntVar(&usageDays, "days", 30, "lookback window in days")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, _ []string) error {
	if wired.Usage == nil {
		return errors.New("usage tracking is disabled (USAGE_TRACKING=false or ledger unavailable)")
	}
	if usageDays <= 0 {
		return errors.New("--days must be positive")
	}
	since := time.Now().UTC().Add(-time.Duration(usageDays) * 24 * time.Hour)
	totals, err := wired.Usage.Totals(cmd.Context(), since)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), totals)
}
