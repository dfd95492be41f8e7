package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/partsynth/internal/common"
)

var concurrencyOverride int

// applyOverrides lets flags win over environment configuration.
func applyOverrides(cmd *cobra.Command, c *common.Config) {
	if f := cmd.Flags().Lookup("concurrency"); f != nil && f.Changed && concurrencyOverride > 0 {
		c.Pipeline.Concurrency = concurrencyOverride
	}
}
