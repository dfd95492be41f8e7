package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/export"
	"github.com/joseph-ayodele/partsynth/internal/pipeline"
)

var (
	batchFile    string
	batchXLSX    string
	batchNoImage bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [part-number...]",
	Short: "Generate records for many parts with bounded concurrency",
	Long: `Generates one record per distinct part identifier, in input order.
Identifiers come from the arguments and/or --file (one per line, # comments allowed).
A failing item becomes a fallback record; the batch itself never fails.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "read part identifiers from a file")
	batchCmd.Flags().StringVar(&batchXLSX, "xlsx", "", "also write the records to this XLSX file")
	batchCmd.Flags().BoolVar(&batchNoImage, "no-image", false, "skip image acquisition")
	batchCmd.Flags().IntVarP(&concurrencyOverride, "concurrency", "c", 0, "items processed at once (default BATCH_CONCURRENCY)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	raw := append([]string(nil), args...)
	if batchFile != "" {
		lines, err := readLines(batchFile)
		if err != nil {
			return err
		}
		raw = append(raw, lines...)
	}
	parts, rejected, err := common.NormalizePartIdentifiers(raw)
	if err != nil {
		return err
	}
	for _, rp := range rejected {
		cmd.PrintErrf("skipping entry %d %q: %s\n", rp.Index, rp.PartNumber, rp.Reason)
	}

	opts := pipeline.Options{
		WithImage: !batchNoImage,
		Progress: func(done, total int, rec entity.PartRecord) {
			if verbose {
				cmd.PrintErrf("[%d/%d] %s (%s)\n", done, total, rec.PartNumber, rec.SourceConfidence)
			}
		},
	}
	recs := wired.Generator.GenerateBatch(common.WithAction(cmd.Context(), "batch-generate"), parts, opts)

	if batchXLSX != "" {
		b, err := export.NewService(nil).RecordsXLSX(recs)
		if err != nil {
			return err
		}
		if err := os.WriteFile(batchXLSX, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", batchXLSX, err)
		}
	}
	out := map[string]any{"results": recs}
	if len(rejected) > 0 {
		out["rejected"] = rejected
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
