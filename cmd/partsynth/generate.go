package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/pipeline"
)

var (
	genNoImage    bool
	genSourceURLs []string
	genDetail     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <part-number>",
	Short: "Generate one part record",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&genNoImage, "no-image", false, "skip image acquisition")
	generateCmd.Flags().StringSliceVar(&genSourceURLs, "source-url", nil, "source page to ground the record on (repeatable)")
	generateCmd.Flags().BoolVar(&genDetail, "detail", false, "also write a detailed technical report")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	part, err := common.ValidatePartIdentifier(args[0])
	if err != nil {
		return err
	}
	ctx := common.WithAction(cmd.Context(), "generate")

	rec := wired.Generator.Generate(ctx, part, pipeline.Options{
		WithImage:  !genNoImage,
		SourceURLs: genSourceURLs,
	})
	if err := writeJSON(cmd.OutOrStdout(), rec); err != nil {
		return err
	}
	if !genDetail {
		return nil
	}

	report, err := wired.Generator.DetailedSpec(ctx, rec)
	if err != nil {
		return common.WrapError(err, "detailed spec")
	}
	cmd.Println()
	cmd.Println(report)
	return nil
}
