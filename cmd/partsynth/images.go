package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/images"
)

var (
	imgName     string
	imgCommon   string
	imgMaterial string
)

var imagesCmd = &cobra.Command{
	Use:   "images <part-number>",
	Short: "Acquire representative images for a part",
	Args:  cobra.ExactArgs(1),
	RunE:  runImages,
}

func init() {
	imagesCmd.Flags().StringVar(&imgName, "name", "", "display name used in the synthesis prompt")
	imagesCmd.Flags().StringVar(&imgCommon, "common-name", "", "common name, e.g. \"Ball Bearing\"")
	imagesCmd.Flags().StringVar(&imgMaterial, "material", "", "material characteristics")
	rootCmd.AddCommand(imagesCmd)
}

func runImages(cmd *cobra.Command, args []string) error {
	part, err := common.ValidatePartIdentifier(args[0])
	if err != nil {
		return err
	}
	urls := wired.Generator.Images(cmd.Context(), part, images.Hints{
		DisplayName: imgName,
		CommonName:  imgCommon,
		Material:    imgMaterial,
	})
	for _, u := range urls {
		cmd.Println(u)
	}
	return nil
}
