package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"stillbatch/render-client/client"
	"stillbatch/render-client/common"
)

var (
	sceneOutputDir string
	sceneFormat    string
	sceneOverwrite bool
	sceneFrameRate float64
)

var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "Inspect and change the scene's render settings",
}

var sceneShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current render settings",
	Args:  cobra.NoArgs,
	RunE:  runSceneShow,
}

var sceneSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the render settings",
	Long: `Changes the scene's render settings. Flags that are not given keep
their current server-side value.`,
	Args: cobra.NoArgs,
	RunE: runSceneSet,
}

func init() {
	sceneSetCmd.Flags().StringVar(&sceneOutputDir, "output-dir", "", "directory rendered stills are written to")
	sceneSetCmd.Flags().StringVar(&sceneFormat, "format", "", "output image format (png, jpeg, bmp, tiff, webp)")
	sceneSetCmd.Flags().BoolVar(&sceneOverwrite, "overwrite", false, "overwrite existing output files instead of skipping")
	sceneSetCmd.Flags().Float64Var(&sceneFrameRate, "frame-rate", 0, "fallback fps for footage that reports none")

	sceneCmd.AddCommand(sceneShowCmd)
	sceneCmd.AddCommand(sceneSetCmd)
	rootCmd.AddCommand(sceneCmd)
}

func runSceneShow(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	settings, err := c.GetSceneSettings(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get render settings: %w", err)
	}

	overwrite := "no"
	if settings.Overwrite {
		overwrite = "yes"
	}

	fmt.Println("Render Settings")
	fmt.Println("===============")
	printField("Output Dir", settings.OutputDir)
	printField("Format", settings.Format)
	printField("Overwrite", overwrite)
	printField("Frame Rate", fmt.Sprintf("%g", settings.FrameRate))

	return nil
}

func runSceneSet(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Start from the current settings so unset flags keep their value
	current, err := c.GetSceneSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to get render settings: %w", err)
	}

	request := client.UpdateSceneSettingsRequest{
		OutputDir: current.OutputDir,
		Format:    current.Format,
		Overwrite: current.Overwrite,
		FrameRate: current.FrameRate,
	}

	if sceneOutputDir != "" {
		request.OutputDir = sceneOutputDir
	}
	if sceneFormat != "" {
		format, err := common.NormalizeFormat(sceneFormat)
		if err != nil {
			return err
		}
		request.Format = format
	}
	if cmd.Flags().Changed("overwrite") {
		request.Overwrite = sceneOverwrite
	}
	if sceneFrameRate > 0 {
		request.FrameRate = sceneFrameRate
	}

	if err := c.UpdateSceneSettings(ctx, request); err != nil {
		return fmt.Errorf("failed to update render settings: %w", err)
	}

	fmt.Println("Render settings updated.")
	return nil
}
