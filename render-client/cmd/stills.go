package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"stillbatch/render-client/client"
	"stillbatch/render-client/common"
)

var (
	stillsBatchID string
	stillsCamera  string
	stillsLimit   int
	stillsOffset  int
	stillsOutput  string
)

var stillsCmd = &cobra.Command{
	Use:   "stills",
	Short: "List and download rendered stills",
}

var stillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rendered stills",
	Args:  cobra.NoArgs,
	RunE:  runStillsList,
}

var stillsFetchCmd = &cobra.Command{
	Use:   "fetch <id>",
	Short: "Download a rendered still",
	Long: `Downloads the full image file of a still. Without --output the file
is saved in the working directory, named after the still with an extension
matching the server's content type.`,
	Args: cobra.ExactArgs(1),
	RunE: runStillsFetch,
}

func init() {
	stillsListCmd.Flags().StringVar(&stillsBatchID, "batch", "", "only stills of this batch")
	stillsListCmd.Flags().StringVar(&stillsCamera, "camera", "", "only stills of this camera")
	stillsListCmd.Flags().IntVar(&stillsLimit, "limit", 50, "maximum number of stills to list")
	stillsListCmd.Flags().IntVar(&stillsOffset, "offset", 0, "number of stills to skip")

	stillsFetchCmd.Flags().StringVarP(&stillsOutput, "output", "o", "", "output file path")

	stillsCmd.AddCommand(stillsListCmd)
	stillsCmd.AddCommand(stillsFetchCmd)
	rootCmd.AddCommand(stillsCmd)
}

func runStillsList(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	result, err := c.ListStills(context.Background(), client.StillListOptions{
		BatchID:    stillsBatchID,
		CameraName: stillsCamera,
		Limit:      stillsLimit,
		Offset:     stillsOffset,
	})
	if err != nil {
		return fmt.Errorf("failed to list stills: %w", err)
	}

	if len(result.Stills) == 0 {
		fmt.Println("No stills found.")
		return nil
	}

	idWidth := len("ID")
	cameraWidth := len("CAMERA")
	for _, still := range result.Stills {
		if len(still.ID) > idWidth {
			idWidth = len(still.ID)
		}
		if len(still.CameraName) > cameraWidth {
			cameraWidth = len(still.CameraName)
		}
	}

	fmt.Printf("%-*s  %-*s  %-7s  %-19s  %s\n", idWidth, "ID", cameraWidth, "CAMERA", "FRAME", "RENDERED", "SIZE")
	for _, still := range result.Stills {
		fmt.Printf("%-*s  %-*s  %-7d  %-19s  %s\n",
			idWidth, still.ID, cameraWidth, still.CameraName, still.Frame,
			formatTime(still.RenderedAt), formatSize(still.SizeBytes))
	}
	fmt.Printf("\nShowing %d of %d stills.\n", len(result.Stills), result.Total)

	return nil
}

func runStillsFetch(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	data, contentType, err := c.FetchStillFile(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch still: %w", err)
	}

	outputPath := stillsOutput
	if outputPath == "" {
		extension, ok := common.ExtensionForMimeType(contentType)
		if !ok {
			extension = "bin"
		}
		outputPath = fmt.Sprintf("%s.%s", args[0], extension)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	fmt.Printf("Saved %s (%s)\n", outputPath, formatSize(int64(len(data))))
	return nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
