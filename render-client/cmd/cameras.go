package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"stillbatch/render-client/client"
)

var (
	cameraSource  string
	cameraFrames  string
	cameraPreview bool
)

var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "Manage camera settings",
}

var camerasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured cameras",
	Args:  cobra.NoArgs,
	RunE:  runCamerasList,
}

var camerasAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a camera setting",
	Long: `Adds a camera setting. The frame ranges string lists the frames to
render, e.g. "11,25,250-260". A camera without source footage is skipped
when a batch runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runCamerasAdd,
}

var camerasRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a camera setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runCamerasRemove,
}

func init() {
	camerasAddCmd.Flags().StringVar(&cameraSource, "source", "", "path to the camera's source footage")
	camerasAddCmd.Flags().StringVar(&cameraFrames, "frames", "", "frame ranges to render, e.g. 11,25,250-260")
	camerasAddCmd.Flags().BoolVar(&cameraPreview, "preview", false, "keep an in-memory preview of rendered frames")

	camerasCmd.AddCommand(camerasListCmd)
	camerasCmd.AddCommand(camerasAddCmd)
	camerasCmd.AddCommand(camerasRemoveCmd)
	rootCmd.AddCommand(camerasCmd)
}

func runCamerasList(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	cameras, err := c.ListCameras(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list cameras: %w", err)
	}

	if len(cameras) == 0 {
		fmt.Println("No cameras configured.")
		return nil
	}

	// Calculate column widths
	idWidth := len("ID")
	nameWidth := len("NAME")
	for _, camera := range cameras {
		if len(camera.ID) > idWidth {
			idWidth = len(camera.ID)
		}
		if len(camera.Name) > nameWidth {
			nameWidth = len(camera.Name)
		}
	}

	fmt.Printf("%-3s  %-*s  %-*s  %-8s  %s\n", "#", idWidth, "ID", nameWidth, "NAME", "PREVIEW", "FRAMES")
	fmt.Printf("%s  %s  %s  %s  %s\n", "---", strings.Repeat("-", idWidth), strings.Repeat("-", nameWidth), "--------", "------")
	for _, camera := range cameras {
		preview := "off"
		if camera.ShowPreview {
			preview = "on"
		}
		frames := camera.FrameRanges
		if frames == "" {
			frames = "-"
		}
		fmt.Printf("%-3d  %-*s  %-*s  %-8s  %s\n", camera.Position, idWidth, camera.ID, nameWidth, camera.Name, preview, frames)
		if camera.SourcePath == "" {
			fmt.Printf("     %-*s  no footage assigned\n", idWidth, "")
		}
	}

	return nil
}

func runCamerasAdd(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	camera, err := c.CreateCamera(context.Background(), client.CameraRequest{
		Name:        args[0],
		SourcePath:  cameraSource,
		FrameRanges: cameraFrames,
		ShowPreview: cameraPreview,
	})
	if err != nil {
		return fmt.Errorf("failed to add camera: %w", err)
	}

	fmt.Printf("Added camera %s (%s)\n", camera.Name, camera.ID)
	return nil
}

func runCamerasRemove(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if err := c.DeleteCamera(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to remove camera: %w", err)
	}

	fmt.Printf("Removed camera %s\n", args[0])
	return nil
}
