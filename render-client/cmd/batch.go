package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Start, inspect and cancel batch render runs",
}

var batchStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a batch render run",
	Long: `Starts a batch render run over all configured cameras. Jobs run one
camera at a time in configured order. Only one batch can run at a time.`,
	Args: cobra.NoArgs,
	RunE: runBatchStart,
}

var batchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the progress of the running batch",
	Args:  cobra.NoArgs,
	RunE:  runBatchStatus,
}

var batchCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel the running batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchCancel,
}

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past and running batches",
	Args:  cobra.NoArgs,
	RunE:  runBatchList,
}

func init() {
	batchCmd.AddCommand(batchStartCmd)
	batchCmd.AddCommand(batchStatusCmd)
	batchCmd.AddCommand(batchCancelCmd)
	batchCmd.AddCommand(batchListCmd)
	rootCmd.AddCommand(batchCmd)
}

func runBatchStart(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	batch, err := c.StartBatch(context.Background())
	if err != nil {
		return fmt.Errorf("failed to start batch: %w", err)
	}

	fmt.Printf("Started batch %s\n", batch.ID)
	return nil
}

func runBatchStatus(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	status, err := c.GetBatchStatus(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get batch status: %w", err)
	}

	if !status.Running {
		fmt.Println("No batch is running.")
		return nil
	}

	batch := status.Batch
	fmt.Println("Batch Status")
	fmt.Println("============")
	printField("Batch", batch.ID)
	printField("State", batch.State)
	if batch.StartedAt != nil {
		printField("Started", formatTime(*batch.StartedAt))
		printField("Elapsed", formatDuration(time.Since(*batch.StartedAt)))
	}
	printField("Rendered", fmt.Sprintf("%d", batch.Rendered))
	printField("Skipped", fmt.Sprintf("%d", batch.Skipped))
	printField("Failed", fmt.Sprintf("%d", batch.Failed))
	printField("Queued Jobs", fmt.Sprintf("%d", status.QueuedJobs))

	if job := status.CurrentJob; job != nil {
		fmt.Println()
		fmt.Println("Current Job")
		fmt.Println("-----------")
		printField("Camera", job.CameraName)
		done := job.Rendered + job.Skipped + job.Failed
		printField("Frames", fmt.Sprintf("%d/%d", done, job.TotalFrames))
	}

	return nil
}

func runBatchCancel(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if err := c.CancelBatch(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to cancel batch: %w", err)
	}

	fmt.Printf("Cancelled batch %s\n", args[0])
	return nil
}

func runBatchList(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	batches, err := c.ListBatches(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}

	if len(batches) == 0 {
		fmt.Println("No batches found.")
		return nil
	}

	idWidth := len("ID")
	stateWidth := len("STATE")
	for _, batch := range batches {
		if len(batch.ID) > idWidth {
			idWidth = len(batch.ID)
		}
		if len(batch.State) > stateWidth {
			stateWidth = len(batch.State)
		}
	}

	fmt.Printf("%-*s  %-*s  %-19s  %s\n", idWidth, "ID", stateWidth, "STATE", "STARTED", "RENDERED/SKIPPED/FAILED")
	for _, batch := range batches {
		started := "-"
		if batch.StartedAt != nil {
			started = formatTime(*batch.StartedAt)
		}
		fmt.Printf("%-*s  %-*s  %-19s  %d/%d/%d\n", idWidth, batch.ID, stateWidth, batch.State, started, batch.Rendered, batch.Skipped, batch.Failed)
	}

	return nil
}

func printField(label, value string) {
	fmt.Printf("  %-12s %s\n", label+":", value)
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
