package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stillbatch/render-client/client"
)

func TestBatchStart(t *testing.T) {
	mock := withMockClient(t)

	output := captureOutput(func() {
		err := runBatchStart(batchStartCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Started batch")
	require.Len(t, mock.Batches, 1)
	assert.Equal(t, "running", mock.Batches[0].State)
}

func TestBatchStart_AlreadyRunning(t *testing.T) {
	mock := withMockClient(t)

	_, err := mock.StartBatch(t.Context())
	require.NoError(t, err)

	err = runBatchStart(batchStartCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in progress")
}

func TestBatchStatus_NotRunning(t *testing.T) {
	withMockClient(t)

	output := captureOutput(func() {
		err := runBatchStatus(batchStatusCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "No batch is running")
}

func TestBatchStatus_Running(t *testing.T) {
	mock := withMockClient(t)

	started := time.Now().Add(-90 * time.Second)
	batch := &client.BatchResponse{
		ID:        "batch-1",
		State:     "running",
		StartedAt: &started,
		Rendered:  7,
		Skipped:   2,
		Failed:    1,
	}
	mock.Status = &client.BatchStatusResponse{
		Running:    true,
		Batch:      batch,
		QueuedJobs: 3,
		CurrentJob: &client.JobProgressResponse{
			CameraName:  "front",
			State:       "running",
			TotalFrames: 12,
			Rendered:    7,
			Skipped:     2,
			Failed:      1,
		},
	}

	output := captureOutput(func() {
		err := runBatchStatus(batchStatusCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "batch-1")
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "front")
	assert.Contains(t, output, "10/12") // 7 rendered + 2 skipped + 1 failed
	assert.Contains(t, output, "Queued Jobs")
}

func TestBatchCancel(t *testing.T) {
	mock := withMockClient(t)

	batch, err := mock.StartBatch(t.Context())
	require.NoError(t, err)

	output := captureOutput(func() {
		err := runBatchCancel(batchCancelCmd, []string{batch.ID})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Cancelled batch")
	assert.Equal(t, "cancelled", mock.Batches[0].State)
}

func TestBatchCancel_NotRunning(t *testing.T) {
	withMockClient(t)

	err := runBatchCancel(batchCancelCmd, []string{"batch-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no batch is running")
}

func TestBatchList(t *testing.T) {
	mock := withMockClient(t)

	first, err := mock.StartBatch(t.Context())
	require.NoError(t, err)
	require.NoError(t, mock.CancelBatch(t.Context(), first.ID))
	second, err := mock.StartBatch(t.Context())
	require.NoError(t, err)

	output := captureOutput(func() {
		err := runBatchList(batchListCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, first.ID)
	assert.Contains(t, output, "cancelled")
	assert.Contains(t, output, second.ID)
	assert.Contains(t, output, "running")
}

func TestBatchList_Empty(t *testing.T) {
	withMockClient(t)

	output := captureOutput(func() {
		err := runBatchList(batchListCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "No batches found")
}
