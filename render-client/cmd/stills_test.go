package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stillbatch/render-client/client"
)

func TestStillsList(t *testing.T) {
	mock := withMockClient(t)
	mock.Stills = []client.StillResponse{
		{ID: "still-1", BatchID: "batch-1", CameraName: "front", Frame: 11, SizeBytes: 2048, RenderedAt: time.Now()},
		{ID: "still-2", BatchID: "batch-1", CameraName: "side", Frame: 25, SizeBytes: 4096, RenderedAt: time.Now()},
	}

	output := captureOutput(func() {
		err := runStillsList(stillsListCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "still-1")
	assert.Contains(t, output, "front")
	assert.Contains(t, output, "still-2")
	assert.Contains(t, output, "Showing 2 of 2 stills")
}

func TestStillsList_CameraFilter(t *testing.T) {
	mock := withMockClient(t)
	mock.Stills = []client.StillResponse{
		{ID: "still-1", CameraName: "front", Frame: 11, RenderedAt: time.Now()},
		{ID: "still-2", CameraName: "side", Frame: 25, RenderedAt: time.Now()},
	}

	stillsCamera = "front"
	defer func() { stillsCamera = "" }()

	output := captureOutput(func() {
		err := runStillsList(stillsListCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "still-1")
	assert.NotContains(t, output, "still-2")
	assert.Contains(t, output, "Showing 1 of 1 stills")
}

func TestStillsList_Empty(t *testing.T) {
	withMockClient(t)

	output := captureOutput(func() {
		err := runStillsList(stillsListCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "No stills found")
}

func TestStillsFetch(t *testing.T) {
	mock := withMockClient(t)
	mock.Files["still-1"] = []byte("image bytes")

	stillsOutput = filepath.Join(t.TempDir(), "front_frame11.png")
	defer func() { stillsOutput = "" }()

	output := captureOutput(func() {
		err := runStillsFetch(stillsFetchCmd, []string{"still-1"})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Saved")

	data, err := os.ReadFile(stillsOutput)
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), data)
}

func TestStillsFetch_DefaultFilename(t *testing.T) {
	mock := withMockClient(t)
	mock.Files["still-1"] = []byte("image bytes")

	// Run in a temp dir so the default-named file lands there
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(oldWd)

	captureOutput(func() {
		err := runStillsFetch(stillsFetchCmd, []string{"still-1"})
		require.NoError(t, err)
	})

	// The mock reports image/png, so the extension follows
	_, err = os.Stat("still-1.png")
	assert.NoError(t, err)
}

func TestStillsFetch_NotFound(t *testing.T) {
	withMockClient(t)

	err := runStillsFetch(stillsFetchCmd, []string{"missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
