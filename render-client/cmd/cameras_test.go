package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stillbatch/render-client/client"
)

func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func withMockClient(t *testing.T) *client.MockRenderServerClient {
	t.Helper()
	mock := client.NewMockRenderServerClient()
	serverClient = mock
	t.Cleanup(func() { serverClient = nil })
	return mock
}

func TestCamerasList_Empty(t *testing.T) {
	withMockClient(t)

	output := captureOutput(func() {
		err := runCamerasList(camerasListCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "No cameras configured")
}

func TestCamerasList(t *testing.T) {
	mock := withMockClient(t)

	_, err := mock.CreateCamera(t.Context(), client.CameraRequest{
		Name:        "front",
		SourcePath:  "/footage/front.mp4",
		FrameRanges: "11,25,250-260",
		ShowPreview: true,
	})
	require.NoError(t, err)
	_, err = mock.CreateCamera(t.Context(), client.CameraRequest{
		Name: "side",
	})
	require.NoError(t, err)

	output := captureOutput(func() {
		err := runCamerasList(camerasListCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "front")
	assert.Contains(t, output, "11,25,250-260")
	assert.Contains(t, output, "on")

	// A camera without footage is flagged
	assert.Contains(t, output, "side")
	assert.Contains(t, output, "no footage assigned")
}

func TestCamerasAdd(t *testing.T) {
	mock := withMockClient(t)

	cameraSource = "/footage/front.mp4"
	cameraFrames = "1-10"
	cameraPreview = true
	defer func() {
		cameraSource = ""
		cameraFrames = ""
		cameraPreview = false
	}()

	output := captureOutput(func() {
		err := runCamerasAdd(camerasAddCmd, []string{"front"})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Added camera front")
	require.Len(t, mock.Cameras, 1)
	assert.Equal(t, "front", mock.Cameras[0].Name)
	assert.Equal(t, "/footage/front.mp4", mock.Cameras[0].SourcePath)
	assert.Equal(t, "1-10", mock.Cameras[0].FrameRanges)
	assert.True(t, mock.Cameras[0].ShowPreview)
}

func TestCamerasAdd_DuplicateName(t *testing.T) {
	mock := withMockClient(t)

	_, err := mock.CreateCamera(t.Context(), client.CameraRequest{Name: "front"})
	require.NoError(t, err)

	err = runCamerasAdd(camerasAddCmd, []string{"front"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCamerasRemove(t *testing.T) {
	mock := withMockClient(t)

	camera, err := mock.CreateCamera(t.Context(), client.CameraRequest{Name: "front"})
	require.NoError(t, err)

	output := captureOutput(func() {
		err := runCamerasRemove(camerasRemoveCmd, []string{camera.ID})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Removed camera")
	assert.Empty(t, mock.Cameras)
}

func TestCamerasRemove_NotFound(t *testing.T) {
	withMockClient(t)

	err := runCamerasRemove(camerasRemoveCmd, []string{"missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
