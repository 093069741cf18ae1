package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stillbatch/render-client/client"
)

func TestSceneShow(t *testing.T) {
	mock := withMockClient(t)
	mock.Settings = client.SceneSettingsResponse{
		OutputDir: "/renders/output",
		Format:    "JPEG",
		Overwrite: true,
		FrameRate: 29.97,
	}

	output := captureOutput(func() {
		err := runSceneShow(sceneShowCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "/renders/output")
	assert.Contains(t, output, "JPEG")
	assert.Contains(t, output, "yes")
	assert.Contains(t, output, "29.97")
}

func TestSceneSet_PartialUpdate(t *testing.T) {
	mock := withMockClient(t)
	mock.Settings = client.SceneSettingsResponse{
		OutputDir: "/renders/output",
		Format:    "PNG",
		Overwrite: false,
		FrameRate: 24,
	}

	sceneFormat = "jpg"
	defer func() { sceneFormat = "" }()

	output := captureOutput(func() {
		err := runSceneSet(sceneSetCmd, []string{})
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Render settings updated")

	// The format alias is normalized; everything else keeps its value
	assert.Equal(t, "JPEG", mock.Settings.Format)
	assert.Equal(t, "/renders/output", mock.Settings.OutputDir)
	assert.Equal(t, 24.0, mock.Settings.FrameRate)
	assert.False(t, mock.Settings.Overwrite)
}

func TestSceneSet_UnknownFormat(t *testing.T) {
	withMockClient(t)

	sceneFormat = "gif"
	defer func() { sceneFormat = "" }()

	err := runSceneSet(sceneSetCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown image format")
}
