package rendering

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stillbatch/core/ccc/logging"
)

// BatchManifest is the JSON document describing a finished batch's outputs.
// It is written into the output directory next to the rendered stills.
type BatchManifest struct {
	BatchID     string          `json:"batch_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	StillCount  int             `json:"still_count"`
	Stills      []ManifestStill `json:"stills"`
}

// ManifestStill is one rendered output in a batch manifest
type ManifestStill struct {
	CameraName string    `json:"camera_name"`
	Frame      int       `json:"frame"`
	File       string    `json:"file"`
	SizeBytes  int64     `json:"size_bytes"`
	RenderedAt time.Time `json:"rendered_at"`
}

type ManifestGenerator interface {
	// GenerateManifest builds the manifest document for a batch's stills
	GenerateManifest(batchID string, stills []*Still) (*BatchManifest, error)
	// WriteManifest builds the manifest and writes it into the output directory.
	// Returns the path of the written file.
	WriteManifest(batchID string, stills []*Still, outputDir string) (string, error)
}

type jsonManifestGenerator struct {
	logger logging.Logger
}

// NewJSONManifestGenerator creates a manifest generator producing JSON documents
func NewJSONManifestGenerator(logger logging.Logger) *jsonManifestGenerator {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &jsonManifestGenerator{
		logger: logger,
	}
}

func (g *jsonManifestGenerator) GenerateManifest(batchID string, stills []*Still) (*BatchManifest, error) {
	if batchID == "" {
		return nil, fmt.Errorf("batch ID cannot be empty")
	}

	manifest := &BatchManifest{
		BatchID:     batchID,
		GeneratedAt: time.Now().UTC(),
		StillCount:  len(stills),
		Stills:      make([]ManifestStill, 0, len(stills)),
	}

	for _, still := range stills {
		manifest.Stills = append(manifest.Stills, ManifestStill{
			CameraName: still.CameraName,
			Frame:      still.Frame,
			File:       filepath.Base(still.Path),
			SizeBytes:  still.SizeBytes,
			RenderedAt: still.RenderedAt,
		})
	}

	g.logger.Info("Generated batch manifest", "batch_id", batchID, "stills", len(stills))
	return manifest, nil
}

func (g *jsonManifestGenerator) WriteManifest(batchID string, stills []*Still, outputDir string) (string, error) {
	manifest, err := g.GenerateManifest(batchID, stills)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("batch_%s.json", batchID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}

	g.logger.Info("Wrote batch manifest", "batch_id", batchID, "path", path)
	return path, nil
}
