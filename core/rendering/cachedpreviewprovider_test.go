package rendering

import (
	"fmt"
	"testing"
	"time"

	"stillbatch/core/ccc/logging"
)

// mockPreviewGenerator counts generation calls and returns canned previews
type mockPreviewGenerator struct {
	calls int
	fail  bool
}

func (m *mockPreviewGenerator) GeneratePreview(stillPath string) (*Preview, error) {
	m.calls++
	if m.fail {
		return nil, fmt.Errorf("generation failed for %s", stillPath)
	}
	return &Preview{
		Data:     []byte("preview of " + stillPath),
		Width:    640,
		Height:   360,
		MimeType: "image/jpeg",
	}, nil
}

func TestCachedPreviewProvider_GeneratesOnMiss(t *testing.T) {
	generator := &mockPreviewGenerator{}
	cache := NewPreviewCache(1024, logging.NopLogger)
	provider := NewCachedPreviewProvider(generator, cache, logging.NopLogger)

	still := createTestStill("still-1", "batch-1", "FrontCam", 25, time.Now().UTC())

	preview, err := provider.PreviewFor(still)
	if err != nil {
		t.Fatalf("Failed to get preview: %v", err)
	}
	if preview == nil || len(preview.Data) == 0 {
		t.Fatal("Expected non-empty preview")
	}
	if generator.calls != 1 {
		t.Errorf("Expected 1 generation call, got %d", generator.calls)
	}
}

func TestCachedPreviewProvider_ServesFromCache(t *testing.T) {
	generator := &mockPreviewGenerator{}
	cache := NewPreviewCache(1024, logging.NopLogger)
	provider := NewCachedPreviewProvider(generator, cache, logging.NopLogger)

	still := createTestStill("still-1", "batch-1", "FrontCam", 25, time.Now().UTC())

	if _, err := provider.PreviewFor(still); err != nil {
		t.Fatalf("Failed to get preview: %v", err)
	}
	if _, err := provider.PreviewFor(still); err != nil {
		t.Fatalf("Failed to get cached preview: %v", err)
	}

	if generator.calls != 1 {
		t.Errorf("Expected second request to hit the cache, got %d generation calls", generator.calls)
	}

	stats := provider.GetCacheStats()
	if stats.HitCount != 1 {
		t.Errorf("Expected 1 cache hit, got %d", stats.HitCount)
	}
}

func TestCachedPreviewProvider_GenerationFailure(t *testing.T) {
	generator := &mockPreviewGenerator{fail: true}
	cache := NewPreviewCache(1024, logging.NopLogger)
	provider := NewCachedPreviewProvider(generator, cache, logging.NopLogger)

	still := createTestStill("still-1", "batch-1", "FrontCam", 25, time.Now().UTC())

	if _, err := provider.PreviewFor(still); err == nil {
		t.Error("Expected error when generation fails")
	}

	stats := provider.GetCacheStats()
	if stats.EntryCount != 0 {
		t.Errorf("Expected nothing cached after failure, got %d entries", stats.EntryCount)
	}
}

func TestCachedPreviewProvider_NilStill(t *testing.T) {
	generator := &mockPreviewGenerator{}
	cache := NewPreviewCache(1024, logging.NopLogger)
	provider := NewCachedPreviewProvider(generator, cache, logging.NopLogger)

	if _, err := provider.PreviewFor(nil); err == nil {
		t.Error("Expected error for nil still")
	}
}
