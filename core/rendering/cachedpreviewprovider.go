package rendering

import (
	"fmt"

	"stillbatch/core/ccc/logging"
)

// PreviewProvider serves a preview for a rendered still
type PreviewProvider interface {
	// PreviewFor returns a preview of the given still
	PreviewFor(still *Still) (*Preview, error)
}

// CachedPreviewProvider wraps a PreviewGenerator with cache-through lookup
type CachedPreviewProvider struct {
	generator PreviewGenerator
	cache     PreviewCache
	logger    logging.Logger
}

// NewCachedPreviewProvider creates a new cached preview provider
func NewCachedPreviewProvider(generator PreviewGenerator, cache PreviewCache, logger logging.Logger) *CachedPreviewProvider {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &CachedPreviewProvider{
		generator: generator,
		cache:     cache,
		logger:    logger,
	}
}

// PreviewFor returns a preview of the given still, generating it on a cache miss
func (p *CachedPreviewProvider) PreviewFor(still *Still) (*Preview, error) {
	if still == nil {
		return nil, fmt.Errorf("still cannot be nil")
	}

	if cached, found := p.cache.Get(still.ID); found {
		p.logger.Debug("Serving preview from cache", "still_id", still.ID, "dataSize", len(cached.Data))
		return cached, nil
	}

	p.logger.Debug("Preview cache miss, generating preview", "still_id", still.ID)
	preview, err := p.generator.GeneratePreview(still.Path)
	if err != nil {
		return nil, err
	}

	p.cache.Set(still.ID, preview)
	p.logger.Debug("Cached preview", "still_id", still.ID, "dataSize", len(preview.Data))

	return preview, nil
}

// GetCacheStats returns statistics about the cache
func (p *CachedPreviewProvider) GetCacheStats() PreviewCacheStats {
	return p.cache.Stats()
}

// ClearCache clears all cached entries
func (p *CachedPreviewProvider) ClearCache() {
	p.cache.Clear()
	p.logger.Info("Cleared preview cache")
}
