package rendering

import (
	"container/list"
	"sync"
	"time"

	"stillbatch/core/ccc/logging"
)

// previewCacheEntry represents a cached preview with metadata
type previewCacheEntry struct {
	Key          string
	Preview      *Preview
	AccessTime   time.Time
	CreationTime time.Time
	element      *list.Element // for LRU tracking
}

// PreviewCache provides caching for generated previews with LRU eviction.
// "Show preview" costs memory, so the cache is byte-bounded.
type PreviewCache interface {
	// Get retrieves a preview from cache
	Get(key string) (*Preview, bool)
	// Set stores a preview in cache
	Set(key string, preview *Preview)
	// Delete removes a preview from cache
	Delete(key string)
	// Clear removes all entries from cache
	Clear()
	// Stats returns cache statistics
	Stats() PreviewCacheStats
}

// PreviewCacheStats provides information about cache performance and usage
type PreviewCacheStats struct {
	TotalSize      int64   // Total cache size in bytes
	MaxSize        int64   // Maximum cache size in bytes
	EntryCount     int     // Number of entries in cache
	HitCount       int64   // Number of cache hits
	MissCount      int64   // Number of cache misses
	EvictionCount  int64   // Number of entries evicted
	UtilizationPct float64 // Cache utilization percentage
}

// lruPreviewCache implements PreviewCache with LRU eviction policy
type lruPreviewCache struct {
	mutex       sync.RWMutex
	maxSize     int64 // Maximum cache size in bytes
	currentSize int64 // Current cache size in bytes
	entries     map[string]*previewCacheEntry
	lruList     *list.List // Most recently used at front, least recently used at back
	logger      logging.Logger

	// Statistics
	hitCount      int64
	missCount     int64
	evictionCount int64
}

// NewPreviewCache creates a new LRU preview cache with the specified maximum size in bytes
func NewPreviewCache(maxSizeBytes int64, logger logging.Logger) PreviewCache {
	if logger == nil {
		logger = logging.NopLogger
	}

	if maxSizeBytes <= 0 {
		logger.Warn("Invalid cache size provided, using default 64MB", "providedSize", maxSizeBytes)
		maxSizeBytes = 64 * 1024 * 1024
	}

	cache := &lruPreviewCache{
		maxSize: maxSizeBytes,
		entries: make(map[string]*previewCacheEntry),
		lruList: list.New(),
		logger:  logger,
	}

	logger.Info("Initialized preview cache", "maxSizeBytes", maxSizeBytes, "maxSizeMB", maxSizeBytes/(1024*1024))
	return cache
}

// Get retrieves a preview from cache
func (c *lruPreviewCache) Get(key string) (*Preview, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.missCount++
		return nil, false
	}

	// Update access time and move to front (most recently used)
	entry.AccessTime = time.Now()
	c.lruList.MoveToFront(entry.element)

	c.hitCount++
	c.logger.Debug("Preview cache hit", "key", key, "dataSize", len(entry.Preview.Data))

	// Return a copy of the data to prevent external modification
	dataCopy := make([]byte, len(entry.Preview.Data))
	copy(dataCopy, entry.Preview.Data)
	preview := *entry.Preview
	preview.Data = dataCopy
	return &preview, true
}

// Set stores a preview in cache
func (c *lruPreviewCache) Set(key string, preview *Preview) {
	if preview == nil || len(preview.Data) == 0 {
		c.logger.Warn("Attempted to cache empty preview", "key", key)
		return
	}

	// Don't cache if the data is larger than the entire cache
	if int64(len(preview.Data)) > c.maxSize {
		c.logger.Warn("Preview too large for cache", "key", key, "dataSize", len(preview.Data), "maxSize", c.maxSize)
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()

	if existingEntry, exists := c.entries[key]; exists {
		oldSize := int64(len(existingEntry.Preview.Data))
		stored := *preview
		stored.Data = make([]byte, len(preview.Data))
		copy(stored.Data, preview.Data)
		existingEntry.Preview = &stored
		existingEntry.AccessTime = now
		c.currentSize = c.currentSize - oldSize + int64(len(preview.Data))
		c.lruList.MoveToFront(existingEntry.element)
		c.logger.Debug("Updated existing preview cache entry", "key", key, "oldSize", oldSize, "newSize", len(preview.Data))
	} else {
		stored := *preview
		stored.Data = make([]byte, len(preview.Data))
		copy(stored.Data, preview.Data)

		entry := &previewCacheEntry{
			Key:          key,
			Preview:      &stored,
			AccessTime:   now,
			CreationTime: now,
		}

		entry.element = c.lruList.PushFront(entry)
		c.entries[key] = entry
		c.currentSize += int64(len(preview.Data))

		c.logger.Debug("Added new preview cache entry", "key", key, "dataSize", len(preview.Data))
	}

	// Evict entries if necessary to stay within size limit
	c.evictIfNecessary()
}

// Delete removes a preview from cache
func (c *lruPreviewCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, exists := c.entries[key]; exists {
		c.removeEntry(entry)
		c.logger.Debug("Deleted preview cache entry", "key", key)
	}
}

// Clear removes all entries from cache
func (c *lruPreviewCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entryCount := len(c.entries)
	c.entries = make(map[string]*previewCacheEntry)
	c.lruList = list.New()
	c.currentSize = 0

	c.logger.Info("Cleared preview cache", "removedEntries", entryCount)
}

// Stats returns cache statistics
func (c *lruPreviewCache) Stats() PreviewCacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	utilizationPct := 0.0
	if c.maxSize > 0 {
		utilizationPct = float64(c.currentSize) / float64(c.maxSize) * 100
	}

	return PreviewCacheStats{
		TotalSize:      c.currentSize,
		MaxSize:        c.maxSize,
		EntryCount:     len(c.entries),
		HitCount:       c.hitCount,
		MissCount:      c.missCount,
		EvictionCount:  c.evictionCount,
		UtilizationPct: utilizationPct,
	}
}

// evictIfNecessary removes least recently used entries until cache is within size limit
func (c *lruPreviewCache) evictIfNecessary() {
	for c.currentSize > c.maxSize && c.lruList.Len() > 0 {
		element := c.lruList.Back()
		if element != nil {
			entry := element.Value.(*previewCacheEntry)
			c.removeEntry(entry)
			c.evictionCount++
			c.logger.Debug("Evicted preview cache entry", "key", entry.Key, "dataSize", len(entry.Preview.Data), "age", time.Since(entry.CreationTime))
		}
	}
}

// removeEntry removes an entry from both the map and LRU list
func (c *lruPreviewCache) removeEntry(entry *previewCacheEntry) {
	delete(c.entries, entry.Key)
	c.lruList.Remove(entry.element)
	c.currentSize -= int64(len(entry.Preview.Data))
}
