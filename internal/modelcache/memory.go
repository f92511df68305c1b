package modelcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/models"
)

const (
	megabyte = 1024 * 1024

	// DefaultMemoryBytes holds models of up to 64 KiB, roughly 400 exercises.
	DefaultMemoryBytes = 64 * megabyte

	// freecache splits the buffer into 256 segments and refuses any key plus
	// value longer than a quarter segment minus its 24-byte entry header.
	freecacheMinBytes    = 512 * 1024
	freecacheSegments    = 256
	freecacheEntryHeader = 24
)

// Memory is an in-process cache of fitted models.
type Memory struct {
	cache     *freecache.Cache
	expireSec int
	maxEntry  int
}

// NewMemory creates a cache of roughly sizeBytes (freecache enforces a
// 512 KiB minimum). Entries are limited to about sizeBytes/1024. A zero ttl
// keeps entries until evicted.
func NewMemory(sizeBytes int, ttl time.Duration) *Memory {
	if sizeBytes <= 0 {
		sizeBytes = DefaultMemoryBytes
	}
	return &Memory{
		cache:     freecache.NewCache(sizeBytes),
		expireSec: int(ttl / time.Second),
		maxEntry:  maxEntryBytes(sizeBytes),
	}
}

func maxEntryBytes(sizeBytes int) int {
	sizeBytes = max(sizeBytes, freecacheMinBytes)
	return sizeBytes/freecacheSegments/4 - freecacheEntryHeader
}

// MaxEntry is the largest key plus encoded model the cache accepts.
func (m *Memory) MaxEntry() int {
	return m.maxEntry
}

func (m *Memory) Get(_ context.Context, userID, fingerprint string) (*models.HierarchicalFatigueModel, bool, error) {
	data, err := m.cache.Get([]byte(cacheKey(userID, fingerprint)))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	model := &models.HierarchicalFatigueModel{}
	if err := json.Unmarshal(data, model); err != nil {
		return nil, false, fmt.Errorf("decoding cached model: %w", err)
	}
	return model, true, nil
}

func (m *Memory) Put(_ context.Context, userID, fingerprint string, model *models.HierarchicalFatigueModel) error {
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	key := []byte(cacheKey(userID, fingerprint))
	if len(key)+len(data) > m.maxEntry {
		return fmt.Errorf("%w: %d bytes, limit %d", analytics.ErrCacheEntryTooLarge, len(key)+len(data), m.maxEntry)
	}
	if err := m.cache.Set(key, data, m.expireSec); err != nil {
		if errors.Is(err, freecache.ErrLargeEntry) {
			return fmt.Errorf("%w: %w", analytics.ErrCacheEntryTooLarge, err)
		}
		return fmt.Errorf("freecache set: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int64 {
	return m.cache.EntryCount()
}
