package cache

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	"github.com/ppiankov/chronia/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyVersion changes whenever the cached page encoding changes
const keyVersion = "chronia:v1:"

// CacheKey generates a cache key from a URL
func CacheKey(url string) string {
	hash := blake3.Sum256([]byte(url))
	return keyVersion + hex.EncodeToString(hash[:])
}

// New builds the page cache described by cfg, or nil when caching is off
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
