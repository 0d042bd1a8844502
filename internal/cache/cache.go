package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for the page cache
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped whenever the cached page format changes
const keyPrefix = "calscrape:v1:"

// PageKey generates a cache key from a page URL
func PageKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// Stats counts lookups served by a cache
type Stats struct {
	MemoryHits int64
	DiskHits   int64
	Misses     int64
}
