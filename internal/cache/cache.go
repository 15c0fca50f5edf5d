// Package cache holds short-lived fetch byproducts: fact-check site search
// pages and robots.txt documents. Verification results are never cached;
// every request runs the full pipeline.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a TTL byte cache.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// Key derives a stable cache key from a URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "citecheck:v1:" + hex.EncodeToString(hash[:])
}
