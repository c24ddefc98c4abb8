package config

import "fmt"

// CacheKeyStruct builds namespaced Redis keys used by ambient, non-core
// infrastructure (rate limiting). Store (C2) itself requires no in-memory
// cache per spec.md §5 — these keys never back domain reads.
type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RateLimitKey namespaces the per-IP rate-limit counters.
func (r *CacheKeyStruct) RateLimitKey(ip string) string {
	return fmt.Sprintf("ratelimit:%s", ip)
}

var CacheKey = NewCacheKeyStruct()
