package cache

import (
	"strings"
	"time"

	"fintrack/internal/core"
)

// SummaryCache memoizes summary responses per owner and target period. Any
// mutation by an owner invalidates all of that owner's entries.
type SummaryCache struct {
	lru *LRUCache[core.Summary]
}

func NewSummaryCache(maxSize int, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		lru: NewLRUCache[core.Summary](maxSize, ttl),
	}
}

// The owner id never contains a newline, so the key is unambiguous.
func summaryKey(ownerID string, period core.Frequency) string {
	return ownerID + "\n" + string(period)
}

func (c *SummaryCache) Get(ownerID string, period core.Frequency) (core.Summary, bool) {
	return c.lru.Get(summaryKey(ownerID, period))
}

func (c *SummaryCache) Set(ownerID string, period core.Frequency, s core.Summary) {
	c.lru.Set(summaryKey(ownerID, period), s)
}

// InvalidateOwner drops every cached period for an owner.
func (c *SummaryCache) InvalidateOwner(ownerID string) int {
	prefix := ownerID + "\n"
	return c.lru.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// CleanExpired implements the manager's Cleaner interface.
func (c *SummaryCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

func (c *SummaryCache) Size() int {
	return c.lru.Size()
}
