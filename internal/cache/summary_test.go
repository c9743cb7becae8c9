package cache

import (
	"fmt"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestSummaryCache_GetSet(t *testing.T) {
	c := NewSummaryCache(10, time.Minute)

	if _, ok := c.Get("user-1", core.Monthly); ok {
		t.Error("Get() on empty cache returned a hit")
	}

	want := core.Summary{TotalIncome: 1200}
	c.Set("user-1", core.Monthly, want)

	got, ok := c.Get("user-1", core.Monthly)
	if !ok {
		t.Fatal("Get() after Set() returned a miss")
	}
	if got.TotalIncome != want.TotalIncome {
		t.Errorf("Get() TotalIncome = %v, want %v", got.TotalIncome, want.TotalIncome)
	}

	// Distinct periods are distinct entries.
	if _, ok := c.Get("user-1", core.Yearly); ok {
		t.Error("Get() for unset period returned a hit")
	}
}

func TestSummaryCache_InvalidateOwner(t *testing.T) {
	c := NewSummaryCache(10, time.Minute)
	c.Set("user-1", core.Monthly, core.Summary{})
	c.Set("user-1", core.Yearly, core.Summary{})
	c.Set("user-2", core.Monthly, core.Summary{})

	if got := c.InvalidateOwner("user-1"); got != 2 {
		t.Errorf("InvalidateOwner() removed %d entries, want 2", got)
	}

	if _, ok := c.Get("user-1", core.Monthly); ok {
		t.Error("user-1 monthly entry survived invalidation")
	}
	if _, ok := c.Get("user-2", core.Monthly); !ok {
		t.Error("user-2 entry was dropped by user-1 invalidation")
	}
}

func TestLRUCache_EvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch a so b is the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k0"); ok {
		t.Error("expired entry returned a hit")
	}
	if got := c.CleanExpired(); got != 2 {
		// k0 was already dropped by the Get above.
		t.Errorf("CleanExpired() = %d, want 2", got)
	}
	if c.Size() != 0 {
		t.Errorf("Size() after cleanup = %d, want 0", c.Size())
	}
}
