package cache

import (
	"testing"
	"time"
)

func TestLRUWithTTL_BasicOperations(t *testing.T) {
	cache, err := NewLRUWithTTL[string, string](3, 0) // no TTL
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	cache.Set("query1", "Y")
	if val, ok := cache.Get("query1"); !ok || val != "Y" {
		t.Errorf("Get(query1) = (%v, %v), want (Y, true)", val, ok)
	}

	if _, ok := cache.Get("nonexistent"); ok {
		t.Error("Get(nonexistent) should return false")
	}

	// LRU eviction once over capacity.
	cache.Set("query2", "N")
	cache.Set("query3", "Y")
	cache.Set("query4", "N")

	if _, ok := cache.Get("query1"); ok {
		t.Error("query1 should have been evicted")
	}
	if cache.Len() != 3 {
		t.Errorf("Len = %d, want 3", cache.Len())
	}
}

func TestLRUWithTTL_Expiration(t *testing.T) {
	cache, err := NewLRUWithTTL[string, bool](10, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	cache.Set("query1", true)
	if _, ok := cache.Get("query1"); !ok {
		t.Error("entry should be present before TTL expires")
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := cache.Get("query1"); ok {
		t.Error("entry should have expired")
	}
}

func TestLRUWithTTL_Stats(t *testing.T) {
	cache, err := NewLRUWithTTL[string, bool](10, 0)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	cache.Set("hit", true)
	cache.Get("hit")
	cache.Get("miss")

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats = %+v, want 1 hit and 1 miss", stats)
	}
}
