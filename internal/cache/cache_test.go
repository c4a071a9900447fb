package cache

import (
	"testing"
	"time"
)

func TestExtractionKey_Prefix(t *testing.T) {
	key := ExtractionKey("abc123")
	if key != "claimlens:ocr:v1:abc123" {
		t.Errorf("unexpected key: %s", key)
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("pages"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "pages" {
		t.Errorf("expected cached value, got %q found=%v", val, found)
	}

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for unknown key")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Minute, dir, time.Hour)

	// Write straight to the disk tier, bypassing memory
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("disk set: %v", err)
	}

	val, found := layered.Get("k")
	if !found || string(val) != "v" {
		t.Fatalf("expected disk hit through layered cache, got %q found=%v", val, found)
	}

	// Now present in the memory tier too
	if _, found := layered.memory.Get("k"); !found {
		t.Error("expected promotion to memory tier")
	}
}
