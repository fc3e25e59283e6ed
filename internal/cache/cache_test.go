package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/anime-shed/doc-extractor-go/pkg/models"
)

func TestNewKeyDeterministic(t *testing.T) {
	img := []byte("image-bytes")
	a := NewKey(img, "config-a")
	b := NewKey(img, "config-a")
	if a != b {
		t.Errorf("Expected identical keys, got %q and %q", a, b)
	}

	c := NewKey(img, "config-b")
	if a == c {
		t.Error("Expected different keys for different configurations")
	}

	d := NewKey([]byte("other-bytes"), "config-a")
	if a == d {
		t.Error("Expected different keys for different image bytes")
	}
}

func TestGetMissThenHit(t *testing.T) {
	c := New(time.Minute)
	key := NewKey([]byte("img"), "cfg")

	if _, ok := c.Get(key); ok {
		t.Fatal("Expected miss on empty cache")
	}

	c.Put(key, models.ExtractionResult{Text: "hello"})

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Expected hit after Put")
	}
	if got.Text != "hello" {
		t.Errorf("Expected cached text %q, got %q", "hello", got.Text)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	c := New(20 * time.Millisecond)
	key := NewKey([]byte("img"), "cfg")

	c.Put(key, models.ExtractionResult{Text: "stale"})
	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("Expected expired entry to read as a miss")
	}
	if c.Stats().Entries != 0 {
		t.Errorf("Expected expired entry evicted, have %d entries", c.Stats().Entries)
	}
}

func TestClear(t *testing.T) {
	c := New(time.Hour)
	for i := 0; i < 5; i++ {
		c.Put(NewKey([]byte{byte(i)}, "cfg"), models.ExtractionResult{Text: "x"})
	}

	removed := c.Clear(0)
	if removed != 5 {
		t.Errorf("Expected Clear(0) to remove 5 entries, removed %d", removed)
	}
	if c.Stats().Entries != 0 {
		t.Errorf("Expected empty cache after Clear(0), have %d entries", c.Stats().Entries)
	}
}

func TestClearRespectsMaxAge(t *testing.T) {
	c := New(time.Hour)
	c.Put(NewKey([]byte("fresh"), "cfg"), models.ExtractionResult{Text: "x"})

	// Nothing is older than an hour yet.
	if removed := c.Clear(time.Hour); removed != 0 {
		t.Errorf("Expected no evictions for young entries, removed %d", removed)
	}
	if c.Stats().Entries != 1 {
		t.Errorf("Expected entry to survive, have %d entries", c.Stats().Entries)
	}
}

func TestInvalidate(t *testing.T) {
	c := New(time.Hour)
	key := NewKey([]byte("img"), "cfg")
	c.Put(key, models.ExtractionResult{Text: "x"})

	c.Invalidate(key)
	if _, ok := c.Get(key); ok {
		t.Error("Expected miss after Invalidate")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := NewKey([]byte(fmt.Sprintf("img-%d-%d", n, j%5)), "cfg")
				c.Put(key, models.ExtractionResult{Text: "t"})
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Stats().Entries == 0 {
		t.Error("Expected entries to survive concurrent access")
	}
}

func TestSweeperEvictsExpired(t *testing.T) {
	c := New(10 * time.Millisecond)
	defer c.Stop()
	c.StartSweeper(15 * time.Millisecond)

	c.Put(NewKey([]byte("img"), "cfg"), models.ExtractionResult{Text: "x"})
	time.Sleep(50 * time.Millisecond)

	if n := c.Stats().Entries; n != 0 {
		t.Errorf("Expected sweeper to evict expired entry, have %d", n)
	}
}
