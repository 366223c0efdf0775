package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/havensuites/concierge/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Stop()

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Stop()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Stop()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Stop()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_GetOrSetCreatesOnce(t *testing.T) {
	c := cache.New[*int](5 * time.Minute)
	defer c.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		seen    = make(map[*int]struct{})
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.GetOrSet("session", func() *int {
				mu.Lock()
				created++
				mu.Unlock()
				return new(int)
			})
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("expected 1 creation, got %d", created)
	}
	if len(seen) != 1 {
		t.Errorf("expected every caller to get the same value, got %d distinct", len(seen))
	}
}

func TestCache_GetOrSetReplacesExpired(t *testing.T) {
	c := cache.New[string](30 * time.Millisecond)
	defer c.Stop()

	c.Set("k", "old")
	time.Sleep(60 * time.Millisecond)

	if got := c.GetOrSet("k", func() string { return "new" }); got != "new" {
		t.Errorf("expected 'new', got '%s'", got)
	}
}
