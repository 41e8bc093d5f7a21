package cache_test

import (
	"testing"
	"time"

	"github.com/rakotomalala/compta-pme-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("summary:p1", "value1")
	val, ok := c.Get("summary:p1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("summary:p1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("summary:p1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("summary:p1", "value1")
	c.Delete("summary:p1")

	_, ok := c.Get("summary:p1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_Flush(t *testing.T) {
	c := cache.New[int](5 * time.Minute)

	c.Set("summary:p1", 1)
	c.Set("summary:p2", 2)
	c.Flush()

	if _, ok := c.Get("summary:p1"); ok {
		t.Fatal("expected p1 to be flushed")
	}
	if _, ok := c.Get("summary:p2"); ok {
		t.Fatal("expected p2 to be flushed")
	}
}
