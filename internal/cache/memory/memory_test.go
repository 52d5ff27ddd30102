package memory_test

import (
	"context"
	"testing"

	"github.com/visualright/filterlab/internal/cache"
	"github.com/visualright/filterlab/internal/cache/memory"
)

func TestMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := memory.New(0)

	t.Run("get item", func(t *testing.T) {
		// Add item to the cache
		provider.Set(ctx, "foo", []byte("bar"))

		// Get item from the cache
		data, err := provider.Get(ctx, "foo")
		if err != nil {
			t.Fatal(err)
		}

		if string(data) != "bar" {
			t.Fatal("wrong data")
		}
	})

	t.Run("get nonexistant item", func(t *testing.T) {
		_, err := provider.Get(ctx, "notfound")
		if err == nil {
			t.Fatal("no error")
		}

		if err != cache.ErrNotFound {
			t.Fatalf("wrong error %s", err)
		}
	})
}

func TestMemoryEviction(t *testing.T) {
	ctx := context.Background()
	provider := memory.New(10)

	provider.Set(ctx, "a", []byte("aaaa"))
	provider.Set(ctx, "b", []byte("bbbb"))

	// Touch a so that b is the least recently used
	if _, err := provider.Get(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	provider.Set(ctx, "c", []byte("cccc"))

	if _, err := provider.Get(ctx, "b"); err != cache.ErrNotFound {
		t.Errorf("b should have been evicted, got %v", err)
	}

	for _, key := range []string{"a", "c"} {
		if _, err := provider.Get(ctx, key); err != nil {
			t.Errorf("%s: %s", key, err)
		}
	}

	// Replacing a key doesn't count it twice
	provider.Set(ctx, "c", []byte("cc"))
	if provider.Len() != 2 {
		t.Errorf("wrong length %d", provider.Len())
	}

	// Objects larger than the cache are not stored
	provider.Set(ctx, "huge", make([]byte, 11))
	if _, err := provider.Get(ctx, "huge"); err != cache.ErrNotFound {
		t.Errorf("oversized object was stored")
	}
}
