package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "key1", []byte("hello"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	data, found, err := c.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false, want true")
	}
	if string(data) != "hello" {
		t.Errorf("Get() data = %q, want %q", data, "hello")
	}
}

func TestFileCacheMiss(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	_, found, err := c.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true for absent key, want false")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	_, found, err := c.Get(ctx, "short")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true after expiry, want false")
	}
}

func TestFileCacheNoExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	// ttl of 0 means the entry never expires
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	_, found, err := c.Get(ctx, "forever")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Error("Get() found = false for zero-TTL entry, want true")
	}
}

func TestFileCacheDelete(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "gone", []byte("z"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, found, err := c.Get(ctx, "gone")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true after Delete, want false")
	}

	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete() of missing key error = %v, want nil", err)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	_, found, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("NullCache Get() found = true, want false")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDefaultKeyerDeterministic(t *testing.T) {
	k := NewDefaultKeyer()

	opts := ResultKeyOpts{
		Ratio:      0.5,
		Adjacency:  4,
		BinSize:    10,
		Colorspace: "rgb",
	}

	key1 := k.ResultKey("abc123", opts)
	key2 := k.ResultKey("abc123", opts)
	if key1 != key2 {
		t.Errorf("ResultKey() not deterministic: %q vs %q", key1, key2)
	}
	if !strings.HasPrefix(key1, "result:") {
		t.Errorf("ResultKey() = %q, want result: prefix", key1)
	}
}

func TestDefaultKeyerDistinguishesOptions(t *testing.T) {
	k := NewDefaultKeyer()
	base := ResultKeyOpts{Ratio: 0.5, Adjacency: 4, BinSize: 10, Colorspace: "rgb"}

	variants := map[string]ResultKeyOpts{
		"ratio":      {Ratio: 0.6, Adjacency: 4, BinSize: 10, Colorspace: "rgb"},
		"adjacency":  {Ratio: 0.5, Adjacency: 8, BinSize: 10, Colorspace: "rgb"},
		"binsize":    {Ratio: 0.5, Adjacency: 4, BinSize: 12, Colorspace: "rgb"},
		"weighted":   {Ratio: 0.5, Adjacency: 4, BinSize: 10, Colorspace: "rgb", WeightScaled: true},
		"colorspace": {Ratio: 0.5, Adjacency: 4, BinSize: 10, Colorspace: "lab"},
		"palette":    {Ratio: 0.5, Adjacency: 4, BinSize: 10, Colorspace: "rgb", PaletteSize: 8, PaletteMethod: "kmeans"},
	}

	baseKey := k.ResultKey("hash", base)
	for name, opts := range variants {
		if got := k.ResultKey("hash", opts); got == baseKey {
			t.Errorf("ResultKey() with changed %s collides with base key", name)
		}
	}

	if k.ResultKey("otherhash", base) == baseKey {
		t.Error("ResultKey() with different input hash collides with base key")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "tenant1:")

	opts := ResultKeyOpts{Ratio: 0.5, Adjacency: 4, BinSize: 10, Colorspace: "rgb"}

	got := scoped.ResultKey("hash", opts)
	want := "tenant1:" + inner.ResultKey("hash", opts)
	if got != want {
		t.Errorf("ScopedKeyer.ResultKey() = %q, want %q", got, want)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "p:")
	opts := ResultKeyOpts{Ratio: 0.5}
	if got := scoped.ResultKey("hash", opts); !strings.HasPrefix(got, "p:result:") {
		t.Errorf("ResultKey() = %q, want p:result: prefix", got)
	}
}

func TestFileCacheOverwrite(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("first"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "k", []byte("second"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	data, found, err := c.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get() = (%v, %v), want hit", found, err)
	}
	if string(data) != "second" {
		t.Errorf("Get() data = %q, want %q", data, "second")
	}
}
