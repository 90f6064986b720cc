package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Fatal("Get on empty cache should miss")
	}

	src := []byte("body { color: red }")
	if err := c.Set(ctx, "k", src, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	src[0] = 'X'

	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v; want hit", hit, err)
	}
	if string(data) != "body { color: red }" {
		t.Errorf("Get = %q, stored value should be a copy", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after Delete, want 0", c.Len())
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry should hit")
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be evicted on read")
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "a", []byte("alpha"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "b", []byte("beta"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit || string(data) != "alpha" {
		t.Fatalf("Get(a) = %q, %v, %v", data, hit, err)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear removed %d entries, want 2", n)
	}
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestFileCacheExpired(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get expired = %v, %v; want miss", hit, err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	r1 := k.ResourceKey("https://cdn.example.com/styles/ffs-ui.css")
	r2 := k.ResourceKey("https://cdn.example.com/styles/ffs-ui.css?v=2")
	if r1 == r2 {
		t.Error("Different URLs should produce different keys")
	}
	if !strings.HasPrefix(r1, "resource:") {
		t.Errorf("ResourceKey unexpected: %s", r1)
	}

	if got := k.ThemeKey("dark"); got != "theme:dark" {
		t.Errorf("ThemeKey = %s, want theme:dark", got)
	}
}

func TestScoped(t *testing.T) {
	scoped := Scoped(NewDefaultKeyer(), "cdn:")
	if got := scoped.ThemeKey("dark"); got != "cdn:theme:dark" {
		t.Errorf("ThemeKey = %s", got)
	}
	if got := scoped.ResourceKey("x"); !strings.HasPrefix(got, "cdn:resource:") {
		t.Errorf("ResourceKey not prefixed: %s", got)
	}
	if got := Scoped(nil, "p:").ThemeKey("default"); got != "p:theme:default" {
		t.Errorf("nil inner ThemeKey = %s", got)
	}
	if _, ok := Scoped(DefaultKeyer{}, "").(DefaultKeyer); !ok {
		t.Error("empty prefix should return inner unchanged")
	}
}

func TestScopeFor(t *testing.T) {
	a := ScopeFor("https://cdn.example.com/ffs/")
	b := ScopeFor("https://assets.example.org/ffs/")
	if a == b {
		t.Error("different hosts share a scope")
	}
	if len(a) != 13 || !strings.HasSuffix(a, ":") {
		t.Errorf("ScopeFor = %q", a)
	}
	if ScopeFor("") != "" {
		t.Error("empty location should not be scoped")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr error
	}{
		{"default file", Options{Dir: t.TempDir()}, "*cache.FileCache", nil},
		{"memory", Options{Backend: BackendMemory}, "*cache.MemoryCache", nil},
		{"none", Options{Backend: BackendNone}, "cache.NullCache", nil},
		{"unknown", Options{Backend: "memcached"}, "", ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open error: %v", err)
			}
			defer c.Close()
			if got := typeName(c); got != tt.want {
				t.Errorf("Open returned %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(c Cache) string {
	switch c.(type) {
	case *FileCache:
		return "*cache.FileCache"
	case *MemoryCache:
		return "*cache.MemoryCache"
	case NullCache:
		return "cache.NullCache"
	case *RedisCache:
		return "*cache.RedisCache"
	}
	return "unknown"
}

func TestFileCacheTruncatedEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte{1, 2}, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get truncated = %v, %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("truncated entry was not removed")
	}
}
