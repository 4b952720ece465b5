package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	perrors "github.com/matzehuels/primgen/pkg/errors"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Errorf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("expanded text"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get(k) = hit %v, err %v; want hit", hit, err)
	}
	if string(data) != "expanded text" {
		t.Errorf("Get(k) = %q, want %q", data, "expanded text")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("expired Get = hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("corrupt Get = hit %v, err %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != HashString("hello") {
		t.Error("Hash and HashString should agree")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	h := HashString("template text")

	base := k.ExpansionKey(h, ExpansionKeyOpts{
		Rules:         []string{`{"kind":"replace"}`},
		Substitutions: map[string]string{"#k#": "int", "#K#": "Int"},
	})
	if !strings.HasPrefix(base, "expand:") {
		t.Errorf("ExpansionKey = %q, want expand: prefix", base)
	}

	// Map iteration order must not matter.
	for i := 0; i < 20; i++ {
		again := k.ExpansionKey(h, ExpansionKeyOpts{
			Rules:         []string{`{"kind":"replace"}`},
			Substitutions: map[string]string{"#K#": "Int", "#k#": "int"},
		})
		if again != base {
			t.Fatalf("ExpansionKey not deterministic: %q vs %q", again, base)
		}
	}

	variants := []ExpansionKeyOpts{
		{Rules: []string{`{"kind":"capture"}`}, Substitutions: map[string]string{"#k#": "int", "#K#": "Int"}},
		{Rules: []string{`{"kind":"replace"}`}, Substitutions: map[string]string{"#k#": "long", "#K#": "Int"}},
		{Rules: []string{`{"kind":"replace"}`}},
	}
	for _, opts := range variants {
		if k.ExpansionKey(h, opts) == base {
			t.Errorf("ExpansionKey(%v) should differ from base", opts)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "api:")

	key := scoped.ExpansionKey("h", ExpansionKeyOpts{})
	if want := "api:" + NewDefaultKeyer().ExpansionKey("h", ExpansionKeyOpts{}); key != want {
		t.Errorf("ExpansionKey = %q, want %q", key, want)
	}

	// nil inner falls back to the default scheme
	if got, want := NewScopedKeyer(nil, "p:").ExpansionKey("h", ExpansionKeyOpts{}), "p:"+key[len("api:"):]; got != want {
		t.Errorf("nil inner ExpansionKey = %q, want %q", got, want)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := Open(ctx, "", dir)
	if err != nil {
		t.Fatalf("Open(\"\") error: %v", err)
	}
	if fc, ok := c.(*FileCache); !ok || fc.Dir() != dir {
		t.Errorf("Open(\"\") = %T, want *FileCache in %s", c, dir)
	}

	c, err = Open(ctx, "none", dir)
	if err != nil {
		t.Fatalf("Open(none) error: %v", err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("Open(none) = %T, want NullCache", c)
	}

	other := filepath.Join(dir, "other")
	c, err = Open(ctx, "file://"+other, dir)
	if err != nil {
		t.Fatalf("Open(file://) error: %v", err)
	}
	if got := Describe(c); got != "file "+other {
		t.Errorf("Describe = %q, want %q", got, "file "+other)
	}

	_, err = Open(ctx, "memcached://localhost", dir)
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("Open(memcached) error = %v, want ErrUnsupportedScheme", err)
	}
	if !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("Open(memcached) code = %v, want %v", perrors.GetCode(err), perrors.ErrCodeInvalidInput)
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "primgen") {
		t.Errorf("DefaultDir() = %q", dir)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("Retryable should unwrap to the original error")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("message = %q, want %q", err.Error(), ErrUnavailable.Error())
	}
	if IsRetryable(ErrUnsupportedScheme) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error { calls++; return ErrUnsupportedScheme })
	if err != ErrUnsupportedScheme || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrUnavailable) })
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
