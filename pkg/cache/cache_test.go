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

var errTransient = errors.New("transient")

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get = %q, %v; want miss", data, hit)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = %v, %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("payload"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get(k) = %v, %v; want hit", hit, err)
	}
	if string(data) != "payload" {
		t.Errorf("Get(k) = %q", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of absent key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry not removed: %v", err)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
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
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get = %v, %v; want silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
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
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs share a hash")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.ParseKey("abc", "nml"); got != "parse:nml:abc" {
		t.Errorf("ParseKey = %q", got)
	}
	if k.ParseKey("abc", "nml") == k.ParseKey("abc", "json") {
		t.Error("format not part of ParseKey")
	}

	base := TransformKeyOpts{MaxEdgeLength: 10}
	tests := []struct {
		name string
		opts TransformKeyOpts
	}{
		{"split", TransformKeyOpts{MaxEdgeLength: 10, Split: true}},
		{"length", TransformKeyOpts{MaxEdgeLength: 20}},
		{"scale", TransformKeyOpts{MaxEdgeLength: 10, Scale: [3]float64{1, 1, 2}}},
		{"reglobalize", TransformKeyOpts{MaxEdgeLength: 10, Reglobalize: true}},
	}
	baseKey := k.TransformKey("abc", base)
	if !strings.HasPrefix(baseKey, "transform:") {
		t.Errorf("TransformKey = %q", baseKey)
	}
	if baseKey != k.TransformKey("abc", base) {
		t.Error("TransformKey is not deterministic")
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k.TransformKey("abc", tt.opts) == baseKey {
				t.Error("option change did not change the key")
			}
		})
	}
	if k.TransformKey("abd", base) == baseKey {
		t.Error("content hash not part of TransformKey")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "api:")

	if got := scoped.ParseKey("abc", "nml"); got != "api:parse:nml:abc" {
		t.Errorf("ParseKey = %q", got)
	}
	opts := TransformKeyOpts{Split: true}
	if got, want := scoped.TransformKey("abc", opts), "api:"+inner.TransformKey("abc", opts); got != want {
		t.Errorf("TransformKey = %q, want %q", got, want)
	}

	if got := NewScopedKeyer(nil, "p:").ParseKey("h", "json"); got != "p:parse:json:h" {
		t.Errorf("nil inner: %q", got)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	err := Retryable(errTransient)
	if !IsRetryable(err) {
		t.Error("wrapped error not retryable")
	}
	if !errors.Is(err, errTransient) {
		t.Error("Unwrap lost the cause")
	}
	if err.Error() != errTransient.Error() {
		t.Errorf("message = %q", err.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("plain error reported retryable")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, true, 1, false},
		{"permanent", 5, false, 1, true},
		{"recovers", 2, true, 3, false},
		{"exhausted", 5, true, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retry(ctx, 3, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(errTransient)
					}
					return errTransient
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errTransient)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		in, wantAddr string
		wantDB       int
	}{
		{"", "localhost:6379", 0},
		{"cache:6380", "cache:6380", 0},
		{"redis://cache:6379/2", "cache:6379", 2},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			opts, err := redisOptions(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if opts.Addr != tt.wantAddr || opts.DB != tt.wantDB {
				t.Errorf("got %s db %d, want %s db %d", opts.Addr, opts.DB, tt.wantAddr, tt.wantDB)
			}
		})
	}
	if _, err := redisOptions("redis://cache:6379/notadb"); err == nil {
		t.Error("bad url accepted")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("WKNML_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WKNML_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	key := "wknml-test:" + Hash([]byte(t.Name()))
	defer c.Delete(ctx, key)

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get before Set = %v, %v", hit, err)
	}
	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("entry present after Delete")
	}
}

type ttlRecorder struct {
	NullCache
	ttl time.Duration
}

func (r *ttlRecorder) Set(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
	r.ttl = ttl
	return nil
}

func TestWithTTL(t *testing.T) {
	rec := &ttlRecorder{}
	if got := WithTTL(rec, 0); got != Cache(rec) {
		t.Error("WithTTL(c, 0) should return c")
	}

	c := WithTTL(rec, time.Minute)
	if err := c.Set(context.Background(), "k", nil, TTLParse); err != nil {
		t.Fatal(err)
	}
	if rec.ttl != time.Minute {
		t.Errorf("stored ttl = %v, want %v", rec.ttl, time.Minute)
	}
}
