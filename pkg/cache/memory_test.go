package cache

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute, nil)

	store.Set("/api/v1/packages", []byte(`[{"id":"p1"}]`), "application/json", 0)

	entry, ok := store.Get("/api/v1/packages")
	require.True(t, ok)
	require.Equal(t, []byte(`[{"id":"p1"}]`), entry.Body)
	require.Equal(t, "application/json", entry.ContentType)

	_, ok = store.Get("/api/v1/states")
	require.False(t, ok)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute, nil)

	store.Set("key", []byte("first"), "application/json", 0)
	store.Set("key", []byte("second"), "application/json", 0)

	entry, ok := store.Get("key")
	require.True(t, ok)
	require.Equal(t, []byte("second"), entry.Body)
	require.Equal(t, 1, store.Len())
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute, nil)
	current := time.Now()
	store.now = func() time.Time { return current }

	store.Set("key", []byte("value"), "application/json", 30*time.Second)

	_, ok := store.Get("key")
	require.True(t, ok)

	current = current.Add(31 * time.Second)
	_, ok = store.Get("key")
	require.False(t, ok)
	require.Equal(t, 0, store.Len())
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute, nil)
	current := time.Now()
	store.now = func() time.Time { return current }

	store.Set("live", []byte("a"), "application/json", time.Hour)
	store.Set("stale", []byte("b"), "application/json", time.Second)

	current = current.Add(2 * time.Second)
	require.Equal(t, 1, store.sweep())
	require.Equal(t, 1, store.Len())

	_, ok := store.Get("live")
	require.True(t, ok)
}

func TestMemoryStoreInvalidateMatching(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute, nil)
	store.Set("/api/v1/packages", []byte("a"), "application/json", 0)
	store.Set("/api/v1/packages/p1", []byte("b"), "application/json", 0)
	store.Set("/api/v1/states", []byte("c"), "application/json", 0)

	removed := store.InvalidateMatching(regexp.MustCompile(`^/api/v1/packages`))
	require.Equal(t, 2, removed)
	require.Equal(t, 1, store.Len())

	_, ok := store.Get("/api/v1/states")
	require.True(t, ok)

	require.Equal(t, 0, store.InvalidateMatching(regexp.MustCompile(`^/api/v1/cities`)))
}

func TestMemoryStoreFlush(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute, nil)
	store.Set("a", []byte("1"), "application/json", 0)
	store.Set("b", []byte("2"), "application/json", 0)

	require.Equal(t, 2, store.Flush())
	require.Equal(t, 0, store.Len())

	_, ok := store.Get("a")
	require.False(t, ok)
}
