package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T, ttl time.Duration) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), ttl, nil)
	require.NoError(t, err)
	return store
}

func TestKeyIsOrderIndependent(t *testing.T) {
	geo := map[string]float64{"H-H": 0.74}
	assert.Equal(t, Key([]string{"H", "O"}, geo), Key([]string{"O", "H"}, geo))
	assert.NotEqual(t, Key([]string{"H", "O"}, geo), Key([]string{"H", "O"}, nil))
	assert.NotEqual(t, Key([]string{"H", "H"}, nil), Key([]string{"H"}, nil))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newFileStore(t, time.Hour)
	ctx := context.Background()

	key := Key([]string{"H", "H"}, nil)
	entry := &Entry{
		Timestamp: time.Now(),
		Elements:  []string{"H", "H"},
		Data:      json.RawMessage(`{"vqe_energy":-1.137}`),
	}
	require.NoError(t, store.Set(ctx, key, entry))

	got, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Elements, got.Elements)
	assert.JSONEq(t, string(entry.Data), string(got.Data))

	_, ok, err = store.Get(ctx, Key([]string{"Na", "Cl"}, nil))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreExpiresEntries(t *testing.T) {
	store := newFileStore(t, time.Hour)
	ctx := context.Background()

	key := Key([]string{"H", "O"}, nil)
	stale := &Entry{
		Timestamp: time.Now().Add(-2 * time.Hour),
		Elements:  []string{"H", "O"},
		Data:      json.RawMessage(`{}`),
	}
	require.NoError(t, store.Set(ctx, key, stale))

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// The expired file is gone, not just skipped.
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileStoreDropsCorruptEntries(t *testing.T) {
	store := newFileStore(t, time.Hour)
	ctx := context.Background()

	key := Key([]string{"C", "H"}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, key+entrySuffix), []byte("not json"), 0o644))

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileStoreStatsAndClear(t *testing.T) {
	store := newFileStore(t, time.Hour)
	ctx := context.Background()

	for _, elems := range [][]string{{"H", "H"}, {"Na", "Cl"}, {"C", "O"}} {
		entry := &Entry{Timestamp: time.Now(), Elements: elems, Data: json.RawMessage(`{}`)}
		require.NoError(t, store.Set(ctx, Key(elems, nil), entry))
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))

	require.NoError(t, store.Clear(ctx))
	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalEntries)
}

func TestSmartCacheRoundTrip(t *testing.T) {
	store := newFileStore(t, time.Hour)
	smart := NewSmartCache(store, 100, nil)
	ctx := context.Background()

	payload := map[string]float64{"vqe_energy": -1.137}
	require.NoError(t, smart.Set(ctx, []string{"H", "H"}, nil, payload))

	raw, ok, err := smart.Get(ctx, []string{"H", "H"}, nil)
	require.NoError(t, err)
	require.True(t, ok)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.InDelta(t, -1.137, got["vqe_energy"], 1e-9)
}

func TestSmartCacheEvictsColdEntries(t *testing.T) {
	store := newFileStore(t, time.Hour)
	smart := NewSmartCache(store, 10, nil)
	ctx := context.Background()

	sets := [][]string{
		{"H", "H"}, {"H", "O"}, {"Na", "Cl"}, {"C", "O"}, {"N", "N"},
		{"O", "O"}, {"C", "H"}, {"F", "F"}, {"Cl", "Cl"}, {"He", "He"},
	}
	for _, elems := range sets {
		require.NoError(t, smart.Set(ctx, elems, nil, map[string]int{"n": 1}))
	}

	// Read everything except the first entry three times, and the first
	// entry once, so it is unambiguously the coldest tracked key.
	for i := 0; i < 3; i++ {
		for _, elems := range sets[1:] {
			_, ok, err := smart.Get(ctx, elems, nil)
			require.NoError(t, err)
			require.True(t, ok)
		}
	}
	_, _, err := smart.Get(ctx, sets[0], nil)
	require.NoError(t, err)

	// The backend is at the ceiling, so this write evicts the bottom 20%
	// of stored keys (10/5 = 2, the cold key plus one tie) first.
	require.NoError(t, smart.Set(ctx, []string{"Xe", "Xe"}, nil, map[string]int{"n": 1}))

	stats, err := smart.Stats(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.TotalEntries, 10-2+1)

	// The coldest entry is gone from the backend.
	_, ok, err := store.Get(ctx, Key(sets[0], nil))
	require.NoError(t, err)
	assert.False(t, ok)

	// The new entry landed.
	_, ok, err = smart.Get(ctx, []string{"Xe", "Xe"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSmartCacheCeilingHoldsForWriteOnlyFills(t *testing.T) {
	store := newFileStore(t, time.Hour)
	smart := NewSmartCache(store, 10, nil)
	ctx := context.Background()

	// Never read anything back: every key has access count zero, and the
	// ceiling must still hold.
	sets := [][]string{
		{"H", "H"}, {"H", "O"}, {"Na", "Cl"}, {"C", "O"}, {"N", "N"},
		{"O", "O"}, {"C", "H"}, {"F", "F"}, {"Cl", "Cl"}, {"He", "He"},
		{"Xe", "Xe"},
	}
	for _, elems := range sets {
		require.NoError(t, smart.Set(ctx, elems, nil, map[string]int{"n": 1}))
	}

	stats, err := smart.Stats(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.TotalEntries, 10)

	// The newest entry survived the eviction that made room for it.
	_, ok, err := smart.Get(ctx, []string{"Xe", "Xe"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSmartCacheEvictsAtLeastOneEntry(t *testing.T) {
	store := newFileStore(t, time.Hour)
	smart := NewSmartCache(store, 3, nil)
	ctx := context.Background()

	// With fewer than five stored keys, 20% rounds down to zero; the
	// eviction still removes one so small caches stay bounded.
	sets := [][]string{{"H", "H"}, {"H", "O"}, {"Na", "Cl"}, {"C", "O"}, {"N", "N"}}
	for _, elems := range sets {
		require.NoError(t, smart.Set(ctx, elems, nil, map[string]int{"n": 1}))

		stats, err := smart.Stats(ctx)
		require.NoError(t, err)
		assert.LessOrEqual(t, stats.TotalEntries, 3)
	}
}
