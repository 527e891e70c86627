// Package cache persists expensive computation results, keyed by the
// reactant set and optional molecular geometry.  Two backends share one
// contract: a directory of JSON files for single-node deployments and Redis
// for shared ones.  SmartCache layers frequency-based eviction on top of
// either backend.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// Entry is the persisted envelope around a cached payload.  The timestamp
// drives TTL expiry; the element list is stored alongside for debuggability
// since the key itself is an opaque hash.
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Elements  []string        `json:"elements"`
	Data      json.RawMessage `json:"data"`
}

// Stats describes the current backend contents.
type Stats struct {
	TotalEntries   int     `json:"total_entries"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	TotalSizeMB    float64 `json:"total_size_mb"`
	Location       string  `json:"location"`
}

// Store is the backend contract.  Get treats expired and corrupt entries as
// misses and removes them as a side effect, so callers never see stale data.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*Stats, error)
}

// keyIdentity is the canonical form hashed into a cache key.
type keyIdentity struct {
	Elements []string           `json:"elements"`
	Geometry map[string]float64 `json:"geometry"`
}

// Key derives the cache key for a reactant set and optional geometry.  The
// elements are sorted first so the key is order-independent for the same
// molecule; map keys serialize in sorted order, keeping the hash stable.
func Key(elements []string, geometry map[string]float64) string {
	sorted := append([]string(nil), elements...)
	sort.Strings(sorted)

	identity, _ := json.Marshal(keyIdentity{Elements: sorted, Geometry: geometry})
	sum := sha256.Sum256(identity)
	return hex.EncodeToString(sum[:])
}
