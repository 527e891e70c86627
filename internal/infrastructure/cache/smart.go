package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

// SmartCache fronts a Store with access-frequency tracking and a hard entry
// ceiling.  Before a write would push the backend past MaxEntries, the least
// accessed fifth of the stored keys is evicted.  Counters live in memory
// only; after a restart every entry starts cold, which merely makes it an
// eviction candidate again.
type SmartCache struct {
	store      Store
	maxEntries int
	logger     logging.Logger

	mu     sync.Mutex
	access map[string]int
}

func NewSmartCache(store Store, maxEntries int, logger logging.Logger) *SmartCache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SmartCache{
		store:      store,
		maxEntries: maxEntries,
		logger:     logger.Named("smartcache"),
		access:     make(map[string]int),
	}
}

// Get retrieves the payload cached for the reactant set and geometry.  Only
// hits bump the access counter.
func (c *SmartCache) Get(ctx context.Context, elements []string, geometry map[string]float64) (json.RawMessage, bool, error) {
	key := Key(elements, geometry)
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	c.mu.Lock()
	c.access[key]++
	c.mu.Unlock()
	return entry.Data, true, nil
}

// Set stores a payload, evicting cold entries first when the backend is at
// its ceiling.
func (c *SmartCache) Set(ctx context.Context, elements []string, geometry map[string]float64, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode cache payload")
	}

	if c.maxEntries > 0 {
		stats, err := c.store.Stats(ctx)
		if err != nil {
			return err
		}
		if stats.TotalEntries >= c.maxEntries {
			if err := c.evictLeastUsed(ctx); err != nil {
				return err
			}
		}
	}

	entry := &Entry{
		Timestamp: time.Now(),
		Elements:  append([]string(nil), elements...),
		Data:      raw,
	}
	return c.store.Set(ctx, Key(elements, geometry), entry)
}

// evictLeastUsed removes the bottom 20% of stored keys by access count, at
// least one so the ceiling holds even for tiny caches.  Keys never read
// since startup count as zero and evict first.  Ties break on the key
// string so repeated runs evict the same set.
func (c *SmartCache) evictLeastUsed(ctx context.Context) error {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	c.mu.Lock()
	sort.Slice(keys, func(i, j int) bool {
		if c.access[keys[i]] != c.access[keys[j]] {
			return c.access[keys[i]] < c.access[keys[j]]
		}
		return keys[i] < keys[j]
	})
	n := len(keys) / 5
	if n == 0 {
		n = 1
	}
	victims := keys[:n]
	for _, key := range victims {
		delete(c.access, key)
	}
	c.mu.Unlock()

	if err := c.store.Delete(ctx, victims...); err != nil {
		return err
	}
	c.logger.Info("evicted cold cache entries", logging.Int("count", len(victims)))
	return nil
}

func (c *SmartCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.access = make(map[string]int)
	c.mu.Unlock()
	return c.store.Clear(ctx)
}

func (c *SmartCache) Stats(ctx context.Context) (*Stats, error) {
	return c.store.Stats(ctx)
}
