package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

const entrySuffix = ".json"

// FileStore keeps one JSON file per entry under a single directory.  All
// operations share one mutex; the workload is a handful of small files per
// prediction, so simplicity wins over finer locking.
type FileStore struct {
	dir    string
	ttl    time.Duration
	mu     sync.Mutex
	logger logging.Logger
}

func NewFileStore(dir string, ttl time.Duration, logger logging.Logger) (*FileStore, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to create cache directory")
	}
	return &FileStore{dir: dir, ttl: ttl, logger: logger.Named("filecache")}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+entrySuffix)
}

// Get returns the entry for key, expiring and deleting it when past TTL and
// deleting it when the file cannot be parsed.  Both cases report a miss.
func (s *FileStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to read cache entry")
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Timestamp.IsZero() {
		s.logger.Warn("removing corrupt cache entry", logging.String("key", key))
		_ = os.Remove(s.path(key))
		return nil, false, nil
	}

	if s.ttl > 0 && time.Since(entry.Timestamp) > s.ttl {
		_ = os.Remove(s.path(key))
		return nil, false, nil
	}
	return &entry, true, nil
}

func (s *FileStore) Set(_ context.Context, key string, entry *Entry) error {
	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode cache entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(key), raw, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to write cache entry")
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
			return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to delete cache entry")
		}
	}
	return nil
}

func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.listLocked()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, strings.TrimSuffix(name, entrySuffix))
	}
	return keys, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.listLocked()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to clear cache")
		}
	}
	return nil
}

func (s *FileStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.listLocked()
	if err != nil {
		return nil, err
	}
	stats := &Stats{TotalEntries: len(names), Location: s.dir}
	for _, name := range names {
		if info, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			stats.TotalSizeBytes += info.Size()
		}
	}
	stats.TotalSizeMB = float64(stats.TotalSizeBytes) / (1 << 20)
	return stats, nil
}

func (s *FileStore) listLocked() ([]string, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "failed to list cache directory")
	}
	names := make([]string, 0, len(dirents))
	for _, de := range dirents {
		if !de.IsDir() && strings.HasSuffix(de.Name(), entrySuffix) {
			names = append(names, de.Name())
		}
	}
	return names, nil
}
