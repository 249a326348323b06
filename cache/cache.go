// Package cache is a file-backed TTL cache for fetch-and-parse results.
// One entry per key, stored as <dir>/<key>.json holding the creation
// timestamp and the serialized value. Expired entries are removed lazily on
// the read path. There is no cross-process locking: concurrent writers on the
// same key race last-writer-wins, which is acceptable because values are
// derived deterministically from the same remote content within the TTL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const DefaultTTL = 24 * time.Hour

type entry struct {
	Timestamp int64           `json:"timestamp"` // epoch millis
	Value     json.RawMessage `json:"value"`
}

// Store is a directory of TTL-bound cache entries.
type Store struct {
	dir     string
	ttl     time.Duration
	enabled bool
	log     *slog.Logger
	now     func() time.Time
}

func New(dir string, ttl time.Duration, enabled bool) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if enabled {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir: %w", err)
		}
	}
	return &Store{
		dir:     dir,
		ttl:     ttl,
		enabled: enabled,
		log:     slog.With("component", "cache"),
		now:     time.Now,
	}, nil
}

// Key derives the deterministic cache key for an operation and its arguments.
// Arguments are serialized in order, so identical calls always hash alike.
func Key(op string, args ...any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		raw = []byte(fmt.Sprint(args...))
	}
	sum := sha256.Sum256(raw)
	return op + "_" + hex.EncodeToString(sum[:])
}

// Get decodes the cached value for key into out. It returns false on a miss,
// on a disabled store, or when the entry has outlived the TTL (in which case
// the file is deleted).
func (s *Store) Get(key string, out any) bool {
	if s == nil || !s.enabled {
		return false
	}
	path := filepath.Join(s.dir, key+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.log.Warn("discarding unreadable cache entry", "key", key, "error", err)
		_ = os.Remove(path)
		return false
	}
	age := s.now().Sub(time.UnixMilli(e.Timestamp))
	if age > s.ttl {
		_ = os.Remove(path)
		return false
	}
	if err := json.Unmarshal(e.Value, out); err != nil {
		s.log.Warn("discarding undecodable cache entry", "key", key, "error", err)
		_ = os.Remove(path)
		return false
	}
	return true
}

// Put stores the value under key. Failures are logged, never fatal: the cache
// only ever saves work, it is not a system of record.
func (s *Store) Put(key string, value any) {
	if s == nil || !s.enabled {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
		return
	}
	e := entry{Timestamp: s.now().UnixMilli(), Value: raw}
	data, err := json.Marshal(e)
	if err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(s.dir, key+".json"), data, 0o644); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}
