// Package cache implements the content-addressed, on-disk derivation cache
// (C2). Keys are (content hash, operation, config fingerprint); values are
// serialized ExtractionResult bodies. Writes are atomic (temp file + rename);
// the cache carries no persistent catalog beyond the files themselves.
package cache

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-rendezvous"
	"github.com/robfig/cron/v3"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

// Store is the on-disk cache. When multiple RootDirs are configured, keys
// are assigned to a directory via rendezvous hashing so adding/removing a
// shard only reshuffles the minimum number of keys.
type Store struct {
	mu       sync.Mutex
	rootDirs []string
	rv       *rendezvous.Rendezvous
	cron     *cron.Cron
	ttl      time.Duration
	lock     DistributedLock
}

// DistributedLock is an optional advisory lock used to collapse concurrent
// Put calls for the same key across process replicas to a single writer.
// The in-process default is a no-op; callers wire a Redis-backed
// implementation when a shared cache directory is mounted by multiple
// worker processes.
type DistributedLock interface {
	// TryAcquire returns true if the caller won the lock for key, false if
	// another process currently holds it. Never blocks.
	TryAcquire(key string) (bool, error)
	Release(key string) error
}

type noopLock struct{}

func (noopLock) TryAcquire(string) (bool, error) { return true, nil }
func (noopLock) Release(string) error            { return nil }

// New creates a Store rooted at one or more directories and starts the
// background TTL sweep. ttl <= 0 disables the sweep.
func New(rootDirs []string, ttl time.Duration, lock DistributedLock) (*Store, error) {
	if len(rootDirs) == 0 {
		return nil, kerrors.NewInvalidInput("cache", "at least one root directory is required", nil)
	}
	for _, d := range rootDirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, kerrors.NewIO(d, err)
		}
	}
	if lock == nil {
		lock = noopLock{}
	}
	s := &Store{
		rootDirs: rootDirs,
		rv:       rendezvous.New(rootDirs, func(s string) uint64 { return xxhash.Sum64String(s) }),
		ttl:      ttl,
		lock:     lock,
	}
	if ttl > 0 {
		s.cron = cron.New()
		s.cron.AddFunc("@hourly", s.sweepExpired)
		s.cron.Start()
	}
	return s, nil
}

func (s *Store) Close() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// HashContent computes the 64-bit content hash used as the cache key's first
// component (spec's "hex-encoded BLAKE/AHash"; we use xxhash64, hex-encoded,
// which is deterministic and endian-stable).
func HashContent(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Fingerprint computes a stable hash over a JSON-serializable config value.
// Keys are sorted before hashing so field order never affects the result.
func Fingerprint(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	stable, err := stableMarshal(generic)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(stable)), nil
}

func stableMarshal(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			b.Write(kb)
			b.WriteByte(':')
			vb, err := stableMarshal(t[k])
			if err != nil {
				return nil, err
			}
			b.Write(vb)
		}
		b.WriteByte('}')
		return []byte(b.String()), nil
	case []interface{}:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			eb, err := stableMarshal(e)
			if err != nil {
				return nil, err
			}
			b.Write(eb)
		}
		b.WriteByte(']')
		return []byte(b.String()), nil
	default:
		return json.Marshal(v)
	}
}

func (s *Store) path(contentHash, operation, fingerprint string) string {
	root := s.rootDirs[0]
	if len(s.rootDirs) > 1 {
		root = s.rv.Get(contentHash)
	}
	prefix := contentHash
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	fname := fmt.Sprintf("%s.%s.bin", contentHash, fingerprint)
	return filepath.Join(root, operation, prefix, fname)
}

// Get looks up a cached result. A miss (including any read error, per the
// error-handling policy that cache-get failures degrade to a miss) returns
// (nil, false).
func (s *Store) Get(contentHash, operation, fingerprint string) (*kdoc.ExtractionResult, bool) {
	p := s.path(contentHash, operation, fingerprint)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	var result kdoc.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Put durably stores a result under the given key. Writes go to a randomly
// suffixed temp file in the same directory, fsynced, then renamed into
// place, so concurrent writers to the same key collapse to one successful
// write without partial content ever becoming visible.
func (s *Store) Put(contentHash, operation, fingerprint string, result *kdoc.ExtractionResult) error {
	lockKey := contentHash + ":" + operation + ":" + fingerprint
	acquired, err := s.lock.TryAcquire(lockKey)
	if err != nil || !acquired {
		return nil // another process is writing this key; not an error
	}
	defer s.lock.Release(lockKey)

	p := s.path(contentHash, operation, fingerprint)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return kerrors.NewCache(p, err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return kerrors.NewCache(p, err)
	}

	tmp := fmt.Sprintf("%s.tmp.%d", p, rand.Int63())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return kerrors.NewCache(p, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return kerrors.NewCache(p, err)
	}
	if err := syncAndClose(f); err != nil {
		os.Remove(tmp)
		return kerrors.NewCache(p, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return kerrors.NewCache(p, err)
	}
	return nil
}

// Stats summarizes cache occupancy across every configured root directory.
type Stats struct {
	TotalFiles        int
	TotalSizeMB        float64
	AvailableSpaceMB   float64
	OldestFileAgeDays  float64
	NewestFileAgeDays  float64
}

func (s *Store) Stats() (Stats, error) {
	var stats Stats
	var oldest, newest time.Time
	now := time.Now()
	for _, root := range s.rootDirs {
		err := walkFiles(root, func(path string, size int64, modTime time.Time) {
			stats.TotalFiles++
			stats.TotalSizeMB += float64(size) / (1024 * 1024)
			if oldest.IsZero() || modTime.Before(oldest) {
				oldest = modTime
			}
			if newest.IsZero() || modTime.After(newest) {
				newest = modTime
			}
		})
		if err != nil {
			return stats, kerrors.NewCache(root, err)
		}
	}
	if !oldest.IsZero() {
		stats.OldestFileAgeDays = now.Sub(oldest).Hours() / 24
	}
	if !newest.IsZero() {
		stats.NewestFileAgeDays = now.Sub(newest).Hours() / 24
	}
	return stats, nil
}

// ClearAll removes every cached file across every root directory, returning
// the count removed and bytes freed. Calling ClearAll twice in a row returns
// (0, 0) the second time.
func (s *Store) ClearAll() (removedFiles int, freedBytes int64, err error) {
	for _, root := range s.rootDirs {
		walkErr := walkFiles(root, func(path string, size int64, _ time.Time) {
			if rmErr := os.Remove(path); rmErr == nil {
				removedFiles++
				freedBytes += size
			}
		})
		if walkErr != nil {
			return removedFiles, freedBytes, kerrors.NewCache(root, walkErr)
		}
	}
	return removedFiles, freedBytes, nil
}

func (s *Store) sweepExpired() {
	if s.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.ttl)
	for _, root := range s.rootDirs {
		_ = walkFiles(root, func(path string, _ int64, modTime time.Time) {
			if modTime.Before(cutoff) {
				_ = os.Remove(path)
			}
		})
	}
}
