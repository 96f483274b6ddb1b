// Package cache stores tracker snapshots on disk so repeated runs over the
// same project reuse one ticket list.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// ErrCorrupt is returned when an entry's payload no longer matches its digest.
var ErrCorrupt = errors.New("cache entry corrupt")

// Cache is a directory of JSON entries named by the BLAKE3 digest of their key.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// entry is the on-disk envelope of a cached value.
type entry struct {
	Key     string          `json:"key"`
	Digest  string          `json:"digest"`
	Created time.Time       `json:"created"`
	Data    json.RawMessage `json:"data"`
}

// New creates a cache rooted at dir. A zero ttl never expires entries.
// A disabled cache misses every lookup and discards every write.
func New(dir string, ttl time.Duration, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{}, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, enabled: true, now: time.Now}, nil
}

// Enabled reports whether the cache persists anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashBytes computes a BLAKE3 hash of data as a hex string.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Load decodes the value stored under key into v. It reports false on a
// miss or an expired entry; a corrupt entry is removed and reported as
// ErrCorrupt.
func (c *Cache) Load(key string, v any) (bool, error) {
	if !c.enabled {
		return false, nil
	}
	path := c.keyPath(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache entry: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Key != key || HashBytes(e.Data) != e.Digest {
		_ = os.Remove(path)
		return false, fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	if c.ttl > 0 && c.now().Sub(e.Created) > c.ttl {
		_ = os.Remove(path)
		return false, nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return true, nil
}

// Store encodes v under key.
func (c *Cache) Store(key string, v any) error {
	if !c.enabled {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	raw, err := json.Marshal(entry{
		Key:     key,
		Digest:  HashBytes(data),
		Created: c.now().UTC(),
		Data:    data,
	})
	if err != nil {
		return err
	}

	// Write then rename so readers never observe a partial entry.
	tmp, err := os.CreateTemp(c.dir, "entry-*")
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	return os.Rename(tmp.Name(), c.keyPath(key))
}

// Invalidate removes the entry for key, if any.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	entries, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, p := range entries {
		if err := os.Remove(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, HashBytes([]byte(key))+".json")
}

// Stats describes the cache directory.
type Stats struct {
	Entries   int       `json:"entries"`
	TotalSize int64     `json:"total_size"`
	Oldest    time.Time `json:"oldest"`
	Newest    time.Time `json:"newest"`
}

// GetStats summarizes the stored entries.
func (c *Cache) GetStats() (*Stats, error) {
	stats := &Stats{}
	if !c.enabled {
		return stats, nil
	}
	paths, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		mod := info.ModTime()
		if stats.Oldest.IsZero() || mod.Before(stats.Oldest) {
			stats.Oldest = mod
		}
		if mod.After(stats.Newest) {
			stats.Newest = mod
		}
	}
	return stats, nil
}
