// Package cache provides a disk-backed cache for fetched HTML pages.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Prefixes group cache entries by the kind of page they hold. Song pages
// are cached indefinitely; search and index pages use dated keys so they
// refresh daily.
const (
	PrefixPage   = "get"
	PrefixSearch = "search"
	PrefixIndex  = "index"
)

var datedPrefixes = []string{PrefixSearch, PrefixIndex}

// PageCache stores HTML pages as files under a cache directory.
type PageCache struct {
	dir string
	mu  sync.Mutex
}

// New creates a page cache rooted at dir, creating it if needed.
func New(dir string) (*PageCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &PageCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (pc *PageCache) Dir() string {
	return pc.dir
}

func (pc *PageCache) path(prefix, key string) string {
	return filepath.Join(pc.dir, prefix+"__"+key+".html")
}

// Get returns the cached page for the given prefix and key, if present.
func (pc *PageCache) Get(prefix, key string) (string, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	data, err := os.ReadFile(pc.path(prefix, key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Put stores a page under the given prefix and key.
func (pc *PageCache) Put(prefix, key, html string) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if err := os.WriteFile(pc.path(prefix, key), []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Key returns a stable cache key for a page at host/endpoint. Query
// parameters, when present, are folded into a hash so keys stay short.
func Key(host, endpoint string, params url.Values) string {
	parts := []string{host, strings.ReplaceAll(endpoint, "/", "_")}
	if len(params) > 0 {
		sum := sha256.Sum256([]byte(params.Encode()))
		parts = append(parts, hex.EncodeToString(sum[:]))
	}
	return strings.Join(parts, "__")
}

// DatedKey returns a cache key that embeds the current date, so entries
// expire at the day boundary.
func DatedKey(host, endpoint string, now time.Time) string {
	return fmt.Sprintf("%s__%s__%s", host, now.Format("2006-01-02"), url.QueryEscape(endpoint))
}

var datePat = regexp.MustCompile(`__(\d{4}-\d{2}-\d{2})__`)

// PurgeDated removes search and index entries whose embedded date is not
// today's, and returns how many entries were removed.
func (pc *PageCache) PurgeDated(now time.Time) (int, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	entries, err := os.ReadDir(pc.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	today := now.Format("2006-01-02")
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		dated := false
		for _, prefix := range datedPrefixes {
			if strings.HasPrefix(name, prefix+"__") {
				dated = true
				break
			}
		}
		if !dated {
			continue
		}
		m := datePat.FindStringSubmatch(name)
		if m == nil || m[1] == today {
			continue
		}
		if err := os.Remove(filepath.Join(pc.dir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove cache entry %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
