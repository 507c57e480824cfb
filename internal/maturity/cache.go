package maturity

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/theplant/speckit-extension/pkg/types"
)

// DefaultCacheSize bounds the number of cached records.
const DefaultCacheSize = 256

// Format names the on-disk representation a record was read from.
type Format string

// Record formats.
const (
	FormatJSON   Format = "json"
	FormatLegacy Format = "legacy"
	FormatNone   Format = "none"
)

// Snapshot is a parsed record and where it came from. Record is shared with
// the cache and must not be modified.
type Snapshot struct {
	Path   string
	Format Format
	Record *types.MaturityRecord
}

// Cache holds one Snapshot per canonical maturity path and counts every
// change to its contents.
type Cache struct {
	entries *lru.Cache[string, Snapshot]
	mods    atomic.Uint64
}

// NewCache creates a cache holding at most size records. A non-positive
// size selects DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, Snapshot](size)
	if err != nil {
		panic(err) // unreachable: size is positive
	}
	return &Cache{entries: entries}
}

// Get returns the cached snapshot for key.
func (c *Cache) Get(key string) (Snapshot, bool) {
	return c.entries.Get(key)
}

// Put stores snap under key.
func (c *Cache) Put(key string, snap Snapshot) {
	c.entries.Add(key, snap)
	c.mods.Add(1)
}

// Invalidate drops the entry for key.
func (c *Cache) Invalidate(key string) {
	if c.entries.Remove(key) {
		c.mods.Add(1)
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	if c.entries.Len() > 0 {
		c.entries.Purge()
		c.mods.Add(1)
	}
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Mods returns the number of changes made to the cache so far.
func (c *Cache) Mods() uint64 {
	return c.mods.Load()
}
