// Package cache provides an LRU cache for per-procedure analysis results
// with msgpack disk persistence. Keys are content hashes, so a cached
// result is valid for as long as the procedure text and analysis options
// it was computed from stay unchanged.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/fortdoc/fortflow/pkg/flow"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Entry is one cached analysis result with access metadata.
type Entry struct {
	Key        string      `msgpack:"key"`
	Result     flow.Result `msgpack:"result"`
	AccessedAt time.Time   `msgpack:"accessed_at"`
	CreatedAt  time.Time   `msgpack:"created_at"`
}

// Key derives the cache key for a procedure body and the options it will
// be analyzed with. Any change to the body, the signature, or the options
// produces a different key.
func Key(proc flow.Procedure, opts flow.Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s/%s/%v/%d/%d\n", proc.Kind, proc.Name, proc.Args, opts.Budget, opts.ExcerptWidth)
	for _, line := range proc.Lines {
		h.Write([]byte(line.Raw))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Options configures the result cache.
type Options struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int

	// OnEvict is called when an entry is evicted.
	OnEvict func(key string, res flow.Result)
}

// ResultCache is an in-memory LRU cache of analysis results.
type ResultCache struct {
	mu      sync.RWMutex
	items   map[string]*listItem
	lru     *list
	maxSize int
	onEvict func(key string, res flow.Result)

	hits   int64
	misses int64
}

// listItem is an item in the doubly-linked list.
type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

// list is a doubly-linked list with the most recently used item at the
// front.
type list struct {
	head *listItem
	tail *listItem
	len  int
}

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	if item.prev != nil {
		item.prev.next = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	}
	if item == l.tail {
		l.tail = item.prev
	}
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
}

func (l *list) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list) removeBack() *listItem {
	if l.tail == nil {
		return nil
	}
	item := l.tail
	l.tail = item.prev
	if l.tail != nil {
		l.tail.next = nil
	} else {
		l.head = nil
	}
	l.len--
	return item
}

// New creates a result cache with the given options.
func New(opts Options) *ResultCache {
	return &ResultCache{
		items:   make(map[string]*listItem),
		lru:     &list{},
		maxSize: opts.MaxSize,
		onEvict: opts.OnEvict,
	}
}

// Get retrieves a result by key. A loaded graph has its internal lookup
// state restored before it is returned.
func (c *ResultCache) Get(key string) (flow.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		c.misses++
		return flow.Result{}, false
	}
	c.hits++
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Result, true
}

// Set stores a result. If the cache is over capacity, the least recently
// used entries are evicted.
func (c *ResultCache) Set(key string, res flow.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		item.Result = res
		item.AccessedAt = time.Now()
		c.lru.moveToFront(item)
		return
	}

	item := &listItem{
		Entry: Entry{
			Key:        key,
			Result:     res,
			AccessedAt: time.Now(),
			CreatedAt:  time.Now(),
		},
	}
	c.items[key] = item
	c.lru.pushFront(item)

	for c.maxSize > 0 && c.lru.len > c.maxSize {
		evicted := c.lru.removeBack()
		if evicted == nil {
			break
		}
		delete(c.items, evicted.Key)
		if c.onEvict != nil {
			c.onEvict(evicted.Key, evicted.Result)
		}
	}
}

// Delete removes a key from the cache.
func (c *ResultCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return
	}
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		c.lru.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		c.lru.tail = item.prev
	}
	c.lru.len--
	delete(c.items, key)
	if c.onEvict != nil {
		c.onEvict(key, item.Result)
	}
}

// Clear removes all entries.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*listItem)
	c.lru = &list{}
}

// Len returns the number of entries in the cache.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats reports hit and miss counts since the cache was created.
type Stats struct {
	Length int   `json:"length"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats returns current cache statistics.
func (c *ResultCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Length: len(c.items), Hits: c.hits, Misses: c.misses}
}

// Save persists the cache to a writer using msgpack, least recently used
// entries first so Load restores the same recency order.
func (c *ResultCache) Save(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, c.lru.len)
	for item := c.lru.tail; item != nil; item = item.prev {
		entries = append(entries, item.Entry)
	}
	return msgpack.NewEncoder(w).Encode(entries)
}

// Load restores the cache from a reader. Existing entries are replaced.
// Restored graphs get their lookup state rebuilt.
func (c *ResultCache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = &list{}
	for i := range entries {
		entry := entries[i]
		if entry.Result.Graph != nil {
			entry.Result.Graph.Reindex()
		}
		item := &listItem{Entry: entry}
		c.items[entry.Key] = item
		c.lru.pushFront(item)
	}
	return nil
}

// PersistToFile saves the cache to a file.
func PersistToFile(c *ResultCache, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()
	return c.Save(f)
}

// LoadFromFile loads the cache from a file. A missing file is not an
// error; the cache simply starts empty.
func LoadFromFile(c *ResultCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}

// GetOrCompute returns the cached result for the procedure, computing and
// storing it on a miss. Unavailable results are not cached, so a later run
// with a larger budget gets a fresh attempt.
func (c *ResultCache) GetOrCompute(proc flow.Procedure, opts flow.Options) flow.Result {
	key := Key(proc, opts)
	if res, ok := c.Get(key); ok {
		return res
	}
	res := flow.Analyze(proc, opts)
	if !res.Unavailable {
		c.Set(key, res)
	}
	return res
}
