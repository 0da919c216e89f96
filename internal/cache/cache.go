// Package cache holds fetched read results keyed by entity, owner and filter.
//
// Entries are invalidated, never locked: an invalidation marks entries stale
// and notifies subscribers, and the next read re-fetches. A fetch that was
// already in flight when an invalidation happened still returns its result to
// its caller, but the result is stored as stale so it is not served again.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Key identifies one cached read.
type Key struct {
	Entity  string
	OwnerID string
	Filter  string
}

func (k Key) String() string {
	s := k.Entity + "/" + k.OwnerID
	if k.Filter != "" {
		s += "?" + k.Filter
	}
	return s
}

type entry struct {
	value     any
	valid     bool
	fetchedAt time.Time
}

// State describes a key as seen by Cache.State.
type State struct {
	Cached    bool
	Valid     bool
	FetchedAt time.Time
}

// Cache is an in-memory key-value store of read results.
type Cache struct {
	mu          sync.Mutex
	entries     map[Key]*entry
	generations map[string]uint64 // per entity, bumped on invalidation
	subscribers map[string]map[int]func(Key)
	nextSubID   int
	now         func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries:     make(map[Key]*entry),
		generations: make(map[string]uint64),
		subscribers: make(map[string]map[int]func(Key)),
		now:         time.Now,
	}
}

// Get returns the cached value for key if it is present and valid.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.valid {
		return nil, false
	}
	return e.value, true
}

// Put stores a valid value for key.
func (c *Cache) Put(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: value, valid: true, fetchedAt: c.now()}
}

// generation returns the invalidation counter of an entity.
func (c *Cache) generation(entity string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[entity]
}

// putIfCurrent stores value, marking it stale if the entity was invalidated
// after gen was observed.
func (c *Cache) putIfCurrent(key Key, value any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{
		value:     value,
		valid:     c.generations[key.Entity] == gen,
		fetchedAt: c.now(),
	}
}

// State reports whether key has an entry and whether that entry is valid.
func (c *Cache) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return State{}
	}
	return State{Cached: true, Valid: e.valid, FetchedAt: e.fetchedAt}
}

// Keys returns every key currently held for entity, valid or not.
func (c *Cache) Keys(entity string) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []Key
	for k := range c.entries {
		if k.Entity == entity {
			keys = append(keys, k)
		}
	}
	return keys
}

// Invalidate marks every entry of the given entities stale and notifies
// their subscribers once per invalidated key. It returns the keys that were
// valid before the call.
func (c *Cache) Invalidate(entities ...string) []Key {
	c.mu.Lock()
	var invalidated []Key
	var notify []func()
	for _, entity := range entities {
		c.generations[entity]++
		for k, e := range c.entries {
			if k.Entity != entity || !e.valid {
				continue
			}
			e.valid = false
			invalidated = append(invalidated, k)
			for _, fn := range c.subscribers[entity] {
				k, fn := k, fn
				notify = append(notify, func() { fn(k) })
			}
		}
	}
	c.mu.Unlock()

	// Callbacks run outside the lock so they may read from the cache.
	for _, n := range notify {
		n()
	}
	return invalidated
}

// Subscribe registers fn to be called with each key of entity that gets
// invalidated. The returned func removes the subscription.
func (c *Cache) Subscribe(entity string, fn func(Key)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	if c.subscribers[entity] == nil {
		c.subscribers[entity] = make(map[int]func(Key))
	}
	c.subscribers[entity][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers[entity], id)
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
}

// Fetch returns the valid cached value for key, or calls fetch and caches its
// result. Errors are never cached. A nil cache always fetches.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fetch(ctx)
	}

	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	gen := c.generation(key.Entity)
	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.putIfCurrent(key, value, gen)
	return value, nil
}

// FetchSlice is Fetch for list reads. Every caller gets its own copy of the
// slice, so appending to or editing the result never reaches the cache.
func FetchSlice[E any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) ([]E, error)) ([]E, error) {
	s, err := Fetch(ctx, c, key, fetch)
	if err != nil || c == nil {
		return s, err
	}
	return slices.Clone(s), nil
}
