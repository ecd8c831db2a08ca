package cache

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultTTL is how long a resolved reference id stays cached.
const DefaultTTL = time.Hour

// Cache maps normalized natural keys to reference ids.
// It is an accelerator only: a miss always falls through to the store.
type Cache interface {
	Get(key string) (uint, bool)
	Set(key string, id uint, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Loader fetches an id from the source of truth. found=false means no row exists.
type Loader func() (id uint, found bool, err error)

type entry struct {
	id      uint
	expires time.Time
}

// Memory is an in-process Cache with per-entry expiry.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	sf      singleflight.Group
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an empty cache. ttl<=0 uses DefaultTTL for Load.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live entry.
func (m *Memory) Get(key string) (uint, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return 0, false
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.Delete(key)
		return 0, false
	}
	return e.id, true
}

// Set stores id under key. ttl<=0 keeps the entry until cleared.
func (m *Memory) Set(key string, id uint, ttl time.Duration) {
	e := entry{id: id}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// Delete removes a key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Load returns the cached id or calls fn once per key across concurrent callers.
// Only hits are cached; a miss is returned as found=false and retried next time.
func (m *Memory) Load(key string, fn Loader) (uint, bool, error) {
	if id, ok := m.Get(key); ok {
		return id, true, nil
	}

	type result struct {
		id    uint
		found bool
	}

	led := false
	v, err, _ := m.sf.Do(key, func() (any, error) {
		led = true
		// Double-check after acquiring the flight.
		if id, ok := m.Get(key); ok {
			return result{id: id, found: true}, nil
		}
		id, found, err := fn()
		if err != nil {
			return nil, err
		}
		if found {
			m.Set(key, id, m.ttl)
		}
		return result{id: id, found: found}, nil
	})
	if err != nil && !led {
		// The leader's failure may be its own deadline; load on our own call.
		id, found, err := fn()
		if err != nil {
			return 0, false, err
		}
		if found {
			m.Set(key, id, m.ttl)
		}
		return id, found, nil
	}
	if err != nil {
		return 0, false, err
	}

	r := v.(result)
	return r.id, r.found, nil
}

// Load uses c's single-flight loader when available and a plain
// get-then-fetch otherwise.
func Load(c Cache, key string, ttl time.Duration, fn Loader) (uint, bool, error) {
	if mem, ok := c.(*Memory); ok {
		return mem.Load(key, fn)
	}
	if id, ok := c.Get(key); ok {
		return id, true, nil
	}
	id, found, err := fn()
	if err != nil || !found {
		return 0, false, err
	}
	c.Set(key, id, ttl)
	return id, true, nil
}

var folder = cases.Fold()

// Key builds a cache key from a kind and natural-key parts.
// Parts are NFKC normalized, case folded and whitespace collapsed, so
// "Apple  Inc" and "apple inc" share an entry.
func Key(kind string, parts ...string) string {
	var b strings.Builder
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(Normalize(p))
	}
	return b.String()
}

// Normalize canonicalizes a natural key component.
func Normalize(s string) string {
	return folder.String(Canonical(s))
}

// Canonical is Normalize without the case fold. Names are stored in this
// form so a cold store lookup agrees with the cache key.
func Canonical(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
