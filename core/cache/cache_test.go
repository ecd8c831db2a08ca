package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set("manufacturer:apple", 7, time.Minute)
	id, ok := m.Get("manufacturer:apple")
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)

	now = now.Add(2 * time.Minute)
	_, ok = m.Get("manufacturer:apple")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_DeleteAndClear(t *testing.T) {
	m := NewMemory(0)
	m.Set("a", 1, 0)
	m.Set("b", 2, 0)

	m.Delete("a")
	_, ok := m.Get("a")
	assert.False(t, ok)

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestMemory_LoadCachesHitsOnly(t *testing.T) {
	m := NewMemory(time.Hour)
	calls := 0

	miss := func() (uint, bool, error) {
		calls++
		return 0, false, nil
	}
	_, found, err := m.Load("status:ready", miss)
	require.NoError(t, err)
	assert.False(t, found)
	_, _, _ = m.Load("status:ready", miss)
	assert.Equal(t, 2, calls, "misses must not be cached")

	hit := func() (uint, bool, error) {
		calls++
		return 3, true, nil
	}
	id, found, err := m.Load("status:ready", hit)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint(3), id)
	_, _, _ = m.Load("status:ready", hit)
	assert.Equal(t, 3, calls)
}

func TestMemory_LoadError(t *testing.T) {
	m := NewMemory(time.Hour)
	_, _, err := m.Load("location:hq", func() (uint, bool, error) {
		return 0, false, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.Equal(t, 0, m.Len())
}

func TestMemory_LoadSingleFlight(t *testing.T) {
	m := NewMemory(time.Hour)
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _, _ := m.Load("status:default", func() (uint, bool, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 5, true, nil
			})
			assert.Equal(t, uint(5), id)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestMemory_LoadWaiterRetriesLeaderFailure(t *testing.T) {
	m := NewMemory(time.Hour)
	release := make(chan struct{})
	leaderErr := make(chan error, 1)

	go func() {
		_, _, err := m.Load("location:hq", func() (uint, bool, error) {
			<-release
			return 0, false, errors.New("context deadline exceeded")
		})
		leaderErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	var id uint
	var found bool
	var err error
	go func() {
		defer close(done)
		id, found, err = m.Load("location:hq", func() (uint, bool, error) {
			return 4, true, nil
		})
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-done

	assert.EqualError(t, <-leaderErr, "context deadline exceeded")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint(4), id)

	cached, ok := m.Get("location:hq")
	assert.True(t, ok)
	assert.Equal(t, uint(4), cached)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "Dell Inc.", Canonical("  Dell \t Inc. "))
	assert.Equal(t, "Apple", Canonical("Ａｐｐｌｅ"))
	assert.Equal(t, Normalize("DELL  inc."), Normalize(Canonical("Dell Inc.")))
}

type plainCache struct{ m map[string]uint }

func (p *plainCache) Get(k string) (uint, bool)             { id, ok := p.m[k]; return id, ok }
func (p *plainCache) Set(k string, id uint, _ time.Duration) { p.m[k] = id }
func (p *plainCache) Delete(k string)                       { delete(p.m, k) }
func (p *plainCache) Clear()                                { p.m = map[string]uint{} }

func TestLoad_GenericCache(t *testing.T) {
	c := &plainCache{m: map[string]uint{}}
	id, found, err := Load(c, "k", time.Hour, func() (uint, bool, error) { return 9, true, nil })
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint(9), id)
	assert.Equal(t, uint(9), c.m["k"])
}

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"case", "Apple", "APPLE", true},
		{"whitespace", "  Dell   Inc. ", "dell inc.", true},
		{"width", "ＨＰ", "hp", true},
		{"different", "Lenovo", "Dell", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, kb := Key("manufacturer", tt.a), Key("manufacturer", tt.b)
			assert.Equal(t, tt.equal, ka == kb)
		})
	}

	assert.NotEqual(t, Key("model", "MacBook", "1"), Key("model", "MacBook", "2"))
	assert.Equal(t, "category:intune:computer", Key("category", "intune", "computer"))
}
