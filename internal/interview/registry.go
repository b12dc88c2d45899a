package interview

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry guards one session. Holding mu serializes transitions of that session
// without blocking others.
type entry struct {
	mu      sync.Mutex
	session *Session
}

// Registry is a bounded table of live sessions. The least recently used
// session is evicted when the table is full; the store keeps its record.
type Registry struct {
	cache *lru.Cache[string, *entry]
}

// NewRegistry creates a registry holding at most size sessions. onEvict, if
// non-nil, is called with the id of every evicted session.
func NewRegistry(size int, onEvict func(id string)) (*Registry, error) {
	if size <= 0 {
		return nil, fmt.Errorf("session cache size must be positive, got %d", size)
	}
	cache, err := lru.NewWithEvict(size, func(id string, _ *entry) {
		if onEvict != nil {
			onEvict(id)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Registry{cache: cache}, nil
}

func (r *Registry) add(s *Session) *entry {
	e := &entry{session: s}
	r.cache.Add(s.ID, e)
	return e
}

func (r *Registry) get(id string) (*entry, bool) {
	return r.cache.Get(id)
}

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	return r.cache.Len()
}
