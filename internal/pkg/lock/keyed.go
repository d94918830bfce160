package lock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed serializes critical sections per key. Entries are dropped once the
// last holder releases, so the map stays bounded by in-flight keys.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{
		entries: make(map[string]*entry),
	}
}

// Lock acquires the mutex for key and returns the matching unlock function.
func (k *Keyed) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
