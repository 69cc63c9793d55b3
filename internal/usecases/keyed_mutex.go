package usecases

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v2"
)

// keyedMutex serializes work per key. Entries are reference counted and
// removed once no goroutine holds or waits on them.
type keyedMutex struct {
	entries *xsync.MapOf[string, *keyedEntry]
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: xsync.NewMapOf[*keyedEntry]()}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	entry, _ := k.entries.Compute(key, func(old *keyedEntry, loaded bool) (*keyedEntry, bool) {
		if !loaded {
			old = &keyedEntry{}
		}
		old.refs++
		return old, false
	})
	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.entries.Compute(key, func(old *keyedEntry, loaded bool) (*keyedEntry, bool) {
			if !loaded {
				return old, true
			}
			old.refs--
			return old, old.refs <= 0
		})
	}
}

// Len reports how many keys are currently held or awaited.
func (k *keyedMutex) Len() int {
	return k.entries.Size()
}
