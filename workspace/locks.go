package workspace

import (
	"slices"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// lockTable hands out one mutex per physical path. Entries are never
// evicted; the table grows with the number of distinct paths written.
type lockTable struct {
	mus *xsync.Map[string, *sync.Mutex]
}

func newLockTable() *lockTable {
	return &lockTable{mus: xsync.NewMap[string, *sync.Mutex]()}
}

// lock acquires the mutexes of all paths in sorted order and returns the
// function releasing them.
func (t *lockTable) lock(paths ...string) (unlock func()) {
	keys := slices.Clone(paths)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]*sync.Mutex, 0, len(keys))
	for _, k := range keys {
		mu, ok := t.mus.Load(k)
		if !ok {
			mu, _ = t.mus.LoadOrStore(k, &sync.Mutex{})
		}
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
