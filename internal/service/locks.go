package service

import (
	"sort"
	"sync"
)

// WriteGate serializes writers. Ordinary writes hold the shared side of a global
// lock plus one mutex per term (or per key); operations that touch several terms
// at once take the exclusive side.
type WriteGate struct {
	global sync.RWMutex

	mu    sync.Mutex
	keyed map[string]*sync.Mutex
}

// NewWriteGate returns an unlocked gate.
func NewWriteGate() *WriteGate {
	return &WriteGate{keyed: make(map[string]*sync.Mutex)}
}

// LockTerms serializes writers of the given terms. Keys are locked in sorted order.
func (g *WriteGate) LockTerms(termIDs ...string) func() {
	keys := make([]string, 0, len(termIDs))
	for _, id := range termIDs {
		keys = append(keys, "term:"+id)
	}
	return g.lockKeys(keys)
}

// LockKey serializes writers sharing an arbitrary key.
func (g *WriteGate) LockKey(key string) func() {
	return g.lockKeys([]string{key})
}

// LockAll excludes every other writer.
func (g *WriteGate) LockAll() func() {
	g.global.Lock()
	return g.global.Unlock
}

func (g *WriteGate) lockKeys(keys []string) func() {
	sort.Strings(keys)
	keys = dedupe(keys)

	g.global.RLock()
	held := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		m := g.mutex(key)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
		g.global.RUnlock()
	}
}

func (g *WriteGate) mutex(key string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.keyed[key]
	if !ok {
		m = &sync.Mutex{}
		g.keyed[key] = m
	}
	return m
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		out = append(out, key)
	}
	return out
}
