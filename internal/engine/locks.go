package engine

import "sync"

// profileLocks serializes operations per profile ID. Backups and restores
// for the same profile share archive paths and the target folder, so they
// must never interleave; different profiles touch disjoint subtrees and
// proceed in parallel without coordination.
type profileLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProfileLocks() *profileLocks {
	return &profileLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// acquire locks the mutex for id and returns its release func.
func (p *profileLocks) acquire(id string) func() {
	p.mu.Lock()
	m, ok := p.locks[id]
	if !ok {
		m = &sync.Mutex{}
		p.locks[id] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
