package services

import (
	"sync"
)

// phoneLock serializes turns per phone. Turns for the same phone run
// in arrival order; different phones proceed in parallel. Entries are
// reference-counted and dropped as soon as the last holder releases.
type phoneLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newPhoneLock() *phoneLock {
	return &phoneLock{
		locks: make(map[string]*lockEntry),
	}
}

// Acquire blocks until the phone's lock is held and returns the
// release function.
func (p *phoneLock) Acquire(phone string) func() {
	p.mu.Lock()
	entry, ok := p.locks[phone]
	if !ok {
		entry = &lockEntry{}
		p.locks[phone] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		p.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(p.locks, phone)
		}
		p.mu.Unlock()
	}
}
