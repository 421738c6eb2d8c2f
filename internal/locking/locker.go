package locking

import "sync"

// PerKeyLocker serializes mutations per claim id within this process. The
// optimistic version column on claim rows is the cross-process backstop.
type PerKeyLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewPerKeyLocker() *PerKeyLocker {
	return &PerKeyLocker{locks: make(map[string]*entry)}
}

func (l *PerKeyLocker) Lock(key string) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()
	e.mu.Lock()
}

func (l *PerKeyLocker) Unlock(key string) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if ok {
		e.refs--
		if e.refs == 0 {
			delete(l.locks, key)
		}
	}
	l.mu.Unlock()
	if ok {
		e.mu.Unlock()
	}
}
