package concurrency

import "sync"

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// SessionLocks serializes work per session ID. Entries are dropped once no
// caller holds or waits on them.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{
		locks: make(map[string]*sessionLock),
	}
}

// Lock blocks until sessionID is free and returns the matching unlock func.
func (m *SessionLocks) Lock(sessionID string) func() {
	m.mu.Lock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		m.locks[sessionID] = lock
	}
	lock.refs++
	m.mu.Unlock()

	lock.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()

			m.mu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(m.locks, sessionID)
			}
			m.mu.Unlock()
		})
	}
}

// Len reports how many sessions currently have a holder or waiter.
func (m *SessionLocks) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
