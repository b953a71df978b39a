package interview

import "sync"

// sessionLocks hands out one mutex per session token so answer submission is
// serialized per session while staying fully concurrent across sessions.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) get(token string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, exists := l.locks[token]
	if !exists {
		lock = &sync.Mutex{}
		l.locks[token] = lock
	}
	return lock
}

// release drops the lock entry for a finished session.
func (l *sessionLocks) release(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, token)
}
