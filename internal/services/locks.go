package services

import "sync"

// userLocks hands out one RWMutex per user id. Entries are reference
// counted and dropped once no goroutine holds or waits on them, so the
// map stays bounded by the number of users with requests in flight.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	sync.RWMutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

func (l *userLocks) acquire(userID int64) *userLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	return ul
}

func (l *userLocks) release(userID int64, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

// Lock takes the exclusive lock for userID and returns its unlock func.
func (l *userLocks) Lock(userID int64) func() {
	ul := l.acquire(userID)
	ul.Lock()
	return func() {
		ul.Unlock()
		l.release(userID, ul)
	}
}

// RLock takes the shared lock for userID and returns its unlock func.
func (l *userLocks) RLock(userID int64) func() {
	ul := l.acquire(userID)
	ul.RLock()
	return func() {
		ul.RUnlock()
		l.release(userID, ul)
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
