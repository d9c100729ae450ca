package service

import "sync"

// binLocker hands out one mutex per bin id. Entries are dropped when no goroutine holds or waits on them.
type binLocker struct {
	mu    sync.Mutex
	locks map[int64]*binLock
}

type binLock struct {
	sync.Mutex
	refs int
}

func newBinLocker() *binLocker {
	return &binLocker{locks: make(map[int64]*binLock)}
}

// Lock blocks until binID is free and returns the matching unlock.
func (l *binLocker) Lock(binID int64) (unlock func()) {
	l.mu.Lock()
	bl, ok := l.locks[binID]
	if !ok {
		bl = &binLock{}
		l.locks[binID] = bl
	}
	bl.refs++
	l.mu.Unlock()

	bl.Lock()
	return func() {
		bl.Unlock()
		l.mu.Lock()
		bl.refs--
		if bl.refs == 0 {
			delete(l.locks, binID)
		}
		l.mu.Unlock()
	}
}

func (l *binLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
