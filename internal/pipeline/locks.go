package pipeline

import "sync"

// constituencyLocks serializes all mutations for a given constituency.
// The monotonic severity and no-duplicate-issue invariants only hold
// with a single logical writer per constituency id.
type constituencyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newConstituencyLocks() *constituencyLocks {
	return &constituencyLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the constituency and returns its unlock func. Lock
// entries are never removed; the constituency set is small and stable.
func (l *constituencyLocks) acquire(constituencyID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[constituencyID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[constituencyID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
