package lib

import "sync"

// KeyedLocks is a set of non-blocking locks keyed by string, used to keep one
// operation per key in flight.
type KeyedLocks struct {
	mutex sync.Mutex
	held  map[string]struct{}
}

func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{held: make(map[string]struct{})}
}

// TryLock takes the lock for key. It returns a release func and true, or
// false when the key is already held. The release func is idempotent.
func (l *KeyedLocks) TryLock(key string) (func(), bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, false
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mutex.Lock()
			delete(l.held, key)
			l.mutex.Unlock()
		})
	}, true
}

// Held reports whether key is currently locked.
func (l *KeyedLocks) Held(key string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	_, busy := l.held[key]
	return busy
}
