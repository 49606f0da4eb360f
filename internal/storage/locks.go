package storage

import "sync"

// KeyedMutex hands out one mutex per key. Entries are never evicted; keys are group identifiers.
type KeyedMutex struct {
	locks sync.Map
}

// Lock blocks until the mutex for key is held and returns its unlock function.
func (k *KeyedMutex) Lock(key string) (unlock func()) {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
