package utils

import "sync"

// KeyedMutex hands out one mutex per key. The zero value is ready to use.
//
// Entries are never removed; the key space (document paths, agent keys) is
// bounded by what a process works on.
type KeyedMutex struct {
	locks sync.Map
}

// Lock acquires the mutex for key and returns the function that releases it.
//
//	unlock := locks.Lock(path)
//	defer unlock()
func (k *KeyedMutex) Lock(key string) func() {
	value, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mutex := value.(*sync.Mutex)
	mutex.Lock()
	return mutex.Unlock
}
