package generic

import (
	"fmt"
	"sync"
)

// KeyedLocker hands out one mutex per key. Ledger writers lock
// LedgerKey(employee, year) so read-recompute-persist never interleaves
// with another write to the same balance. Locks are not reentrant.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyedLocker) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func LedgerKey(employeeID EmployeeID, year int) string {
	return fmt.Sprintf("%s/%d", employeeID, year)
}
