package generic_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-engine/generic"
)

func TestKeyedLocker_SerializesSameKey(t *testing.T) {
	// GIVEN: 50 goroutines doing a non-atomic read-modify-write under one key
	// WHEN: All finish
	// THEN: No update is lost

	locks := generic.NewKeyedLocker()
	key := generic.LedgerKey("emp-1", 2025)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(key)
			v := counter
			v++
			counter = v
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedLocker_DistinctKeysDoNotBlock(t *testing.T) {
	locks := generic.NewKeyedLocker()

	unlockA := locks.Lock(generic.LedgerKey("emp-1", 2025))
	defer unlockA()

	done := make(chan struct{})
	go func() {
		locks.Lock(generic.LedgerKey("emp-1", 2026))()
		close(done)
	}()
	<-done
}

func TestLedgerKey(t *testing.T) {
	assert.Equal(t, "emp-1/2025", generic.LedgerKey("emp-1", 2025))
}
