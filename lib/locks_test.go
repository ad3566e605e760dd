package lib

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocks(t *testing.T) {
	locks := NewKeyedLocks()

	release, ok := locks.TryLock("alice")
	require.True(t, ok)
	assert.True(t, locks.Held("alice"))

	_, ok = locks.TryLock("alice")
	assert.False(t, ok, "second lock for the same key must fail")

	releaseBob, ok := locks.TryLock("bob")
	require.True(t, ok, "other keys are independent")
	releaseBob()

	release()
	release()
	assert.False(t, locks.Held("alice"))

	_, ok = locks.TryLock("alice")
	assert.True(t, ok)
}

func TestKeyedLocksConcurrent(t *testing.T) {
	locks := NewKeyedLocks()
	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := locks.TryLock("same"); ok {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}
