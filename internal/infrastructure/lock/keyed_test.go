package lock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	t.Run("serializes holders of the same key", func(t *testing.T) {
		km := NewKeyedMutex()
		counter := 0

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := km.Lock("lot-1")
				defer unlock()
				counter++
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, counter)
	})

	t.Run("distinct keys do not block each other", func(t *testing.T) {
		km := NewKeyedMutex()
		unlockA := km.Lock("a")

		done := make(chan struct{})
		go func() {
			unlockB := km.Lock("b")
			unlockB()
			close(done)
		}()
		<-done
		unlockA()
	})

	t.Run("entries are released once unused", func(t *testing.T) {
		km := NewKeyedMutex()
		unlock := km.Lock("x")
		unlock()

		km.mu.Lock()
		defer km.mu.Unlock()
		assert.Empty(t, km.entries)
	})
}
