package sync

import (
	"fmt"
	base "sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripedLock_HappyPath(t *testing.T) {
	workerCount := 64
	operationCount := 10000

	l := NewStripedLock(4)

	var workerWg base.WaitGroup
	startChan := make(chan struct{})
	data := make([]int, workerCount)

	for i := 0; i < workerCount; i++ {
		workerWg.Add(1)

		go func(workerID int) {
			defer workerWg.Done()

			var opWg base.WaitGroup
			key := []byte(fmt.Sprintf("worker%d", workerID))
			for j := 0; j < operationCount; j++ {
				opWg.Add(1)

				go func() {
					defer opWg.Done()

					<-startChan

					mu := l.Get(key)
					mu.Lock()
					data[workerID]++
					mu.Unlock()
				}()
			}
			opWg.Wait()
		}(i)
	}

	close(startChan)
	workerWg.Wait()

	for _, val := range data {
		assert.EqualValues(t, operationCount, val)
	}
}

func TestStripedLock_LockAll(t *testing.T) {
	l := NewStripedLock(8)

	keys := make([][]byte, 16)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("account%d", i))
	}

	var counter int
	var wg base.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)

		// Each worker locks an overlapping window of keys in a different
		// order than its neighbours.
		go func(offset int) {
			defer wg.Done()

			window := [][]byte{
				keys[(offset+2)%len(keys)],
				keys[offset%len(keys)],
				keys[(offset+1)%len(keys)],
				keys[offset%len(keys)],
			}

			unlock := l.LockAll(append(window, keys[0])...)
			counter++
			unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 200, counter)

	// All stripes are released.
	unlock := l.LockAll(keys...)
	unlock()
}
