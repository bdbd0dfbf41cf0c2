package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigestCache(t *testing.T) {
	c := newDigestCache(2)

	assert.True(t, c.reserve("a"))
	assert.True(t, c.reserve("b"))
	assert.False(t, c.reserve("a"), "refreshes a, b becomes least recently used")

	assert.True(t, c.reserve("c"))
	assert.Equal(t, 2, c.size())
	assert.False(t, c.reserve("a"))
	assert.False(t, c.reserve("c"))
	assert.True(t, c.reserve("b"), "b was evicted")
}

func TestDigestCache_Forget(t *testing.T) {
	c := newDigestCache(4)
	c.reserve("a")
	c.reserve("b")

	c.forget("a")
	c.forget("missing")

	assert.Equal(t, 1, c.size())
	assert.True(t, c.reserve("a"))
	assert.False(t, c.reserve("b"))

	c.forget("b")
	c.forget("a")
	assert.Equal(t, 0, c.size())
	assert.True(t, c.reserve("b"))
}

func TestDigestCache_ConcurrentReserve(t *testing.T) {
	c := newDigestCache(8)

	var wins atomic.Int64
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.reserve("same-payload") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
}
