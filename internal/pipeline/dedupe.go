package pipeline

import "sync"

// digestCache is a small thread-safe LRU set of recently seen payload digests.
type digestCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key  string
	prev *entry
	next *entry
}

func newDigestCache(maxEntries int) *digestCache {
	return &digestCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// reserve records key and reports whether it was new. A key already present
// is refreshed and reserve returns false. Check and insert happen under one
// lock, so of two concurrent callers with the same key only one wins.
func (c *digestCache) reserve(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.moveToFront(e)
		return false
	}

	e := &entry{key: key}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	return true
}

// forget drops key so the same payload is accepted again.
func (c *digestCache) forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	c.remove(e)
}

func (c *digestCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *digestCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *digestCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *digestCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *digestCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
