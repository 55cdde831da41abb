package did

import (
	"sync"

	"github.com/pilacorp/go-dpp-verifier/common/model"
)

// Cache maps DIDs to resolved documents. It has a fixed capacity and never
// evicts: once full, further documents are simply not stored until Clear is
// called. It is safe for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	docs     map[string]*model.DIDDocument
}

// NewCache creates a cache holding at most capacity documents. A capacity of
// zero disables caching.
func NewCache(capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}

	return &Cache{
		capacity: capacity,
		docs:     make(map[string]*model.DIDDocument),
	}
}

// Get returns the cached document for did.
func (c *Cache) Get(did string) (*model.DIDDocument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[did]
	return doc, ok
}

// Add stores doc under did if there is room and returns the document callers
// should use: the one already cached for did if another goroutine stored it
// first, doc otherwise.
func (c *Cache) Add(did string, doc *model.DIDDocument) *model.DIDDocument {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.docs[did]; ok {
		return existing
	}
	if len(c.docs) < c.capacity {
		c.docs[did] = doc
	}

	return doc
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.docs)
}

// Capacity returns the maximum number of cached documents.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Clear removes every cached document.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.docs = make(map[string]*model.DIDDocument)
}
