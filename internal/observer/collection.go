package observer

import (
	"sync"

	"github.com/aretw0/tether/pkg/domain"
)

// Collection is an ordered, concurrency-safe list of entities usable as
// a subscription sink.
type Collection struct {
	mu    sync.Mutex
	items []domain.Entity
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Append adds an entity at the end.
func (c *Collection) Append(e domain.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, e)
}

// RemoveFirst deletes the first occurrence of e, if any.
func (c *Collection) RemoveFirst(e domain.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item == e {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Items returns a snapshot of the collection in order.
func (c *Collection) Items() []domain.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Entity, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the current number of entities.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
