// Package observer turns a raw TagSource into normalized add/remove
// callback streams for a single tag, with optional replay of entities
// that already match at subscription time and optional ancestry scoping.
package observer

import (
	"sync"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// Config describes one subscription.
type Config struct {
	// OnAdd receives entities that begin matching the tag. Required for
	// replay; optional otherwise.
	OnAdd func(domain.Entity)

	// OnRemove receives entities that stop matching the tag.
	OnRemove func(domain.Entity)

	// Within, when non-nil, restricts the subscription to descendants of
	// that entity.
	Within domain.Entity

	// Replay dispatches OnAdd for every entity already matching the tag
	// at subscription time. Replay is asynchronous: it runs on a
	// separate goroutine so that subscribing never re-enters the handler
	// synchronously.
	Replay bool
}

// Subscription is a live attachment to a tag's event streams.
type Subscription struct {
	mu      sync.Mutex
	closed  bool
	skip    map[domain.Entity]struct{}
	cancels []ports.UnsubscribeFunc
}

// Subscribe attaches the configured handlers to the source's add and
// remove streams for tag.
//
// Ordering: for a single entity the source's membership order is
// preserved (no add after its own remove). Replayed entities are
// delivered in the source's listing order, each isolated so that a
// panicking handler for one entity does not prevent dispatch to the
// rest; a remove observed between the snapshot and a replayed entity's
// dispatch suppresses that entity's stale add.
func Subscribe(src ports.TagSource, tag domain.Tag, cfg Config) *Subscription {
	sub := &Subscription{}
	replay := cfg.Replay && cfg.OnAdd != nil
	if replay {
		sub.skip = make(map[domain.Entity]struct{})
	}

	// The remove stream attaches before the replay snapshot is taken, so
	// removes that land before a pending replay dispatch are seen and
	// the stale add is dropped instead of delivered out of order.
	if cfg.OnRemove != nil || replay {
		sub.cancels = append(sub.cancels, src.OnTagRemoved(tag, cfg.Within, func(e domain.Entity) {
			sub.markRemoved(e)
			if cfg.OnRemove != nil {
				sub.dispatch(cfg.OnRemove, e)
			}
		}))
	}

	if replay {
		snapshot := src.Tagged(tag, cfg.Within)
		go func() {
			for _, e := range snapshot {
				if sub.removedSinceSnapshot(e) {
					continue
				}
				sub.dispatch(cfg.OnAdd, e)
			}
			sub.endReplay()
		}()
	}

	if cfg.OnAdd != nil {
		sub.cancels = append(sub.cancels, src.OnTagAdded(tag, cfg.Within, func(e domain.Entity) {
			sub.dispatch(cfg.OnAdd, e)
		}))
	}

	return sub
}

// SubscribeIntoCollection subscribes with c acting as the sink: adds
// append the entity, removes delete its first occurrence. The
// collection is seeded by replay, which makes it a "collect currently
// matching entities" primitive without a custom handler.
func SubscribeIntoCollection(src ports.TagSource, tag domain.Tag, within domain.Entity, c *Collection) *Subscription {
	return Subscribe(src, tag, Config{
		OnAdd:    c.Append,
		OnRemove: c.RemoveFirst,
		Within:   within,
		Replay:   true,
	})
}

// Unsubscribe detaches from the source and stops all future dispatch.
// Dispatches already executing are allowed to complete. Idempotent.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Release implements scope.Releaser so a subscription can be owned by a
// resource scope.
func (s *Subscription) Release() {
	s.Unsubscribe()
}

// markRemoved records that e's remove was delivered while a replay is
// still pending. A no-op once replay has finished.
func (s *Subscription) markRemoved(e domain.Entity) {
	s.mu.Lock()
	if s.skip != nil {
		s.skip[e] = struct{}{}
	}
	s.mu.Unlock()
}

func (s *Subscription) removedSinceSnapshot(e domain.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, removed := s.skip[e]
	return removed
}

func (s *Subscription) endReplay() {
	s.mu.Lock()
	s.skip = nil
	s.mu.Unlock()
}

// dispatch invokes fn unless the subscription is closed, containing
// panics so one entity's handler cannot starve another's.
func (s *Subscription) dispatch(fn func(domain.Entity), e domain.Entity) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	defer func() { _ = recover() }()
	fn(e)
}
