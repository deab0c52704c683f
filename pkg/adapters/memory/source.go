// Package memory provides in-memory implementations of the tether
// ports: a writable, hierarchical TagSource and a MetadataStore. They
// back tests and the simulate CLI, and serve as the substitution fakes
// for hosts without a native tag primitive.
package memory

import (
	"sort"
	"sync"

	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

type handler struct {
	within domain.Entity
	fn     func(domain.Entity)
}

// Source is an in-memory tag source. Tag writes fan out synchronously
// to registered handlers, in registration order, after the internal
// lock is released so handlers may re-enter the source.
type Source struct {
	mu      sync.Mutex
	members map[domain.Tag]map[domain.Entity]struct{}
	order   map[domain.Tag][]domain.Entity
	parents map[domain.Entity]domain.Entity
	nextID  int
	added   map[domain.Tag]map[int]handler
	removed map[domain.Tag]map[int]handler
}

// NewSource creates an empty source.
func NewSource() *Source {
	return &Source{
		members: make(map[domain.Tag]map[domain.Entity]struct{}),
		order:   make(map[domain.Tag][]domain.Entity),
		parents: make(map[domain.Entity]domain.Entity),
		added:   make(map[domain.Tag]map[int]handler),
		removed: make(map[domain.Tag]map[int]handler),
	}
}

var (
	_ ports.TagSource = (*Source)(nil)
	_ ports.TagWriter = (*Source)(nil)
)

// SetParent records e's parent for ancestry-scoped subscriptions.
func (s *Source) SetParent(e, parent domain.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if parent == nil {
		delete(s.parents, e)
		return
	}
	s.parents[e] = parent
}

// Tagged lists entities currently carrying tag, in tagging order,
// optionally restricted to strict descendants of within.
func (s *Source) Tagged(tag domain.Tag, within domain.Entity) []domain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Entity
	for _, e := range s.order[tag] {
		if _, ok := s.members[tag][e]; !ok {
			continue
		}
		if s.isDescendant(e, within) {
			out = append(out, e)
		}
	}
	return out
}

// HasTag reports whether e currently carries tag.
func (s *Source) HasTag(e domain.Entity, tag domain.Tag) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[tag][e]
	return ok
}

// AddTag marks e as carrying tag and notifies subscribers. Adding an
// already present tag is a no-op.
func (s *Source) AddTag(e domain.Entity, tag domain.Tag) {
	s.mu.Lock()
	if _, ok := s.members[tag][e]; ok {
		s.mu.Unlock()
		return
	}
	if s.members[tag] == nil {
		s.members[tag] = make(map[domain.Entity]struct{})
	}
	s.members[tag][e] = struct{}{}
	s.order[tag] = append(s.order[tag], e)
	targets := s.matching(s.added[tag], e)
	s.mu.Unlock()

	for _, fn := range targets {
		fn(e)
	}
}

// RemoveTag clears tag from e and notifies subscribers. Removing an
// absent tag is a no-op.
func (s *Source) RemoveTag(e domain.Entity, tag domain.Tag) {
	s.mu.Lock()
	if _, ok := s.members[tag][e]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.members[tag], e)
	for i, member := range s.order[tag] {
		if member == e {
			s.order[tag] = append(s.order[tag][:i], s.order[tag][i+1:]...)
			break
		}
	}
	targets := s.matching(s.removed[tag], e)
	s.mu.Unlock()

	for _, fn := range targets {
		fn(e)
	}
}

// OnTagAdded registers fn for future AddTag events on tag.
func (s *Source) OnTagAdded(tag domain.Tag, within domain.Entity, fn func(domain.Entity)) ports.UnsubscribeFunc {
	return s.subscribe(s.added, tag, within, fn)
}

// OnTagRemoved registers fn for future RemoveTag events on tag.
func (s *Source) OnTagRemoved(tag domain.Tag, within domain.Entity, fn func(domain.Entity)) ports.UnsubscribeFunc {
	return s.subscribe(s.removed, tag, within, fn)
}

func (s *Source) subscribe(reg map[domain.Tag]map[int]handler, tag domain.Tag, within domain.Entity, fn func(domain.Entity)) ports.UnsubscribeFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reg[tag] == nil {
		reg[tag] = make(map[int]handler)
	}
	id := s.nextID
	s.nextID++
	reg[tag][id] = handler{within: within, fn: fn}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(reg[tag], id)
	}
}

// matching collects the handlers whose scope covers e, in registration
// order. Caller holds the lock.
func (s *Source) matching(handlers map[int]handler, e domain.Entity) []func(domain.Entity) {
	if len(handlers) == 0 {
		return nil
	}
	ids := make([]int, 0, len(handlers))
	for id := range handlers {
		ids = append(ids, id)
	}
	// Registration ids are monotonically increasing.
	sort.Ints(ids)
	out := make([]func(domain.Entity), 0, len(ids))
	for _, id := range ids {
		h := handlers[id]
		if s.isDescendant(e, h.within) {
			out = append(out, h.fn)
		}
	}
	return out
}

// isDescendant reports whether e is a strict descendant of within.
// A nil scope covers everything. Caller holds the lock.
func (s *Source) isDescendant(e domain.Entity, within domain.Entity) bool {
	if within == nil {
		return true
	}
	cur := e
	for {
		parent, ok := s.parents[cur]
		if !ok {
			return false
		}
		if parent == within {
			return true
		}
		cur = parent
	}
}
