// Package scope provides a disposal group for per-object resources.
//
// A Scope collects releasable resources (event subscriptions, timers,
// nested scopes) and releases all of them exactly once when destroyed.
// It is the mechanism that guarantees an object's external subscriptions
// do not leak when the object is torn down.
package scope

import (
	"io"
	"sync"
	"time"
)

// Releaser is anything that can free an owned resource.
type Releaser interface {
	Release()
}

// Scope is an append-only collection of releasable resources owned by a
// single object. Destroy releases every member in reverse registration
// order; a second Destroy is a no-op.
type Scope struct {
	mu        sync.Mutex
	resources []Releaser
	destroyed bool
}

// New creates an empty scope.
func New() *Scope {
	return &Scope{}
}

// Add registers a resource for later release.
// Adding to a destroyed scope releases the resource immediately, so a
// late registration can never leak.
func (s *Scope) Add(r Releaser) {
	if r == nil {
		return
	}
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		release(r)
		return
	}
	s.resources = append(s.resources, r)
	s.mu.Unlock()
}

// AddFunc registers a plain cleanup function.
func (s *Scope) AddFunc(fn func()) {
	if fn == nil {
		return
	}
	s.Add(releaseFunc(fn))
}

// AddCloser registers an io.Closer; its Close error is discarded.
func (s *Scope) AddCloser(c io.Closer) {
	if c == nil {
		return
	}
	s.AddFunc(func() { _ = c.Close() })
}

// AddTimer registers a timer to be stopped on release.
func (s *Scope) AddTimer(t *time.Timer) {
	if t == nil {
		return
	}
	s.AddFunc(func() { t.Stop() })
}

// Destroy releases every registered resource in reverse registration
// order and marks the scope as disposed. Each member's release is
// isolated: a panic in one does not skip the rest. Idempotent.
func (s *Scope) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	resources := s.resources
	s.resources = nil
	s.mu.Unlock()

	for i := len(resources) - 1; i >= 0; i-- {
		release(resources[i])
	}
}

// Release makes a Scope itself a Releaser, so scopes nest.
func (s *Scope) Release() {
	s.Destroy()
}

// Destroyed reports whether the scope has been disposed.
func (s *Scope) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Size returns the number of currently held resources.
func (s *Scope) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources)
}

type releaseFunc func()

func (f releaseFunc) Release() { f() }

// release invokes r.Release, swallowing panics so one misbehaving
// resource cannot block the release of its siblings.
func release(r Releaser) {
	defer func() { _ = recover() }()
	r.Release()
}
