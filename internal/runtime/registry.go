// Package runtime implements the lifecycle registry core: it consumes a
// tag's add/remove stream and maintains exactly one managed object per
// tracked entity, with deterministic release of per-object resources.
package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/tether/internal/logging"
	"github.com/aretw0/tether/internal/observer"
	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
	"github.com/aretw0/tether/pkg/safecall"
	"github.com/aretw0/tether/pkg/scope"
)

// ErrNoSource is returned by NewRegistry when no tag source is given.
var ErrNoSource = errors.New("tag source is required")

// ErrNoClass is returned by NewRegistry when neither a default class nor
// a resolver is configured.
var ErrNoClass = errors.New("a class or a resolver is required")

var errUnresolvedClass = errors.New("no class resolved for entity")

// entry is the registry's record for one tracked entity. The entry owns
// the object and its resource scope until revoke.
type entry struct {
	obj   any
	sc    *scope.Scope
	guid  string
	class *domain.Class
}

// pendingApply marks an entity whose constructor is running outside
// the lock. A revoke arriving meanwhile cancels it, so the finished
// object is discarded instead of resurrecting a removed entity.
type pendingApply struct {
	cancelled bool
}

// Registry tracks one managed object per entity carrying its tag.
//
// All mutations are serialized by one mutex, so a multi-goroutine host
// may drive it safely; user hooks always run outside the lock and may
// re-enter the registry.
type Registry struct {
	tag    domain.Tag
	source ports.TagSource

	mu        sync.Mutex
	entries   map[domain.Entity]*entry
	guids     map[string]domain.Entity
	pending   map[domain.Entity]*pendingApply
	destroyed bool

	own *scope.Scope

	class      *domain.Class
	resolver   domain.Resolver
	filter     domain.Filter
	guidPrefix string
	newGUID    domain.GUIDGenerator
	autoInit   bool
	replay     bool
	debug      bool
	notices    bool
	meta       ports.MetadataStore
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	ctx        context.Context
	startup    any
	startupCtx any
	within     domain.Entity
}

// NewRegistry builds a registry bound to tag, runs the class's one-time
// Startup hook if present, and immediately subscribes to the source:
// construction is side-effecting and begins live observation, including
// replay of entities already carrying the tag.
func NewRegistry(class *domain.Class, tag domain.Tag, source ports.TagSource, opts ...Option) (*Registry, error) {
	if source == nil {
		return nil, ErrNoSource
	}

	r := &Registry{
		tag:      tag,
		source:   source,
		entries:  make(map[domain.Entity]*entry),
		guids:    make(map[string]domain.Entity),
		pending:  make(map[domain.Entity]*pendingApply),
		own:      scope.New(),
		class:    class,
		autoInit: true,
		replay:   true,
		logger:   logging.NewNop(),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.class == nil && r.resolver == nil {
		return nil, ErrNoClass
	}
	if r.newGUID == nil {
		r.newGUID = defaultGUID
	}
	if r.startup == nil {
		r.startup = r
	}

	if class != nil && class.Startup != nil {
		target := r.startup
		if err := safecall.Invoke(r.hookLogger(), class.Name, "Startup", func() error {
			return class.Startup(target, r.startupCtx)
		}); err != nil && r.hooks.OnHookError != nil {
			r.hooks.OnHookError(nil, "Startup", err)
		}
	}

	sub := observer.Subscribe(source, tag, observer.Config{
		OnAdd:    func(e domain.Entity) { r.Apply(e) },
		OnRemove: r.Revoke,
		Within:   r.within,
		Replay:   r.replay,
	})
	r.own.Add(sub)

	return r, nil
}

// Tag returns the tag this registry is bound to.
func (r *Registry) Tag() domain.Tag {
	return r.tag
}

// Apply creates and records the managed object for e. It is a no-op,
// returning nil, when e is already tracked or mid-construction,
// rejected by the filter, or no class resolves, and when construction
// fails; a failed construction releases the freshly created resource
// scope so nothing leaks. A revoke arriving while the constructor runs
// wins: the finished object is discarded.
func (r *Registry) Apply(e domain.Entity) any {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		r.debugLog("apply on destroyed registry", "entity", e)
		return nil
	}
	if _, tracked := r.entries[e]; tracked {
		r.mu.Unlock()
		return nil
	}
	if _, inflight := r.pending[e]; inflight {
		r.mu.Unlock()
		return nil
	}
	p := &pendingApply{}
	r.pending[e] = p
	r.mu.Unlock()

	// User code (filter, resolver, constructor) runs outside the lock
	// so it may re-enter the registry.
	if r.filter != nil && !r.filter(e) {
		r.clearPending(e)
		return nil
	}

	class := r.class
	if r.resolver != nil {
		if resolved := r.resolver(e); resolved != nil {
			class = resolved
		}
	}

	sc := scope.New()
	if class == nil || class.Construct == nil {
		r.clearPending(e)
		sc.Destroy()
		r.debugLog("no class resolved", "tag", r.tag, "entity", e)
		if r.hooks.OnApplyFailed != nil {
			r.hooks.OnApplyFailed(e, errUnresolvedClass)
		}
		return nil
	}

	var guid string
	if r.guidPrefix != "" {
		guid = r.newGUID(r.guidPrefix)
	}

	obj, err := safecall.InvokeValue(r.hookLogger(), class.Name, "Construct", func() (any, error) {
		return class.Construct(e, sc, guid)
	})
	if err != nil {
		r.clearPending(e)
		sc.Destroy()
		r.debugLog("construction failed", "tag", r.tag, "entity", e, "err", err)
		if r.hooks.OnApplyFailed != nil {
			r.hooks.OnApplyFailed(e, err)
		}
		return nil
	}

	// The durable attribute is written before the entry is published, so
	// a revoke can only ever observe it already set and clear it after.
	if guid != "" && r.meta != nil {
		if err := r.meta.SetAttribute(r.ctx, e, domain.GUIDAttribute, guid); err != nil {
			r.debugLog("guid attribute write failed", "entity", e, "err", err)
		}
	}

	r.mu.Lock()
	delete(r.pending, e)
	if r.destroyed || p.cancelled {
		r.mu.Unlock()
		if guid != "" && r.meta != nil {
			if err := r.meta.ClearAttribute(r.ctx, e, domain.GUIDAttribute); err != nil {
				r.debugLog("guid attribute clear failed", "entity", e, "err", err)
			}
		}
		sc.Destroy()
		return nil
	}
	r.entries[e] = &entry{obj: obj, sc: sc, guid: guid, class: class}
	if guid != "" {
		r.guids[guid] = e
	}
	r.mu.Unlock()

	if r.autoInit {
		if err := safecall.Invoke(r.hookLogger(), class.Name, "Init", func() error {
			if class.Init == nil {
				return nil
			}
			return class.Init(obj)
		}); err != nil && r.hooks.OnHookError != nil {
			r.hooks.OnHookError(e, "Init", err)
		}
	}

	// An Apply invoked directly (not by an add event) also marks the
	// entity as tagged, when the source supports writing. The resulting
	// synchronous add notification no-ops: e is tracked by now.
	if tw, ok := r.source.(ports.TagWriter); ok && !tw.HasTag(e, r.tag) {
		tw.AddTag(e, r.tag)
	}

	if r.notices {
		r.logger.Info("object applied", "tag", r.tag, "entity", e, "class", class.Name)
	}
	if r.hooks.OnApply != nil {
		r.hooks.OnApply(e, obj)
	}
	return obj
}

// Revoke tears down e's entry: the GUID mapping and durable attribute
// are cleared, the resource scope is released, and the Destroy hook is
// invoked with its failure contained. A no-op when e is untracked, so
// direct calls and tag-remove notifications cannot double-fire.
func (r *Registry) Revoke(e domain.Entity) {
	r.mu.Lock()
	ent, tracked := r.entries[e]
	if !tracked {
		// An in-flight apply for e loses to this revoke.
		if p, inflight := r.pending[e]; inflight {
			p.cancelled = true
		}
		r.mu.Unlock()
		return
	}
	delete(r.entries, e)
	if ent.guid != "" {
		delete(r.guids, ent.guid)
	}
	r.mu.Unlock()

	r.teardown(e, ent)
}

// teardown runs the post-bookkeeping half of a revoke. The scope is
// released before the Destroy hook runs and regardless of its outcome.
func (r *Registry) teardown(e domain.Entity, ent *entry) {
	if ent.guid != "" && r.meta != nil {
		if err := r.meta.ClearAttribute(r.ctx, e, domain.GUIDAttribute); err != nil {
			r.debugLog("guid attribute clear failed", "entity", e, "err", err)
		}
	}

	ent.sc.Destroy()

	obj := ent.obj
	if err := safecall.Invoke(r.hookLogger(), ent.class.Name, "Destroy", func() error {
		if ent.class.Destroy == nil {
			return nil
		}
		return ent.class.Destroy(obj)
	}); err != nil && r.hooks.OnHookError != nil {
		r.hooks.OnHookError(e, "Destroy", err)
	}

	// Drop the entry's owning reference so a stale entry cannot keep
	// the object alive or route further calls to it.
	ent.obj = nil

	if r.notices {
		r.logger.Info("object revoked", "tag", r.tag, "entity", e, "class", ent.class.Name)
	}
	if r.hooks.OnRevoke != nil {
		r.hooks.OnRevoke(e)
	}
}

// GetObject returns the managed object for e, if tracked.
func (r *Registry) GetObject(e domain.Entity) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.entries[e]
	if !ok {
		return nil, false
	}
	return ent.obj, true
}

// GetObjectByGUID returns the managed object whose entity was assigned
// guid at apply time.
func (r *Registry) GetObjectByGUID(guid string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.guids[guid]
	if !ok {
		return nil, false
	}
	ent, ok := r.entries[e]
	if !ok {
		return nil, false
	}
	return ent.obj, true
}

// GetAll returns a snapshot of all tracked entities and their objects.
// Iteration order is unspecified.
func (r *Registry) GetAll() map[domain.Entity]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.Entity]any, len(r.entries))
	for e, ent := range r.entries {
		out[e] = ent.obj
	}
	return out
}

// Len returns the number of currently tracked entities.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Call invokes the named method on one tracked object with failure
// isolation. An unknown object or a method the class does not declare
// is a successful no-op. The returned error is informational; the
// failure has already been contained.
func (r *Registry) Call(obj any, method string, args ...any) (any, error) {
	ent := r.entryFor(obj)
	if ent == nil {
		return nil, nil
	}
	return r.callEntry(ent, method, args...)
}

// CallAll invokes the named method on every tracked object in the
// current snapshot, each call isolated so one failure cannot stop the
// rest. Iteration order is unspecified.
func (r *Registry) CallAll(method string, args ...any) {
	r.mu.Lock()
	snapshot := make([]*entry, 0, len(r.entries))
	targets := make([]domain.Entity, 0, len(r.entries))
	for e, ent := range r.entries {
		snapshot = append(snapshot, ent)
		targets = append(targets, e)
	}
	r.mu.Unlock()

	for i, ent := range snapshot {
		if _, err := r.callEntry(ent, method, args...); err != nil && r.hooks.OnHookError != nil {
			r.hooks.OnHookError(targets[i], method, err)
		}
	}
}

// Destroy revokes every tracked entity and detaches the registry's tag
// subscription, leaving the registry in a terminal state. Subsequent
// operations are safe no-ops. Idempotent.
func (r *Registry) Destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	tracked := r.entries
	r.entries = make(map[domain.Entity]*entry)
	r.guids = make(map[string]domain.Entity)
	r.mu.Unlock()

	for e, ent := range tracked {
		r.teardown(e, ent)
	}

	r.own.Destroy()
}

// Destroyed reports whether Destroy has been called.
func (r *Registry) Destroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

func (r *Registry) callEntry(ent *entry, method string, args ...any) (any, error) {
	fn, ok := ent.class.Methods[method]
	if !ok || fn == nil {
		return nil, nil
	}
	obj := ent.obj
	return safecall.InvokeValue(r.hookLogger(), ent.class.Name, method, func() (any, error) {
		return fn(obj, args...)
	})
}

// entryFor locates the live entry owning obj. Objects are compared by
// identity; values that cannot be compared simply never match.
func (r *Registry) entryFor(obj any) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ent := range r.entries {
		if safeEqual(ent.obj, obj) {
			return ent
		}
	}
	return nil
}

func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// clearPending drops e's in-flight marker after an apply that never
// published an entry.
func (r *Registry) clearPending(e domain.Entity) {
	r.mu.Lock()
	delete(r.pending, e)
	r.mu.Unlock()
}

// hookLogger returns the logger safecall should emit diagnostics to,
// or nil when debug output is disabled.
func (r *Registry) hookLogger() *slog.Logger {
	if !r.debug {
		return nil
	}
	return r.logger
}

func (r *Registry) debugLog(msg string, args ...any) {
	if r.debug {
		r.logger.Debug(msg, args...)
	}
}
