package tether

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/tether/internal/runtime"
	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// ErrTagRequired is returned by New when no tag is given.
var ErrTagRequired = errors.New("tag is required")

// Registry is the high-level entry point for the tether library. It
// wraps the internal runtime registry and manages exactly one object
// per entity carrying its tag.
type Registry struct {
	core     *runtime.Registry
	coreOpts []runtime.Option
}

// Option defines a functional option for configuring a Registry.
type Option func(*Registry)

// WithResolver maps an entity to the class governing it, overriding the
// default class per entity.
func WithResolver(res domain.Resolver) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithResolver(res))
	}
}

// WithFilter gates which entities may be applied at all.
func WithFilter(f domain.Filter) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithFilter(f))
	}
}

// WithGUID enables GUID assignment with the given prefix. Each applied
// entity is minted a GUID usable as a secondary lookup key through
// GetObjectByGUID.
func WithGUID(prefix string) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithGUID(prefix))
	}
}

// WithGUIDGenerator injects a custom GUID minting function.
func WithGUIDGenerator(gen domain.GUIDGenerator) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithGUIDGenerator(gen))
	}
}

// WithMetadataStore persists assigned GUIDs as durable attributes on
// their entities while tracked.
func WithMetadataStore(store ports.MetadataStore) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithMetadataStore(store))
	}
}

// WithAutoInit controls automatic Init after construction (default on).
func WithAutoInit(enabled bool) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithAutoInit(enabled))
	}
}

// WithReplay controls whether entities already carrying the tag are
// applied at construction time (default on).
func WithReplay(enabled bool) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithReplay(enabled))
	}
}

// WithDebug enables diagnostic output for contained failures.
func WithDebug(enabled bool) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithDebug(enabled))
	}
}

// WithLogging enables per-apply/revoke notices.
func WithLogging(enabled bool) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithLogging(enabled))
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithLogger(logger))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithContext sets the context passed to metadata store operations.
func WithContext(ctx context.Context) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithContext(ctx))
	}
}

// WithStartupContext sets the opaque value handed to the class's
// one-time Startup hook.
func WithStartupContext(v any) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithStartupContext(v))
	}
}

// WithScope restricts observation to descendants of the given entity.
func WithScope(within domain.Entity) Option {
	return func(r *Registry) {
		r.coreOpts = append(r.coreOpts, runtime.WithScope(within))
	}
}

// New initializes a registry bound to tag, observing source.
// Construction is side-effecting: the class's Startup hook (if any)
// runs once, then live observation begins immediately, replaying
// entities that already carry the tag unless WithReplay(false) is set.
func New(class *domain.Class, tag domain.Tag, source ports.TagSource, opts ...Option) (*Registry, error) {
	if tag == "" {
		return nil, ErrTagRequired
	}

	reg := &Registry{}
	for _, opt := range opts {
		opt(reg)
	}

	coreOpts := append(reg.coreOpts, runtime.WithStartupTarget(reg))
	core, err := runtime.NewRegistry(class, tag, source, coreOpts...)
	if err != nil {
		return nil, err
	}
	reg.core = core
	reg.coreOpts = nil

	return reg, nil
}

// Tag returns the tag this registry is bound to.
func (r *Registry) Tag() domain.Tag {
	return r.core.Tag()
}

// Apply creates and tracks the managed object for e. See the runtime
// semantics: no-op (returning nil) when already tracked, filtered out,
// unresolved, or when construction fails.
func (r *Registry) Apply(e domain.Entity) any {
	return r.core.Apply(e)
}

// Revoke tears down e's managed object. A no-op when e is untracked.
func (r *Registry) Revoke(e domain.Entity) {
	r.core.Revoke(e)
}

// GetObject returns the managed object for e, if tracked.
func (r *Registry) GetObject(e domain.Entity) (any, bool) {
	return r.core.GetObject(e)
}

// GetObjectByGUID returns the managed object assigned guid.
func (r *Registry) GetObjectByGUID(guid string) (any, bool) {
	return r.core.GetObjectByGUID(guid)
}

// GetAll returns a snapshot of all tracked entities and their objects.
func (r *Registry) GetAll() map[domain.Entity]any {
	return r.core.GetAll()
}

// Len returns the number of currently tracked entities.
func (r *Registry) Len() int {
	return r.core.Len()
}

// Call invokes a named method on one tracked object, isolating failure.
func (r *Registry) Call(obj any, method string, args ...any) (any, error) {
	return r.core.Call(obj, method, args...)
}

// CallAll invokes a named method on every tracked object, each call
// isolated from the others.
func (r *Registry) CallAll(method string, args ...any) {
	r.core.CallAll(method, args...)
}

// Destroy revokes every tracked entity and detaches the registry from
// its source. The registry is terminal afterwards; further operations
// are safe no-ops.
func (r *Registry) Destroy() {
	r.core.Destroy()
}

// Destroyed reports whether Destroy has been called.
func (r *Registry) Destroyed() bool {
	return r.core.Destroyed()
}
