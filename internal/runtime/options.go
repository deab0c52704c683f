package runtime

import (
	"context"
	"log/slog"

	"github.com/aretw0/tether/internal/guid"
	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/ports"
)

// defaultGUID is the generator used when none is injected.
var defaultGUID domain.GUIDGenerator = guid.New

// Option configures a Registry. Options are applied over defaults and
// never clobber one another; the last writer of a field wins.
type Option func(*Registry)

// WithResolver maps an entity to the class governing it, overriding the
// registry's default class per entity.
func WithResolver(res domain.Resolver) Option {
	return func(r *Registry) {
		r.resolver = res
	}
}

// WithFilter gates which entities may be applied at all. Rejection is
// silent: no object, no log, no error.
func WithFilter(f domain.Filter) Option {
	return func(r *Registry) {
		r.filter = f
	}
}

// WithGUID enables GUID assignment using the given prefix. An empty
// prefix leaves assignment disabled.
func WithGUID(prefix string) Option {
	return func(r *Registry) {
		r.guidPrefix = prefix
	}
}

// WithGUIDGenerator injects the GUID minting function.
func WithGUIDGenerator(gen domain.GUIDGenerator) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newGUID = gen
		}
	}
}

// WithMetadataStore persists each assigned GUID as a durable attribute
// on its entity for the lifetime of the entry.
func WithMetadataStore(store ports.MetadataStore) Option {
	return func(r *Registry) {
		r.meta = store
	}
}

// WithAutoInit controls whether Init runs automatically after
// construction. Enabled by default.
func WithAutoInit(enabled bool) Option {
	return func(r *Registry) {
		r.autoInit = enabled
	}
}

// WithReplay controls whether entities already carrying the tag at
// construction time are applied. Enabled by default.
func WithReplay(enabled bool) Option {
	return func(r *Registry) {
		r.replay = enabled
	}
}

// WithDebug enables diagnostic output for hook failures and recovered
// apply errors.
func WithDebug(enabled bool) Option {
	return func(r *Registry) {
		r.debug = enabled
	}
}

// WithLogging enables per-apply/revoke notices at info level.
func WithLogging(enabled bool) Option {
	return func(r *Registry) {
		r.notices = enabled
	}
}

// WithLogger sets the structured logger used for notices and debug
// diagnostics. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// WithContext sets the context passed to metadata store operations.
func WithContext(ctx context.Context) Option {
	return func(r *Registry) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// WithStartupContext sets the opaque value handed to the class's
// one-time Startup hook.
func WithStartupContext(v any) Option {
	return func(r *Registry) {
		r.startupCtx = v
	}
}

// WithStartupTarget sets the registry value handed to the Startup hook.
// Used by wrapping facades so user code receives the wrapper, not the
// core. Defaults to the core registry itself.
func WithStartupTarget(target any) Option {
	return func(r *Registry) {
		r.startup = target
	}
}

// WithScope restricts observation to descendants of the given entity,
// for sources with a hierarchy.
func WithScope(within domain.Entity) Option {
	return func(r *Registry) {
		r.within = within
	}
}
