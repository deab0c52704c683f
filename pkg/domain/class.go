package domain

import "github.com/aretw0/tether/pkg/scope"

// Method is a named operation on a managed object, dispatched through
// the registry's Call/CallAll with failure isolation.
type Method func(obj any, args ...any) (any, error)

// Class is the capability contract for the objects a registry manages.
// Only Construct is required; nil hooks are treated as successful no-ops.
type Class struct {
	// Name labels the class in diagnostics.
	Name string

	// Construct builds the managed object for an entity. The scope is
	// owned by the registry entry and released on revoke; resources the
	// object acquires should be registered there. guid is empty unless
	// GUID assignment is enabled.
	Construct func(e Entity, sc *scope.Scope, guid string) (any, error)

	// Init is invoked after construction when auto-init is enabled.
	Init func(obj any) error

	// Destroy is invoked on revoke, after the entry's scope is released.
	Destroy func(obj any) error

	// Startup is invoked exactly once when a registry binds this class,
	// with the registry and the configured startup context.
	Startup func(registry any, ctx any) error

	// Methods are the operations reachable through Call and CallAll.
	Methods map[string]Method
}

// Resolver chooses which class governs a given entity, overriding the
// registry's default class. Returning nil means no class resolves.
type Resolver func(e Entity) *Class

// Filter gates whether an entity may be applied at all.
type Filter func(e Entity) bool
