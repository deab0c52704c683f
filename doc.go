/*
Package tether binds object lifecycles to tags. A Registry watches one
tag on an external source and owns a single managed object for each
entity carrying it. The object is built the moment the entity gains the
tag and torn down when it loses it, with the object's resources always
released, no matter how its constructors or hooks misbehave.

# Concept

A Registry is bound to one tag on an injected TagSource (the external
tag/event primitive). When an entity begins matching the tag, or
already matches it at construction time, the registry resolves a Class
for it, constructs the managed object with its own resource Scope, and
records it under the entity's identity. When the entity stops matching,
or on an explicit Revoke, the entry is removed, its scope is released
exactly once, and the class's Destroy hook runs with its failure
contained. The registry never polls: the source pushes, the registry
reacts.

# Key Features

  - One object per entity: re-applying a tracked entity is a no-op.
  - Deterministic cleanup: each object's Scope releases its resources in
    reverse registration order, exactly once, on revoke or Destroy.
  - Failure isolation: a panicking or failing hook never corrupts
    registry bookkeeping and never escapes to the caller.
  - Secondary identity: optional GUID assignment with lookup through
    GetObjectByGUID and durable persistence via a MetadataStore.
  - Hexagonal ports: TagSource and MetadataStore are interfaces, with
    in-memory and Redis adapters provided.

# Usage

	package main

	import (
		"log"

		"github.com/aretw0/tether"
		"github.com/aretw0/tether/pkg/adapters/memory"
		"github.com/aretw0/tether/pkg/domain"
		"github.com/aretw0/tether/pkg/scope"
	)

	type Enemy struct{ HP int }

	func main() {
		source := memory.NewSource()

		class := &domain.Class{
			Name: "Enemy",
			Construct: func(e domain.Entity, sc *scope.Scope, guid string) (any, error) {
				return &Enemy{HP: 100}, nil
			},
			Destroy: func(obj any) error {
				log.Println("enemy gone:", obj)
				return nil
			},
		}

		reg, err := tether.New(class, "Enemy", source)
		if err != nil {
			log.Fatal(err)
		}
		defer reg.Destroy()

		// The source drives the registry.
		source.AddTag("goblin-1", "Enemy")

		if obj, ok := reg.GetObject("goblin-1"); ok {
			log.Println("managing:", obj)
		}

		source.RemoveTag("goblin-1", "Enemy")
	}
*/
package tether
