package domain

// Entity is an opaque handle to an externally owned object being managed.
// Entities are supplied by the environment, must be comparable (they are
// used as map keys), and are never owned by the registry.
type Entity any

// Tag identifies a logical category of entities. One registry instance
// is bound to exactly one tag for its whole lifetime.
type Tag string

// GUIDGenerator mints an opaque unique identifier with the given prefix.
// Implementations are assumed collision-free for practical purposes.
type GUIDGenerator func(prefix string) string

// GUIDAttribute is the metadata key under which a minted GUID is
// persisted on an entity while it is tracked.
const GUIDAttribute = "tether:guid"
