package domain

import "errors"

// ErrRegistryDestroyed is returned when an operation requiring a live
// registry is attempted after Destroy.
var ErrRegistryDestroyed = errors.New("registry destroyed")

// ErrAttributeNotFound is returned by a MetadataStore when an entity has
// no value for the requested attribute.
var ErrAttributeNotFound = errors.New("attribute not found")
