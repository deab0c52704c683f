package ports

import (
	"context"

	"github.com/aretw0/tether/pkg/domain"
)

// MetadataStore persists named attributes on entities. The registry
// uses it for exactly one thing: recording a tracked entity's GUID at
// apply time and clearing it at revoke time.
type MetadataStore interface {
	// SetAttribute writes an attribute value for an entity.
	SetAttribute(ctx context.Context, e domain.Entity, key, value string) error

	// Attribute reads an attribute value.
	// Returns domain.ErrAttributeNotFound if the entity has none.
	Attribute(ctx context.Context, e domain.Entity, key string) (string, error)

	// ClearAttribute removes an attribute. Clearing an absent attribute
	// is not an error.
	ClearAttribute(ctx context.Context, e domain.Entity, key string) error
}
