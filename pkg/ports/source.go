package ports

import "github.com/aretw0/tether/pkg/domain"

// UnsubscribeFunc detaches a previously registered notification handler.
// Calling it more than once is harmless.
type UnsubscribeFunc func()

// TagSource is the external tag/event primitive the registry observes.
// It must deliver notifications for any one entity in membership order
// (an add is never delivered after that membership's remove); across
// entities no ordering is assumed.
//
// within, when non-nil, restricts listing and notifications to
// descendants of that entity; how ancestry is defined is up to the
// source. Sources without a hierarchy may ignore it.
type TagSource interface {
	// Tagged lists the entities currently matching tag.
	Tagged(tag domain.Tag, within domain.Entity) []domain.Entity

	// OnTagAdded registers fn for entities that begin matching tag.
	OnTagAdded(tag domain.Tag, within domain.Entity, fn func(domain.Entity)) UnsubscribeFunc

	// OnTagRemoved registers fn for entities that stop matching tag.
	OnTagRemoved(tag domain.Tag, within domain.Entity, fn func(domain.Entity)) UnsubscribeFunc
}

// TagWriter is an optional extension of TagSource for sources whose tag
// membership can be written back. A registry uses it to mark an entity
// as tagged when Apply is invoked directly rather than by an add event.
type TagWriter interface {
	HasTag(e domain.Entity, tag domain.Tag) bool
	AddTag(e domain.Entity, tag domain.Tag)
	RemoveTag(e domain.Entity, tag domain.Tag)
}
