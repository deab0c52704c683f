package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/tether/pkg/adapters/memory"
	"github.com/aretw0/tether/pkg/domain"
)

func TestSource_TaggedListsInTaggingOrder(t *testing.T) {
	s := memory.NewSource()
	s.AddTag("b", "Enemy")
	s.AddTag("a", "Enemy")
	s.AddTag("c", "Other")

	assert.Equal(t, []domain.Entity{"b", "a"}, s.Tagged("Enemy", nil))
	assert.Equal(t, []domain.Entity{"c"}, s.Tagged("Other", nil))
}

func TestSource_AddTagIsIdempotent(t *testing.T) {
	s := memory.NewSource()

	var notifications int
	s.OnTagAdded("Enemy", nil, func(domain.Entity) { notifications++ })

	s.AddTag("a", "Enemy")
	s.AddTag("a", "Enemy")

	assert.Equal(t, 1, notifications)
	assert.Len(t, s.Tagged("Enemy", nil), 1)
}

func TestSource_RemoveAbsentTagIsSilent(t *testing.T) {
	s := memory.NewSource()

	var notifications int
	s.OnTagRemoved("Enemy", nil, func(domain.Entity) { notifications++ })

	s.RemoveTag("a", "Enemy")
	assert.Equal(t, 0, notifications)
}

func TestSource_UnsubscribeStopsNotifications(t *testing.T) {
	s := memory.NewSource()

	var got []domain.Entity
	cancel := s.OnTagAdded("Enemy", nil, func(e domain.Entity) { got = append(got, e) })

	s.AddTag("a", "Enemy")
	cancel()
	cancel() // calling twice is harmless
	s.AddTag("b", "Enemy")

	assert.Equal(t, []domain.Entity{"a"}, got)
}

func TestSource_AncestryScopedListing(t *testing.T) {
	s := memory.NewSource()
	s.SetParent("child", "zone")
	s.SetParent("grandchild", "child")
	s.AddTag("child", "Enemy")
	s.AddTag("grandchild", "Enemy")
	s.AddTag("outsider", "Enemy")
	s.AddTag("zone", "Enemy")

	assert.Equal(t, []domain.Entity{"child", "grandchild"}, s.Tagged("Enemy", "zone"))
}

func TestSource_ScopedHandlerIgnoresOutsiders(t *testing.T) {
	s := memory.NewSource()
	s.SetParent("inside", "zone")

	var got []domain.Entity
	s.OnTagAdded("Enemy", "zone", func(e domain.Entity) { got = append(got, e) })

	s.AddTag("outside", "Enemy")
	s.AddTag("inside", "Enemy")

	assert.Equal(t, []domain.Entity{"inside"}, got)
}

func TestSource_HandlerMayReenterSource(t *testing.T) {
	s := memory.NewSource()

	s.OnTagAdded("Enemy", nil, func(e domain.Entity) {
		// A handler driving further source mutations must not deadlock.
		if e == "a" {
			s.AddTag("echo", "Other")
		}
	})

	assert.NotPanics(t, func() { s.AddTag("a", "Enemy") })
	assert.True(t, s.HasTag("echo", "Other"))
}
