package observer_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tether/internal/observer"
	"github.com/aretw0/tether/pkg/adapters/memory"
	"github.com/aretw0/tether/pkg/domain"
)

// recorder collects dispatched entities safely across goroutines.
type recorder struct {
	mu      sync.Mutex
	entries []domain.Entity
}

func (r *recorder) record(e domain.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recorder) snapshot() []domain.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Entity, len(r.entries))
	copy(out, r.entries)
	return out
}

func TestSubscribe_DispatchesAddAndRemove(t *testing.T) {
	source := memory.NewSource()
	var added, removed recorder

	sub := observer.Subscribe(source, "Enemy", observer.Config{
		OnAdd:    added.record,
		OnRemove: removed.record,
	})
	defer sub.Unsubscribe()

	source.AddTag("a", "Enemy")
	source.AddTag("b", "Enemy")
	source.RemoveTag("a", "Enemy")

	assert.Equal(t, []domain.Entity{"a", "b"}, added.snapshot())
	assert.Equal(t, []domain.Entity{"a"}, removed.snapshot())
}

func TestSubscribe_ReplayIsAsynchronous(t *testing.T) {
	source := memory.NewSource()
	source.AddTag("pre-1", "Enemy")
	source.AddTag("pre-2", "Enemy")

	var added recorder
	ready := make(chan struct{})
	sub := observer.Subscribe(source, "Enemy", observer.Config{
		OnAdd: func(e domain.Entity) {
			<-ready // block until the test releases us
			added.record(e)
		},
		Replay: true,
	})
	defer sub.Unsubscribe()

	// Subscribe must not have re-entered the handler synchronously.
	assert.Empty(t, added.snapshot())
	close(ready)

	require.Eventually(t, func() bool {
		return len(added.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.Entity{"pre-1", "pre-2"}, added.snapshot())
}

func TestSubscribe_ReplaySkipsEntityRemovedBeforeDispatch(t *testing.T) {
	source := memory.NewSource()
	source.AddTag("A", "Enemy")
	source.AddTag("B", "Enemy")

	var added, removed recorder
	var once sync.Once
	first := make(chan struct{})
	gate := make(chan struct{})

	sub := observer.Subscribe(source, "Enemy", observer.Config{
		OnAdd: func(e domain.Entity) {
			// Stall on the first replayed entity so a remove can land
			// before the rest of the snapshot is dispatched.
			once.Do(func() {
				close(first)
				<-gate
			})
			added.record(e)
		},
		OnRemove: removed.record,
		Replay:   true,
	})
	defer sub.Unsubscribe()

	<-first
	source.RemoveTag("B", "Enemy")
	close(gate)

	require.Eventually(t, func() bool {
		return len(added.snapshot()) >= 1
	}, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool {
		return len(added.snapshot()) > 1
	}, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, []domain.Entity{"A"}, added.snapshot(), "B's stale add must not follow its remove")
	assert.Equal(t, []domain.Entity{"B"}, removed.snapshot())
}

func TestSubscribe_ReplayIsolatesPanickingHandler(t *testing.T) {
	source := memory.NewSource()
	source.AddTag("bad", "Enemy")
	source.AddTag("good", "Enemy")

	var added recorder
	sub := observer.Subscribe(source, "Enemy", observer.Config{
		OnAdd: func(e domain.Entity) {
			if e == "bad" {
				panic("handler defect")
			}
			added.record(e)
		},
		Replay: true,
	})
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool {
		return len(added.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.Entity{"good"}, added.snapshot())
}

func TestSubscription_UnsubscribeStopsDispatch(t *testing.T) {
	source := memory.NewSource()
	var added recorder

	sub := observer.Subscribe(source, "Enemy", observer.Config{OnAdd: added.record})
	source.AddTag("a", "Enemy")
	sub.Unsubscribe()
	source.AddTag("b", "Enemy")

	assert.Equal(t, []domain.Entity{"a"}, added.snapshot())
}

func TestSubscription_UnsubscribeIsIdempotent(t *testing.T) {
	source := memory.NewSource()
	sub := observer.Subscribe(source, "Enemy", observer.Config{OnAdd: func(domain.Entity) {}})

	assert.NotPanics(t, func() {
		sub.Unsubscribe()
		sub.Unsubscribe()
	})
}

func TestSubscribe_AncestryScope(t *testing.T) {
	source := memory.NewSource()
	source.SetParent("child", "zone")
	source.SetParent("grandchild", "child")

	var added recorder
	sub := observer.Subscribe(source, "Enemy", observer.Config{
		OnAdd:  added.record,
		Within: "zone",
	})
	defer sub.Unsubscribe()

	source.AddTag("outsider", "Enemy")
	source.AddTag("child", "Enemy")
	source.AddTag("grandchild", "Enemy")
	source.AddTag("zone", "Enemy") // the scope itself is not a descendant

	assert.Equal(t, []domain.Entity{"child", "grandchild"}, added.snapshot())
}

func TestSubscribeIntoCollection(t *testing.T) {
	source := memory.NewSource()
	source.AddTag("pre", "Enemy")

	c := observer.NewCollection()
	sub := observer.SubscribeIntoCollection(source, "Enemy", nil, c)
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool {
		return c.Len() == 1
	}, time.Second, 5*time.Millisecond)

	source.AddTag("live", "Enemy")
	assert.Equal(t, []domain.Entity{"pre", "live"}, c.Items())

	source.RemoveTag("pre", "Enemy")
	assert.Equal(t, []domain.Entity{"live"}, c.Items())
}

func TestCollection_RemoveFirstOnlyRemovesOneOccurrence(t *testing.T) {
	c := observer.NewCollection()
	c.Append("a")
	c.Append("b")
	c.Append("a")

	c.RemoveFirst("a")

	assert.Equal(t, []domain.Entity{"b", "a"}, c.Items())

	c.RemoveFirst("missing")
	assert.Equal(t, []domain.Entity{"b", "a"}, c.Items())
}
