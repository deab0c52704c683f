package scope_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/aretw0/tether/pkg/scope"
)

type countingResource struct {
	releases int
}

func (c *countingResource) Release() { c.releases++ }

func TestScope_ReleasesInReverseOrder(t *testing.T) {
	s := scope.New()

	var order []string
	s.AddFunc(func() { order = append(order, "first") })
	s.AddFunc(func() { order = append(order, "second") })
	s.AddFunc(func() { order = append(order, "third") })

	s.Destroy()

	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestScope_DestroyIsIdempotent(t *testing.T) {
	s := scope.New()
	res := &countingResource{}
	s.Add(res)

	s.Destroy()
	s.Destroy()

	assert.Equal(t, 1, res.releases, "resource must be released exactly once")
	assert.True(t, s.Destroyed())
}

func TestScope_PanickingMemberDoesNotBlockOthers(t *testing.T) {
	s := scope.New()
	first := &countingResource{}
	last := &countingResource{}

	s.Add(first)
	s.AddFunc(func() { panic("misbehaving resource") })
	s.Add(last)

	assert.NotPanics(t, func() { s.Destroy() })
	assert.Equal(t, 1, first.releases)
	assert.Equal(t, 1, last.releases)
}

func TestScope_AddAfterDestroyReleasesImmediately(t *testing.T) {
	s := scope.New()
	s.Destroy()

	res := &countingResource{}
	s.Add(res)

	assert.Equal(t, 1, res.releases, "late registration must not leak")
	assert.Equal(t, 0, s.Size())
}

func TestScope_Nesting(t *testing.T) {
	outer := scope.New()
	inner := scope.New()
	res := &countingResource{}
	inner.Add(res)
	outer.Add(inner)

	outer.Destroy()

	assert.True(t, inner.Destroyed())
	assert.Equal(t, 1, res.releases)
}

func TestScope_AddTimer(t *testing.T) {
	s := scope.New()
	fired := make(chan struct{}, 1)
	timer := time.AfterFunc(50*time.Millisecond, func() { fired <- struct{}{} })
	s.AddTimer(timer)

	s.Destroy()

	select {
	case <-fired:
		t.Fatal("timer should have been stopped on destroy")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScope_NilResourcesIgnored(t *testing.T) {
	s := scope.New()
	s.Add(nil)
	s.AddFunc(nil)
	s.AddCloser(nil)
	s.AddTimer(nil)

	assert.Equal(t, 0, s.Size())
	assert.NotPanics(t, func() { s.Destroy() })
}

// Every registered resource is released exactly once in total, no
// matter how many resources are added or how often Destroy is called.
func TestScope_ReleaseExactlyOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := scope.New()

		n := rapid.IntRange(0, 32).Draw(t, "resources")
		resources := make([]*countingResource, n)
		for i := range resources {
			resources[i] = &countingResource{}
			s.Add(resources[i])
		}

		destroys := rapid.IntRange(1, 3).Draw(t, "destroys")
		for i := 0; i < destroys; i++ {
			s.Destroy()
		}

		for i, res := range resources {
			if res.releases != 1 {
				t.Fatalf("resource %d released %d times", i, res.releases)
			}
		}
	})
}
