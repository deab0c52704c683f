package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tether/internal/runtime"
	"github.com/aretw0/tether/pkg/adapters/memory"
	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/scope"
)

func TestMetrics_CountLifecycleEvents(t *testing.T) {
	promReg := prometheus.NewRegistry()
	metrics := NewMetrics(promReg, "Enemy")

	source := memory.NewSource()
	class := &domain.Class{
		Name: "Enemy",
		Construct: func(e domain.Entity, sc *scope.Scope, guid string) (any, error) {
			if e == "broken" {
				return nil, errors.New("bad mold")
			}
			return struct{}{}, nil
		},
	}

	reg, err := runtime.NewRegistry(class, "Enemy", source,
		runtime.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)

	source.AddTag("A", "Enemy")
	source.AddTag("B", "Enemy")
	source.AddTag("broken", "Enemy")
	source.RemoveTag("A", "Enemy")

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.applies))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.revokes))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.applyFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.live))

	reg.Destroy()
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.live))
}

func TestMetrics_HookFailuresLabeledByHook(t *testing.T) {
	promReg := prometheus.NewRegistry()
	metrics := NewMetrics(promReg, "Enemy")

	source := memory.NewSource()
	class := &domain.Class{
		Name: "Enemy",
		Construct: func(e domain.Entity, sc *scope.Scope, guid string) (any, error) {
			return struct{}{}, nil
		},
		Init: func(obj any) error {
			return errors.New("warmup failed")
		},
	}

	reg, err := runtime.NewRegistry(class, "Enemy", source,
		runtime.WithLifecycleHooks(metrics.Hooks()))
	require.NoError(t, err)
	defer reg.Destroy()

	source.AddTag("A", "Enemy")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.hookFailures.WithLabelValues("Init")))
}

func TestMetrics_MergeWithUserHooks(t *testing.T) {
	promReg := prometheus.NewRegistry()
	metrics := NewMetrics(promReg, "Enemy")

	var userApplies int
	hooks := domain.LifecycleHooks{
		OnApply: func(e domain.Entity, obj any) { userApplies++ },
	}.Merge(metrics.Hooks())

	source := memory.NewSource()
	class := &domain.Class{
		Name: "Enemy",
		Construct: func(e domain.Entity, sc *scope.Scope, guid string) (any, error) {
			return struct{}{}, nil
		},
	}

	reg, err := runtime.NewRegistry(class, "Enemy", source,
		runtime.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	defer reg.Destroy()

	source.AddTag("A", "Enemy")

	assert.Equal(t, 1, userApplies, "both hook layers must fire")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.applies))
}
