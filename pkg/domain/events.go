package domain

// LifecycleHooks defines callbacks for registry observability.
// All hooks are optional and run synchronously on the registry's
// processing path; implementations should return quickly.
type LifecycleHooks struct {
	// OnApply fires after an object is successfully constructed and
	// recorded for an entity.
	OnApply func(e Entity, obj any)

	// OnRevoke fires after an entity's entry is fully removed.
	OnRevoke func(e Entity)

	// OnApplyFailed fires when construction fails or no class resolves.
	OnApplyFailed func(e Entity, err error)

	// OnHookError fires when an Init/Destroy/Startup hook or a Call
	// method fails; the failure is already contained at that point.
	OnHookError func(e Entity, hook string, err error)
}

// Merge layers other over h: for each hook both sides define, both run,
// h's first. Used to stack observability sinks (e.g. metrics) on top of
// caller-supplied hooks.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnApply:       mergeHook2(h.OnApply, other.OnApply),
		OnRevoke:      mergeHook1(h.OnRevoke, other.OnRevoke),
		OnApplyFailed: mergeErrHook(h.OnApplyFailed, other.OnApplyFailed),
		OnHookError:   mergeHookErr(h.OnHookError, other.OnHookError),
	}
}

func mergeHook1(a, b func(Entity)) func(Entity) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(e Entity) { a(e); b(e) }
}

func mergeHook2(a, b func(Entity, any)) func(Entity, any) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(e Entity, obj any) { a(e, obj); b(e, obj) }
}

func mergeErrHook(a, b func(Entity, error)) func(Entity, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(e Entity, err error) { a(e, err); b(e, err) }
}

func mergeHookErr(a, b func(Entity, string, error)) func(Entity, string, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(e Entity, hook string, err error) { a(e, hook, err); b(e, hook, err) }
}
