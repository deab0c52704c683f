// Package safecall guards invocations of user-supplied lifecycle hooks
// and methods. A missing (nil) hook is a successful no-op; a failing or
// panicking hook is captured and reported as an error, never propagated,
// so a defect in object code cannot corrupt registry bookkeeping.
package safecall

import (
	"fmt"
	"log/slog"
)

// Invoke runs fn with failure isolation. A nil fn succeeds immediately.
// A panic inside fn is converted into an error. When logger is non-nil,
// failures are emitted as debug diagnostics naming the target and hook.
func Invoke(logger *slog.Logger, target any, name string, fn func() error) error {
	if fn == nil {
		return nil
	}
	err := run(fn)
	if err != nil && logger != nil {
		logger.Debug("hook failed",
			"target", fmt.Sprintf("%v", target),
			"hook", name,
			"err", err)
	}
	return err
}

// InvokeValue is Invoke for calls that produce a result. On failure the
// result is nil.
func InvokeValue(logger *slog.Logger, target any, name string, fn func() (any, error)) (any, error) {
	if fn == nil {
		return nil, nil
	}
	var res any
	err := run(func() error {
		var callErr error
		res, callErr = fn()
		return callErr
	})
	if err != nil {
		if logger != nil {
			logger.Debug("call failed",
				"target", fmt.Sprintf("%v", target),
				"method", name,
				"err", err)
		}
		return nil, err
	}
	return res, nil
}

func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
