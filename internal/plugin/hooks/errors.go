package hooks

import "fmt"

// HookExecutionErrorCode enumerates the runtime error codes a hook execution
// can raise, per spec.md §7.
type HookExecutionErrorCode int

const (
	HookTimeout           HookExecutionErrorCode = 7001
	HookExecutionFailed   HookExecutionErrorCode = 7002
	HookPermissionDenied  HookExecutionErrorCode = 7003
	HookUnsupportedAction HookExecutionErrorCode = 7004
	HookAborted           HookExecutionErrorCode = 7005
)

// HookExecutionError is raised during hook execution. Every instance carries
// the hook name and triggering event so the executor's error-handling policy
// (fail-open vs. fail-closed) can log a useful message even when it decides
// to swallow the error and continue.
type HookExecutionError struct {
	Code     HookExecutionErrorCode
	HookName string
	Event    string
	Message  string
	Context  map[string]any
	Cause    error
}

func (e *HookExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("hook %q (%s): %s: %v", e.HookName, e.Event, e.Message, e.Cause)
	}
	return fmt.Sprintf("hook %q (%s): %s", e.HookName, e.Event, e.Message)
}

func (e *HookExecutionError) Unwrap() error { return e.Cause }
