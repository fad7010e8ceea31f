package plugin

import (
	"fmt"

	"github.com/MLGBJDLW/vellum/internal/plugin/hooks"
)

// PluginLoadError is returned by the L1/L2 loader for a single plugin. It is
// always recovered into a FailureRecord by the manager rather than
// propagated — initialize() never aborts because one plugin failed to load.
type PluginLoadError struct {
	PluginName string
	PluginRoot string
	Message    string
	Details    map[string]any
	Cause      error
}

func (e *PluginLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plugin %q: %s: %v", e.PluginName, e.Message, e.Cause)
	}
	return fmt.Sprintf("plugin %q: %s", e.PluginName, e.Message)
}

func (e *PluginLoadError) Unwrap() error { return e.Cause }

// Sub-kinds of PluginLoadError, distinguished by their Message prefix so
// callers (and tests) can pattern-match without a separate Kind field.
const (
	LoadStageManifestRead   = "failed to read manifest file"
	LoadStageManifestJSON   = "invalid JSON"
	LoadStageManifestSchema = "invalid manifest schema"
	LoadStageComponentRead  = "failed to read referenced component"
	LoadStagePathExpansion  = "failed to expand path"
)

// HooksParseError is returned when a plugin's hooks configuration fails to
// parse or validate. It aborts loading of that plugin's hooks only; the
// plugin's commands and agents still load.
type HooksParseError struct {
	FilePath string
	Message  string
	Details  map[string]any
}

func (e *HooksParseError) Error() string {
	return fmt.Sprintf("hooks config %q: %s", e.FilePath, e.Message)
}

// HookExecutionErrorCode and HookExecutionError live in internal/plugin/hooks
// now (the executor itself constructs them; this package only re-exports the
// names so callers that already import "plugin" don't need a second import
// for its own error types).
type (
	HookExecutionErrorCode = hooks.HookExecutionErrorCode
	HookExecutionError     = hooks.HookExecutionError
)

const (
	HookTimeout           = hooks.HookTimeout
	HookExecutionFailed   = hooks.HookExecutionFailed
	HookPermissionDenied  = hooks.HookPermissionDenied
	HookUnsupportedAction = hooks.HookUnsupportedAction
	HookAborted           = hooks.HookAborted
)

// TrustStoreError is returned for trust store read/parse/write failures.
// Per spec.md §4.8/§7, a read or parse failure is handled by the store
// itself (it collapses to an empty store); only write failures are
// surfaced to callers as a TrustStoreError.
type TrustStoreError struct {
	Path    string
	Message string
	Cause   error
}

func (e *TrustStoreError) Error() string {
	return fmt.Sprintf("trust store %q: %s: %v", e.Path, e.Message, e.Cause)
}

func (e *TrustStoreError) Unwrap() error { return e.Cause }
