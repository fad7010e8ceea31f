// Package plugin is the public API surface a host process imports to run
// the vellum plugin subsystem: discovery, loading, the merged command/agent
// registries, and lifecycle hook execution. It is a thin facade over
// internal/plugin — every method here forwards directly to a *plugin.Manager.
package plugin

import (
	"context"

	"github.com/MLGBJDLW/vellum/internal/plugin"
	"github.com/MLGBJDLW/vellum/internal/plugin/agent"
	"github.com/MLGBJDLW/vellum/internal/plugin/command"
	"github.com/MLGBJDLW/vellum/internal/plugin/hooks"
	plugpath "github.com/MLGBJDLW/vellum/internal/plugin/path"
	"github.com/MLGBJDLW/vellum/internal/plugin/trust"
)

// Re-exported so callers never need to import internal/plugin directly.
type (
	Options       = plugin.ManagerOptions
	Record        = plugin.Record
	FailureRecord = plugin.FailureRecord
	State         = plugin.PluginState
	SlashCommand  = command.SlashCommand
	ParsedAgent   = agent.ParsedAgent
	Event         = hooks.Event
	ExecutionResult = hooks.ExecutionResult
	Prompter      = trust.InteractivePrompter
	SearchOptions = plugpath.Options
)

const (
	StateDiscovered     = plugin.StateDiscovered
	StateManifestLoaded = plugin.StateManifestLoaded
	StateFullyLoaded    = plugin.StateFullyLoaded
	StateEnabled        = plugin.StateEnabled
	StateDisabled       = plugin.StateDisabled
	StateFailed         = plugin.StateFailed
)

// Host wraps a *plugin.Manager, exposing the lifecycle a host process drives:
// construct, Initialize once at startup, then query/mutate for the life of
// the process.
type Host struct {
	manager *plugin.Manager
}

// New constructs a Host. Call Initialize before using any other method.
func New(opts Options) *Host {
	return &Host{manager: plugin.NewManager(opts)}
}

// Initialize resolves search paths, discovers plugins, loads every
// manifest, and (if opts.EagerLoad was set) fully loads every plugin's
// commands, agents, and hooks.
func (h *Host) Initialize() error { return h.manager.Initialize() }

// Plugins returns every plugin that at least reached manifest-loaded state,
// in registration order.
func (h *Host) Plugins() []*Record { return h.manager.GetPlugins() }

// FailedPlugins returns every plugin that failed to load.
func (h *Host) FailedPlugins() []FailureRecord { return h.manager.GetFailedPlugins() }

// Plugin looks up a single loaded plugin by name.
func (h *Host) Plugin(name string) (*Record, bool) { return h.manager.GetPlugin(name) }

// Commands returns the merged, collision-resolved slash-command registry.
func (h *Host) Commands() map[string]SlashCommand { return h.manager.GetCommands() }

// Agents returns the merged, collision-resolved agent registry.
func (h *Host) Agents() map[string]ParsedAgent { return h.manager.GetAgents() }

// Load fully loads (or reloads) a single plugin's commands, agents, and
// hooks by name.
func (h *Host) Load(name string) error { return h.manager.LoadPlugin(name) }

// Unload drops a plugin from the live command/agent/hook registries without
// forgetting it was discovered.
func (h *Host) Unload(name string) error { return h.manager.UnloadPlugin(name) }

// RunHooks executes every loaded plugin's rules matching event against
// input, honoring each rule's timeout, fail-open/fail-closed policy, and the
// trust store.
func (h *Host) RunHooks(ctx context.Context, event Event, input any) ExecutionResult {
	return h.manager.ExecuteHooks(ctx, event, input)
}

// Shutdown cancels any in-flight RunHooks calls.
func (h *Host) Shutdown() { h.manager.CancelAll() }
