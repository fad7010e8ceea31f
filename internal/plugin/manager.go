package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/MLGBJDLW/vellum/internal/plugin/agent"
	"github.com/MLGBJDLW/vellum/internal/plugin/command"
	"github.com/MLGBJDLW/vellum/internal/plugin/discovery"
	"github.com/MLGBJDLW/vellum/internal/plugin/hooks"
	plugpath "github.com/MLGBJDLW/vellum/internal/plugin/path"
	"github.com/MLGBJDLW/vellum/internal/plugin/trust"
)

// ManagerOptions configures a Manager at construction time. Every field has
// a documented default, per SPEC_FULL.md's "Dynamic duck-typed config
// objects" redesign: no field here is ever a bare map[string]any.
type ManagerOptions struct {
	// Search controls which directories discovery scans and the variables
	// available for path expansion.
	Search plugpath.Options
	// EagerLoad, when true, runs L2 for every discovered plugin during
	// Initialize. When false, L2 only runs via LoadPlugin.
	EagerLoad bool
	// AutoTrust promotes every discovered plugin to trust.LevelTrusted on
	// Initialize, for test/dev convenience (spec.md §4.8).
	AutoTrust bool
	// TrustStorePath overrides the trust store file location. Defaults to
	// trust.DefaultTrustStorePath(Search.Context.UserDir).
	TrustStorePath string
	// Prompter answers "ask"-level trust decisions interactively. A nil
	// Prompter denies every "ask" plugin (trust.DefaultBridge's own default).
	Prompter trust.InteractivePrompter
}

// Manager aggregates path resolution, discovery, loading, the command/agent
// registries, and the hook executor into the single host-facing API
// described in spec.md §4.9 and §6. It owns all loaded plugin records and
// the trust store handle exclusively; callers only ever see snapshots.
type Manager struct {
	mu       sync.RWMutex
	records  map[string]*Record // live: participates in command/agent/hook registries
	disabled map[string]*Record // unloaded but retained for load_plugin without rediscovery
	order    []string           // live records, in registration order (first-registered wins name collisions)
	failures map[string]FailureRecord

	trustStore *trust.Store
	bridge     *trust.DefaultBridge
	executor   *hooks.Executor
	pathCtx    plugpath.Context
	opts       ManagerOptions

	cancelMu    sync.Mutex
	cancelFuncs map[string]context.CancelFunc
}

// NewManager constructs a Manager, loading (but not yet discovering or
// loading plugins for) the trust store at opts.TrustStorePath.
func NewManager(opts ManagerOptions) *Manager {
	storePath := opts.TrustStorePath
	if storePath == "" {
		storePath = trust.DefaultTrustStorePath(opts.Search.Context.UserDir)
	}
	store := trust.NewStore(storePath)
	store.Load()

	return &Manager{
		records:     map[string]*Record{},
		disabled:    map[string]*Record{},
		failures:    map[string]FailureRecord{},
		trustStore:  store,
		bridge:      trust.NewDefaultBridge(store, opts.Prompter),
		executor:    hooks.NewExecutor(),
		pathCtx:     opts.Search.Context,
		opts:        opts,
		cancelFuncs: map[string]context.CancelFunc{},
	}
}

// Initialize runs the full init sequence from spec.md §4.9: resolve search
// paths, discover plugins, run L1 for every discovery (recording failures
// instead of aborting), optionally run L2 eagerly, then persist the trust
// store (applying auto-trust first, if configured).
//
// Discovered plugins are processed in name order so that collision
// resolution (and hence which plugin keeps a contested bare command name)
// is deterministic, matching spec.md §8 scenario 1's "sort by name so a
// wins" convention.
func (m *Manager) Initialize() error {
	searchOpts := m.opts.Search
	// discovery.Discover maps a search path's positional index directly to
	// its Source tier (Project, User, Global, Builtin); a missing directory
	// must still occupy its slot; otherwise every tier behind it shifts up
	// and gets mislabeled.
	searchOpts.IncludeMissing = true
	paths, err := plugpath.SearchPaths(searchOpts)
	if err != nil {
		return fmt.Errorf("resolve search paths: %w", err)
	}

	discovered := discovery.Discover(paths)
	sort.Slice(discovered, func(i, j int) bool { return discovered[i].Name < discovered[j].Name })

	m.mu.Lock()
	for _, d := range discovered {
		rec, err := LoadL1(d)
		if err != nil {
			m.failures[d.Name] = FailureRecord{Name: d.Name, Path: d.RootDir, Error: err.Error(), FailedAt: time.Now()}
			continue
		}

		if m.opts.EagerLoad {
			for _, warn := range LoadL2(rec, m.pathCtx) {
				slog.Warn("plugin component failed to load", slog.String("pluginName", d.Name), slog.Any("error", warn))
			}
		}

		m.records[d.Name] = rec
		m.order = append(m.order, d.Name)
	}

	if m.opts.AutoTrust {
		names := make([]string, 0, len(m.records))
		for name := range m.records {
			names = append(names, name)
		}
		m.trustStore.AutoTrustAll(names)
	}
	m.mu.Unlock()

	if err := m.trustStore.Save(); err != nil {
		return &TrustStoreError{Path: m.trustStore.Path(), Message: "failed to persist trust store after initialize", Cause: err}
	}
	return nil
}

// GetPlugins returns every successfully loaded (L1-or-beyond) plugin
// record, in registration order.
func (m *Manager) GetPlugins() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Record, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.records[name])
	}
	return out
}

// GetFailedPlugins returns every plugin that failed to load, in no
// particular order.
func (m *Manager) GetFailedPlugins() []FailureRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailureRecord, 0, len(m.failures))
	for _, f := range m.failures {
		out = append(out, f)
	}
	return out
}

// GetPlugin returns the live record for name, if any.
func (m *Manager) GetPlugin(name string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[name]
	return rec, ok
}

// GetCommands returns the merged, namespace-resolved command registry: every
// loaded plugin's parsed commands, adapted to SlashCommand and collision
// resolved in registration order (spec.md §4.4, §8 "Name uniqueness").
func (m *Manager) GetCommands() map[string]command.SlashCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := map[string]command.SlashCommand{}
	existing := map[string]bool{}
	for _, name := range m.order {
		rec := m.records[name]
		for _, pc := range rec.Commands {
			sc := command.Adapt(pc, name, existing)
			existing[sc.Name] = true
			out[sc.Name] = sc
		}
	}
	return out
}

// GetAgents returns the merged agent registry, keyed by slug and collision
// resolved the same way GetCommands resolves command names.
func (m *Manager) GetAgents() map[string]agent.ParsedAgent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := map[string]agent.ParsedAgent{}
	existing := map[string]bool{}
	for _, name := range m.order {
		rec := m.records[name]
		for _, a := range rec.Agents {
			slug := a.Slug
			if existing[slug] {
				slug = name + ":" + a.Slug
			}
			existing[slug] = true
			out[slug] = a
		}
	}
	return out
}

// LoadPlugin forces L2 for name: a plugin already holding a live L1 record,
// or one previously unloaded via UnloadPlugin. Success clears any prior
// failure record for name, per spec.md §4.3's "success removes the failure
// record." A plugin whose L1 load failed has no record and is reported as
// not found.
func (m *Manager) LoadPlugin(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[name]
	if !ok {
		rec, ok = m.disabled[name]
		if !ok {
			return fmt.Errorf("plugin %q not found", name)
		}
		delete(m.disabled, name)
	}

	rec.Commands, rec.Agents, rec.HookRules = nil, nil, nil
	for _, warn := range LoadL2(rec, m.pathCtx) {
		slog.Warn("plugin component failed to load", slog.String("pluginName", name), slog.Any("error", warn))
	}

	if err := runLifecycleHook(rec, lifecycleUpdate); err != nil {
		slog.Warn("plugin lifecycle hook failed", slog.String("pluginName", name), slog.String("event", lifecycleUpdate), slog.Any("error", err))
	}

	m.records[name] = rec
	if !containsString(m.order, name) {
		m.order = append(m.order, name)
	}
	delete(m.failures, name)
	return nil
}

// UnloadPlugin drops name from the live command/agent/hook registries. The
// record is retained internally so a later LoadPlugin call doesn't need a
// fresh discovery pass.
func (m *Manager) UnloadPlugin(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[name]
	if !ok {
		return fmt.Errorf("plugin %q not loaded", name)
	}

	if err := runLifecycleHook(rec, lifecycleRemove); err != nil {
		slog.Warn("plugin lifecycle hook failed", slog.String("pluginName", name), slog.String("event", lifecycleRemove), slog.Any("error", err))
	}

	rec.State = StateDisabled
	delete(m.records, name)
	m.order = removeString(m.order, name)
	m.disabled[name] = rec
	return nil
}

// ExecuteHooks runs every loaded plugin's matching hook rules for event
// against input, through the manager's permission bridge. The call is
// cancellable via ctx and participates in CancelAll.
func (m *Manager) ExecuteHooks(ctx context.Context, event hooks.Event, input any) hooks.ExecutionResult {
	m.mu.RLock()
	var rules []hooks.Rule
	for _, name := range m.order {
		rules = append(rules, m.records[name].HookRules...)
	}
	m.mu.RUnlock()

	runCtx, cancel := context.WithCancel(ctx)
	id := m.trackCancel(cancel)
	defer m.untrackCancel(id)

	return m.executor.Execute(runCtx, event, hooks.ExecContext{Input: input, PermissionBridge: m.bridge}, rules)
}

// CancelAll cancels every in-flight ExecuteHooks call, for use on shutdown.
func (m *Manager) CancelAll() {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	for _, cancel := range m.cancelFuncs {
		cancel()
	}
	m.cancelFuncs = map[string]context.CancelFunc{}
}

func (m *Manager) trackCancel(cancel context.CancelFunc) int {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	id := len(m.cancelFuncs)
	for {
		if _, taken := m.cancelFuncs[fmt.Sprint(id)]; !taken {
			break
		}
		id++
	}
	m.cancelFuncs[fmt.Sprint(id)] = cancel
	return id
}

func (m *Manager) untrackCancel(id int) {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	delete(m.cancelFuncs, fmt.Sprint(id))
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(ss []string, s string) []string {
	out := ss[:0]
	for _, v := range ss {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
