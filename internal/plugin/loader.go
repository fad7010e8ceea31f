package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"go.yaml.in/yaml/v3"

	"github.com/MLGBJDLW/vellum/internal/plugin/agent"
	"github.com/MLGBJDLW/vellum/internal/plugin/command"
	"github.com/MLGBJDLW/vellum/internal/plugin/discovery"
	"github.com/MLGBJDLW/vellum/internal/plugin/hooks"
	plugpath "github.com/MLGBJDLW/vellum/internal/plugin/path"
)

// PluginState is a per-plugin lifecycle tag (spec.md §3).
type PluginState string

const (
	StateDiscovered     PluginState = "discovered"
	StateManifestLoaded PluginState = "manifest_loaded"
	StateFullyLoaded    PluginState = "fully_loaded"
	StateEnabled        PluginState = "enabled"
	StateDisabled       PluginState = "disabled"
	StateFailed         PluginState = "failed"
)

// FailureRecord is kept for every plugin whose load failed, so operators can
// diagnose it without losing track that it exists on disk.
type FailureRecord struct {
	Name     string
	Path     string
	Error    string
	FailedAt time.Time
}

// Record is a plugin's full in-memory state, from L1 manifest through L2
// component parsing.
type Record struct {
	Discovered discovery.Plugin
	Manifest   PluginManifest
	State      PluginState
	Commands   []command.ParsedCommand
	Agents     []agent.ParsedAgent
	HookRules  []hooks.Rule
}

// hooksFileName is the default hooks config filename inside a plugin's
// bundle directory, used when the manifest's "hooks" field is absent.
const hooksFileName = "hooks.json"

// LoadL1 reads and validates a discovered plugin's manifest only. It never
// reads commands, agents, or hooks — see LoadL2. The manifest decoder is
// go.yaml.in/yaml/v3, which accepts plugin.json as well-formed JSON (a
// syntactic subset of YAML), matching the decision recorded in
// SPEC_FULL.md's Open Questions.
func LoadL1(d discovery.Plugin) (*Record, error) {
	data, err := os.ReadFile(d.ManifestPath)
	if err != nil {
		return nil, &PluginLoadError{
			PluginName: d.Name, PluginRoot: d.RootDir,
			Message: LoadStageManifestRead, Cause: err,
		}
	}

	var m PluginManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &PluginLoadError{
			PluginName: d.Name, PluginRoot: d.RootDir,
			Message: LoadStageManifestJSON, Cause: err,
		}
	}

	if err := m.Validate(); err != nil {
		return nil, &PluginLoadError{
			PluginName: d.Name, PluginRoot: d.RootDir,
			Message: LoadStageManifestSchema, Cause: err,
		}
	}

	return &Record{Discovered: d, Manifest: m, State: StateManifestLoaded}, nil
}

// LoadL2 resolves and parses a manifest-loaded plugin's commands, agents,
// and hooks, mutating rec in place. A missing referenced file is recorded as
// a warning in the returned slice and skipped, never fatal — only a malformed
// hooks config aborts hook loading specifically, per spec.md §4.3/§7. rec.State
// becomes StateEnabled on return regardless of warnings, since partial
// component loss is expected, recoverable behavior.
func LoadL2(rec *Record, pathCtx plugpath.Context) []error {
	var warnings []error
	root := rec.Discovered.RootDir
	bundleDir := filepath.Join(root, discovery.ManifestDir)

	for _, p := range resolveComponentPaths(root, bundleDir, "commands", rec.Manifest.Commands, pathCtx) {
		data, err := os.ReadFile(p)
		if err != nil {
			warnings = append(warnings, componentReadError(rec, p, err))
			continue
		}
		rec.Commands = append(rec.Commands, command.Parse(p, data))
	}

	for _, p := range resolveComponentPaths(root, bundleDir, "agents", rec.Manifest.Agents, pathCtx) {
		data, err := os.ReadFile(p)
		if err != nil {
			warnings = append(warnings, componentReadError(rec, p, err))
			continue
		}
		rec.Agents = append(rec.Agents, agent.Parse(p, data))
	}

	if rules, warn := loadHooks(rec, root, bundleDir, pathCtx); warn != nil {
		warnings = append(warnings, warn)
	} else {
		rec.HookRules = rules
	}

	rec.State = StateEnabled
	return warnings
}

func componentReadError(rec *Record, path string, cause error) error {
	return &PluginLoadError{
		PluginName: rec.Discovered.Name,
		PluginRoot: rec.Discovered.RootDir,
		Message:    LoadStageComponentRead,
		Cause:      cause,
		Details:    map[string]any{"path": path},
	}
}

// resolveComponentPaths returns the markdown files to parse for a component
// kind ("commands" or "agents"): the manifest's explicit list when present
// (each entry path-variable expanded and securejoin'd against the plugin
// root), else every "*.md" file directly inside "<bundleDir>/<kind>" when
// the manifest is silent about it.
func resolveComponentPaths(root, bundleDir, kind string, explicit []string, pathCtx plugpath.Context) []string {
	if len(explicit) > 0 {
		out := make([]string, 0, len(explicit))
		for _, rel := range explicit {
			expanded := plugpath.Expand(rel, pathCtx)
			full, err := securejoin.SecureJoin(root, expanded)
			if err != nil {
				continue
			}
			out = append(out, full)
		}
		return out
	}

	dir := filepath.Join(bundleDir, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out
}

// loadHooks resolves the manifest's "hooks" field — absent (check the
// default hooks.json), an inline array, or a string path — into parsed
// rules. A malformed hooks config is returned as a warning (aborting hook
// loading for this plugin only); commands and agents are unaffected.
func loadHooks(rec *Record, root, bundleDir string, pathCtx plugpath.Context) ([]hooks.Rule, error) {
	var raw []byte
	var sourcePath string

	switch v := rec.Manifest.Hooks.(type) {
	case nil:
		sourcePath = filepath.Join(bundleDir, hooksFileName)
		data, err := os.ReadFile(sourcePath)
		if err != nil {
			return nil, nil // no hooks declared and no default file: not an error
		}
		raw = data
	case string:
		expanded := plugpath.Expand(v, pathCtx)
		full, err := securejoin.SecureJoin(root, expanded)
		if err != nil {
			return nil, componentReadError(rec, v, err)
		}
		sourcePath = full
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, componentReadError(rec, full, err)
		}
		raw = data
	default:
		sourcePath = filepath.Join(bundleDir, hooksFileName)
		data, err := json.Marshal(v)
		if err != nil {
			return nil, &HooksParseError{FilePath: sourcePath, Message: "failed to re-encode inline hooks: " + err.Error()}
		}
		raw = data
	}

	rules, err := hooks.ParseRules(sourcePath, raw, hooks.ParseOptions{PluginName: rec.Discovered.Name, PluginRoot: root, PathCtx: pathCtx})
	if err != nil {
		return nil, &HooksParseError{FilePath: sourcePath, Message: err.Error()}
	}
	return rules, nil
}
