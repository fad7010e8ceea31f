package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MLGBJDLW/vellum/internal/plugin/discovery"
	plugpath "github.com/MLGBJDLW/vellum/internal/plugin/path"
)

// writePlugin creates a minimal valid plugin bundle under root/name and
// returns its discovery.Plugin.
func writePlugin(t *testing.T, root, name, manifestJSON string) discovery.Plugin {
	t.Helper()
	pluginDir := filepath.Join(root, name)
	bundleDir := filepath.Join(pluginDir, discovery.ManifestDir)
	require.NoError(t, os.MkdirAll(bundleDir, 0o755))
	manifestPath := filepath.Join(bundleDir, discovery.ManifestFile)
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifestJSON), 0o644))
	return discovery.Plugin{Name: name, RootDir: pluginDir, ManifestPath: manifestPath, Source: plugpath.Project}
}

func validManifestJSON() string {
	return `{
		"name": "acme",
		"version": "1.0.0",
		"display_name": "Acme",
		"description": "An acme plugin"
	}`
}

func TestLoadL1Success(t *testing.T) {
	d := writePlugin(t, t.TempDir(), "acme", validManifestJSON())
	rec, err := LoadL1(d)
	require.NoError(t, err)
	assert.Equal(t, StateManifestLoaded, rec.State)
	assert.Equal(t, "acme", rec.Manifest.Name)
}

func TestLoadL1MissingManifest(t *testing.T) {
	d := discovery.Plugin{Name: "ghost", RootDir: "/nonexistent", ManifestPath: "/nonexistent/.vellum-plugin/plugin.json"}
	_, err := LoadL1(d)
	require.Error(t, err)
	var loadErr *PluginLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, LoadStageManifestRead, loadErr.Message)
}

func TestLoadL1MalformedJSON(t *testing.T) {
	d := writePlugin(t, t.TempDir(), "broken", `{"name": "broken", not json`)
	_, err := LoadL1(d)
	require.Error(t, err)
	var loadErr *PluginLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, LoadStageManifestJSON, loadErr.Message)
}

func TestLoadL1SchemaViolation(t *testing.T) {
	d := writePlugin(t, t.TempDir(), "incomplete", `{"name": "incomplete"}`)
	_, err := LoadL1(d)
	require.Error(t, err)
	var loadErr *PluginLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, LoadStageManifestSchema, loadErr.Message)
}

func TestLoadL2DefaultDirectories(t *testing.T) {
	root := t.TempDir()
	d := writePlugin(t, root, "acme", validManifestJSON())

	commandsDir := filepath.Join(d.RootDir, discovery.ManifestDir, "commands")
	require.NoError(t, os.MkdirAll(commandsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(commandsDir, "deploy.md"), []byte("---\nname: deploy\n---\ndo the thing\n"), 0o644))

	agentsDir := filepath.Join(d.RootDir, discovery.ManifestDir, "agents")
	require.NoError(t, os.MkdirAll(agentsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(agentsDir, "reviewer.md"), []byte("reviewer prompt\n"), 0o644))

	rec, err := LoadL1(d)
	require.NoError(t, err)
	warnings := LoadL2(rec, plugpath.Context{})
	assert.Empty(t, warnings)
	assert.Equal(t, StateEnabled, rec.State)
	require.Len(t, rec.Commands, 1)
	assert.Equal(t, "deploy", rec.Commands[0].Name)
	require.Len(t, rec.Agents, 1)
	assert.Equal(t, "reviewer", rec.Agents[0].Slug)
}

func TestLoadL2MissingExplicitComponentIsWarningNotFatal(t *testing.T) {
	root := t.TempDir()
	d := writePlugin(t, root, "acme", `{
		"name": "acme",
		"version": "1.0.0",
		"display_name": "Acme",
		"description": "desc",
		"commands": ["does-not-exist.md"]
	}`)

	rec, err := LoadL1(d)
	require.NoError(t, err)
	warnings := LoadL2(rec, plugpath.Context{})
	require.Len(t, warnings, 1)
	assert.Equal(t, StateEnabled, rec.State)
	assert.Empty(t, rec.Commands)
}

func TestLoadL2InlineHooks(t *testing.T) {
	root := t.TempDir()
	d := writePlugin(t, root, "acme", `{
		"name": "acme",
		"version": "1.0.0",
		"display_name": "Acme",
		"description": "desc",
		"hooks": [{"event":"SessionStart","action":{"kind":"prompt","content":"hi"}}]
	}`)

	rec, err := LoadL1(d)
	require.NoError(t, err)
	warnings := LoadL2(rec, plugpath.Context{})
	assert.Empty(t, warnings)
	require.Len(t, rec.HookRules, 1)
	assert.Equal(t, "acme", rec.HookRules[0].PluginName)
}

func TestLoadL2DefaultHooksFile(t *testing.T) {
	root := t.TempDir()
	d := writePlugin(t, root, "acme", validManifestJSON())
	hooksPath := filepath.Join(d.RootDir, discovery.ManifestDir, "hooks.json")
	require.NoError(t, os.WriteFile(hooksPath, []byte(`[{"event":"SessionEnd","action":{"kind":"prompt","content":"bye"}}]`), 0o644))

	rec, err := LoadL1(d)
	require.NoError(t, err)
	warnings := LoadL2(rec, plugpath.Context{})
	assert.Empty(t, warnings)
	require.Len(t, rec.HookRules, 1)
}

func TestLoadL2MalformedHooksIsWarningOnlyForHooks(t *testing.T) {
	root := t.TempDir()
	d := writePlugin(t, root, "acme", `{
		"name": "acme",
		"version": "1.0.0",
		"display_name": "Acme",
		"description": "desc",
		"hooks": [{"event":"NoSuchEvent","action":{"kind":"prompt","content":"x"}}]
	}`)
	commandsDir := filepath.Join(d.RootDir, discovery.ManifestDir, "commands")
	require.NoError(t, os.MkdirAll(commandsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(commandsDir, "ok.md"), []byte("body"), 0o644))

	rec, err := LoadL1(d)
	require.NoError(t, err)
	warnings := LoadL2(rec, plugpath.Context{})
	require.Len(t, warnings, 1)
	assert.Empty(t, rec.HookRules)
	assert.Len(t, rec.Commands, 1) // commands still load despite the hooks failure
}
