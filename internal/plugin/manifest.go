// Package plugin implements the vellum plugin subsystem: discovery, the
// two-stage (manifest-only vs. full) loader, the plugin manager, and the
// data types shared by the command/agent/hooks sub-packages.
package plugin

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ManifestFileName is the manifest filename inside a plugin's
// ".vellum-plugin" directory.
const ManifestFileName = "plugin.json"

// PluginManifest is the decoded contents of plugin.json. All relative paths
// inside it are manifest-relative and are subject to path-variable expansion
// and a securejoin against the plugin root before use.
type PluginManifest struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Description string `json:"description" yaml:"description"`

	Entrypoint string   `json:"entrypoint,omitempty" yaml:"entrypoint,omitempty"`
	Commands   []string `json:"commands,omitempty" yaml:"commands,omitempty"`
	Agents     []string `json:"agents,omitempty" yaml:"agents,omitempty"`

	// Hooks is either an inline array of hook rule objects or a string path
	// to a hooks.json file, relative to the plugin root. Decoded lazily by
	// the loader because its shape depends on which variant was supplied.
	Hooks any `json:"hooks,omitempty" yaml:"hooks,omitempty"`

	// LifecycleHooks names plugin-management event hooks (install, update,
	// remove), fired by the manager rather than the agent-loop executor. See
	// SPEC_FULL.md "Supplemented features" #1.
	LifecycleHooks map[string]string `json:"lifecycle_hooks,omitempty" yaml:"lifecycle_hooks,omitempty"`
}

// Validate checks the required-field and semver invariants from spec.md §3/§6.
// It aggregates every violation instead of stopping at the first.
func (m *PluginManifest) Validate() error {
	var errs []error

	if m.Name == "" {
		errs = append(errs, fmt.Errorf("manifest: \"name\" is required"))
	}
	if m.Version == "" {
		errs = append(errs, fmt.Errorf("manifest: \"version\" is required"))
	} else if _, err := semver.NewVersion(m.Version); err != nil {
		errs = append(errs, fmt.Errorf("manifest: \"version\" %q is not valid semver: %w", m.Version, err))
	}
	if m.DisplayName == "" {
		errs = append(errs, fmt.Errorf("manifest: \"display_name\" is required"))
	}
	if m.Description == "" {
		errs = append(errs, fmt.Errorf("manifest: \"description\" is required"))
	}

	return errors.Join(errs...)
}
