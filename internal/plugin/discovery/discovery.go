// Package discovery scans plugin search-path roots for ".vellum-plugin"
// bundles and produces a deduplicated, priority-ordered list of discovered
// plugins. Discovery never fails on missing directories or permission
// errors: callers get fewer results, not an error.
package discovery

import (
	"os"
	"path/filepath"

	plugpath "github.com/MLGBJDLW/vellum/internal/plugin/path"
)

// ManifestDir is the fixed subdirectory name every plugin bundle carries.
const ManifestDir = ".vellum-plugin"

// ManifestFile is the manifest filename inside ManifestDir.
const ManifestFile = "plugin.json"

// Plugin describes a plugin bundle found on disk, before anything about its
// contents has been parsed.
type Plugin struct {
	Name         string
	RootDir      string
	ManifestPath string
	Source       plugpath.Source
}

// Discover scans each directory in searchPaths, in order, for immediate child
// directories containing "<child>/.vellum-plugin/plugin.json". The tier
// assigned to a match is the positional index of its search path within
// searchPaths (0 -> Project, 1 -> User, 2 -> Global, 3 -> Builtin, matching
// plugpath.SearchPaths' own ordering) — discovery does not otherwise care
// where the caller's paths came from.
//
// Plugins are deduplicated by name: when two search paths contribute a
// plugin with the same name, the one from the lower-ordinal (higher
// priority) tier wins. Ties are broken by the order searchPaths was given
// in, since a lower index always produces a lower (or equal) tier.
func Discover(searchPaths []string) []Plugin {
	var found []Plugin

	for idx, root := range searchPaths {
		source := plugpath.Source(idx)
		if idx > int(plugpath.Builtin) {
			// Callers may pass more roots than the four well-known tiers;
			// anything past Builtin is still scanned but keeps Builtin's
			// (lowest) priority rather than inventing a new one.
			source = plugpath.Builtin
		}
		found = append(found, discoverRoot(root, source)...)
	}

	return dedupe(found)
}

func discoverRoot(root string, source plugpath.Source) []Plugin {
	entries, err := os.ReadDir(root)
	if err != nil {
		// Missing directory or permission error: yield nothing, never raise.
		return nil
	}

	var out []Plugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		childDir := filepath.Join(root, entry.Name())
		manifestPath := filepath.Join(childDir, ManifestDir, ManifestFile)
		if info, err := os.Stat(manifestPath); err != nil || info.IsDir() {
			continue
		}
		out = append(out, Plugin{
			Name:         entry.Name(),
			RootDir:      childDir,
			ManifestPath: manifestPath,
			Source:       source,
		})
	}
	return out
}

// dedupe groups by Name and keeps the entry with the highest-priority
// (lowest ordinal) Source. Among equal-priority duplicates the first one
// encountered is kept, so callers get a deterministic result for a fixed
// input order.
func dedupe(in []Plugin) []Plugin {
	best := make(map[string]Plugin, len(in))
	order := make([]string, 0, len(in))

	for _, p := range in {
		existing, ok := best[p.Name]
		if !ok {
			best[p.Name] = p
			order = append(order, p.Name)
			continue
		}
		if p.Source < existing.Source {
			best[p.Name] = p
		}
	}

	out := make([]Plugin, 0, len(order))
	for _, name := range order {
		out = append(out, best[name])
	}
	return out
}
