// Package path computes the ordered set of directories vellum searches for
// plugins, and expands the path variables that may appear inside plugin
// configuration (manifest-relative paths, hook script paths).
package path

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// Source is a search-path tier. Lower ordinal means higher priority: a plugin
// discovered under Project shadows one of the same name discovered under User,
// User shadows Global, and Global shadows Builtin.
type Source int

const (
	Project Source = iota
	User
	Global
	Builtin
)

func (s Source) String() string {
	switch s {
	case Project:
		return "project"
	case User:
		return "user"
	case Global:
		return "global"
	case Builtin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Context carries the invocation-specific directories substituted for
// ${VELLUM_PLUGIN_ROOT}, ${VELLUM_USER_DIR}, and ${VELLUM_PROJECT_DIR} during
// expansion, and the builtin-plugins directory shipped alongside the binary.
type Context struct {
	// PluginRoot is substituted for ${VELLUM_PLUGIN_ROOT}. Falls back to
	// UserDir when empty.
	PluginRoot string
	// UserDir is substituted for ${VELLUM_USER_DIR}.
	UserDir string
	// ProjectDir is substituted for ${VELLUM_PROJECT_DIR}. Typically the
	// current working directory of the invoking process.
	ProjectDir string
	// BuiltinDir overrides the packaged-install-relative "plugins/" folder
	// used for the Builtin tier. Defaults to "plugins" next to the executable.
	BuiltinDir string
}

// Options configures SearchPaths.
type Options struct {
	Context
	// IncludeMissing, when true, keeps candidate roots that do not exist on
	// disk. Discovery treats a missing root as yielding zero plugins but
	// assigns source tiers by position, so Manager.Initialize sets this to
	// true to keep every tier in its slot.
	IncludeMissing bool
}

// SearchPaths returns, in priority order (Project, User, Global, Builtin), the
// candidate plugin root directories for this platform and context.
func SearchPaths(opts Options) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	userDir := opts.UserDir
	if userDir == "" {
		userDir = filepath.Join(home, ".vellum", "plugins")
	}

	globalDir := globalPluginDir(home)

	builtinDir := opts.BuiltinDir
	if builtinDir == "" {
		exe, err := os.Executable()
		if err == nil {
			builtinDir = filepath.Join(filepath.Dir(exe), "plugins")
		}
	}

	candidates := []string{
		opts.ProjectDir,
		userDir,
		globalDir,
		builtinDir,
	}

	if !opts.IncludeMissing {
		filtered := candidates[:0]
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if info, err := os.Stat(c); err == nil && info.IsDir() {
				filtered = append(filtered, c)
			}
		}
		return filtered, nil
	}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func globalPluginDir(home string) string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "vellum", "plugins")
		}
		return filepath.Join(home, "AppData", "Roaming", "vellum", "plugins")
	}
	return filepath.Join("/usr", "local", "share", "vellum", "plugins")
}

// varPattern matches ${NAME}, $NAME, and %NAME% (the last only meaningful on
// Windows, but recognised everywhere so configs are portable to read).
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)|%([A-Za-z_][A-Za-z0-9_]*)%`)

// specialVars are resolved against ctx rather than the OS environment.
const (
	varPluginRoot = "VELLUM_PLUGIN_ROOT"
	varUserDir    = "VELLUM_USER_DIR"
	varProjectDir = "VELLUM_PROJECT_DIR"
)

// Expand performs a single left-to-right substitution pass over raw:
//   - a leading "~" (or one immediately following a path separator) becomes
//     the user's home directory;
//   - ${VELLUM_PLUGIN_ROOT}, ${VELLUM_USER_DIR}, ${VELLUM_PROJECT_DIR} become
//     the corresponding Context field;
//   - ${NAME}, $NAME, and %NAME% become os.Getenv(NAME), empty if unset.
func Expand(raw string, ctx Context) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	expanded := expandTilde(raw, home)

	return varPattern.ReplaceAllStringFunc(expanded, func(match string) string {
		name := firstNonEmptyGroup(varPattern.FindStringSubmatch(match))
		switch name {
		case varPluginRoot:
			if ctx.PluginRoot != "" {
				return ctx.PluginRoot
			}
			return ctx.UserDir
		case varUserDir:
			return ctx.UserDir
		case varProjectDir:
			return ctx.ProjectDir
		default:
			return os.Getenv(name)
		}
	})
}

func firstNonEmptyGroup(groups []string) string {
	for _, g := range groups[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

func expandTilde(raw, home string) string {
	if home == "" {
		return raw
	}
	if raw == "~" {
		return home
	}
	if strings.HasPrefix(raw, "~/") || strings.HasPrefix(raw, "~\\") {
		return home + raw[1:]
	}
	// "~" immediately after a separator, e.g. "prefix/~/rest".
	for _, sep := range []string{"/", "\\"} {
		marker := sep + "~" + sep
		if idx := strings.Index(raw, marker); idx >= 0 {
			return raw[:idx+1] + home + raw[idx+2:]
		}
	}
	return raw
}

// absoluteNoVariable reports whether raw is an absolute platform path that
// contains none of the recognised path variables or "~". Used only for the
// advisory validator below.
func absoluteNoVariable(raw string) bool {
	if varPattern.MatchString(raw) || strings.Contains(raw, "~") {
		return false
	}
	return filepath.IsAbs(raw)
}

// ValidateConfigured returns a non-nil, non-fatal warning when raw looks like
// a hardcoded absolute path rather than a portable, variable-driven one. The
// caller decides whether/how to surface it; it is never treated as an error.
func ValidateConfigured(raw string) error {
	if absoluteNoVariable(raw) {
		return fmt.Errorf("path %q is an absolute path with no ${VAR} or ~ substitution; it will not be portable across machines", raw)
	}
	return nil
}
