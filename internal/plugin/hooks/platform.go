package hooks

import (
	"fmt"
	"runtime"
	"strings"
)

// platformShell is the interpreter used for a Script action whose extension
// isn't in the recognised table.
func platformShell() string {
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	return "sh"
}

// selectPlatformCommand picks the best match from cmds for the running
// OS/arch, in the same priority order as the plugin CLI-command resolver it
// is grounded on: exact OS+arch match, then OS-only match, then the
// unqualified entry. An entry that names an architecture is used only on an
// exact OS+arch match. Returns an empty command if nothing applies.
func selectPlatformCommand(cmds []PlatformCommand) (string, []string) {
	var command string
	var args []string
	found := false
	foundOS := false

	eq := strings.EqualFold
	for _, c := range cmds {
		if eq(c.OperatingSystem, runtime.GOOS) && eq(c.Architecture, runtime.GOARCH) {
			return c.Command, c.Args
		}
		if (c.OperatingSystem != "" && !eq(c.OperatingSystem, runtime.GOOS)) || c.Architecture != "" {
			continue
		}
		if !foundOS && c.OperatingSystem != "" && eq(c.OperatingSystem, runtime.GOOS) {
			command, args, found, foundOS = c.Command, c.Args, true, true
		} else if !found {
			command, args, found = c.Command, c.Args, true
		}
	}
	return command, args
}

// resolveCommand turns an ActionCommand into an executable command string
// and argv, preferring a platform-qualified match when present.
func resolveCommand(a Action) (string, []string, error) {
	if len(a.PlatformCommands) > 0 {
		if cmd, args := selectPlatformCommand(a.PlatformCommands); cmd != "" {
			return cmd, append(append([]string{}, args...), a.Args...), nil
		}
	}
	if a.Command == "" {
		return "", nil, fmt.Errorf("no applicable command for this platform")
	}
	return a.Command, a.Args, nil
}
