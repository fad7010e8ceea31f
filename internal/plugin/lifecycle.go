package plugin

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// runLifecycleHook runs rec.Manifest.LifecycleHooks[event] as a shell
// command, if the plugin declares one. Unlike the 11 agent-lifecycle hook
// rules in internal/plugin/hooks, these fire on plugin-management events
// (install/update/remove) and are invoked directly by the manager rather
// than through the executor's matcher/timeout/permission pipeline — a
// plugin's own install script is run unconditionally, the way the teacher's
// runHook ran a plugin's hooks.yaml commands.
func runLifecycleHook(rec *Record, event string) error {
	command, ok := rec.Manifest.LifecycleHooks[event]
	if !ok || command == "" {
		return nil
	}

	var prog *exec.Cmd
	if runtime.GOOS == "windows" {
		prog = exec.Command("cmd", "/C", command)
	} else {
		prog = exec.Command("sh", "-c", command)
	}
	prog.Dir = rec.Discovered.RootDir
	prog.Env = append(os.Environ(),
		"VELLUM_PLUGIN_NAME="+rec.Discovered.Name,
		"VELLUM_PLUGIN_ROOT="+rec.Discovered.RootDir,
	)

	var stderr bytes.Buffer
	prog.Stderr = &stderr
	if err := prog.Run(); err != nil {
		return fmt.Errorf("plugin %q %s hook failed: %w: %s", rec.Discovered.Name, event, err, stderr.String())
	}
	return nil
}

const (
	lifecycleInstall = "install"
	lifecycleUpdate  = "update"
	lifecycleRemove  = "remove"
)
