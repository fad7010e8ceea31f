package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// PermissionBridge mediates between the executor and the trust store / an
// interactive prompt. The default implementation lives in the trust
// package; tests may supply a stub.
type PermissionBridge interface {
	CheckPermission(pluginName string, kind ActionKind, event Event) bool
}

// ExecContext carries the per-call input and the permission bridge to
// consult. A nil PermissionBridge means "no permission gate" — every rule's
// action is allowed to run (used by tests that exercise matching/chaining in
// isolation from the trust model).
type ExecContext struct {
	Input            any
	PermissionBridge PermissionBridge
	// Env is appended to the child process environment for Command/Script
	// actions, before HOOK_INPUT, so HOOK_INPUT always carries the hook
	// input. Nothing from the plugin's manifest is added.
	Env []string
}

// Executor runs a plugin's hook rules against lifecycle events.
type Executor struct {
	// runner dispatches Command/Script actions. Defaults to a real
	// subprocess runner; tests may override it.
	runner actionRunner
}

// NewExecutor returns an Executor that spawns real child processes for
// Command/Script actions.
func NewExecutor() *Executor {
	return &Executor{runner: processRunner{}}
}

// withRunner is used by tests to inject a fake process runner.
func (ex *Executor) withRunner(r actionRunner) *Executor {
	return &Executor{runner: r}
}

// Execute implements spec.md §4.7: rules are matched against event and
// matcher, then dispatched sequentially in declaration order. The returned
// ExecutionResult.Results is in the same order as the matching rules.
// Dispatch stops at the first rule whose action is denied or (under a
// fail-closed policy) errors.
func (ex *Executor) Execute(ctx context.Context, event Event, ectx ExecContext, rules []Rule) ExecutionResult {
	t0 := time.Now()
	currentInput := ectx.Input

	matched := matchRules(event, currentInput, rules)
	if len(matched) == 0 {
		return ExecutionResult{Allowed: true, FinalInput: currentInput, TotalExecutionTimeMS: elapsedMS(t0)}
	}

	results := make([]Result, 0, len(matched))

	for i, rule := range matched {
		hookName := hookName(event, i, rule.Action)
		tHook := time.Now()

		if ectx.PermissionBridge != nil && !ectx.PermissionBridge.CheckPermission(rule.PluginName, rule.Action.Kind, event) {
			results = append(results, Result{Allowed: false, HookName: hookName, ExecutionTimeMS: elapsedMS(tHook)})
			return ExecutionResult{Allowed: false, FinalInput: currentInput, Results: results, TotalExecutionTimeMS: elapsedMS(t0)}
		}

		allowed, modifiedInput, err := ex.dispatch(ctx, hookName, rule, currentInput, ectx.Env)
		if err != nil {
			if rule.EffectiveFailBehavior() == FailClosed {
				results = append(results, Result{Allowed: false, HookName: hookName, ExecutionTimeMS: elapsedMS(tHook)})
				return ExecutionResult{Allowed: false, FinalInput: currentInput, Results: results, TotalExecutionTimeMS: elapsedMS(t0)}
			}
			slog.Warn("hook action failed, continuing (fail-open)", slog.String("hook", hookName), slog.Any("error", err))
			results = append(results, Result{Allowed: true, HookName: hookName, ExecutionTimeMS: elapsedMS(tHook)})
			continue
		}

		if modifiedInput != nil {
			currentInput = modifiedInput
		}
		results = append(results, Result{Allowed: allowed, ModifiedInput: modifiedInput, HookName: hookName, ExecutionTimeMS: elapsedMS(tHook)})
		if !allowed {
			return ExecutionResult{Allowed: false, FinalInput: currentInput, Results: results, TotalExecutionTimeMS: elapsedMS(t0)}
		}
	}

	return ExecutionResult{Allowed: true, FinalInput: currentInput, Results: results, TotalExecutionTimeMS: elapsedMS(t0)}
}

func elapsedMS(since time.Time) int64 { return time.Since(since).Milliseconds() }

func matchRules(event Event, input any, rules []Rule) []Rule {
	var out []Rule
	var stringified string
	var stringifiedComputed bool

	for _, r := range rules {
		if r.Event != event {
			continue
		}
		if r.Matcher == nil {
			out = append(out, r)
			continue
		}
		if !stringifiedComputed {
			stringified = Stringify(input)
			stringifiedComputed = true
		}
		if r.Matcher.MatchString(stringified) {
			out = append(out, r)
		}
	}
	return out
}

// Stringify implements spec.md §4.7's matcher-input coercion: a string input
// is used as-is; anything else is JSON-serialised.
func Stringify(input any) string {
	if s, ok := input.(string); ok {
		return s
	}
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return string(data)
}

func hookName(event Event, index int, action Action) string {
	var detail string
	switch action.Kind {
	case ActionCommand:
		detail = action.Command
		if detail == "" && len(action.PlatformCommands) > 0 {
			detail = action.PlatformCommands[0].Command
		}
	case ActionScript:
		detail = filepath.Base(action.ScriptPath)
	case ActionPrompt:
		detail = "prompt"
	}
	return fmt.Sprintf("%s[%d]:%s:%s", event, index, action.Kind, detail)
}

// dispatch runs a single rule's action and returns (allowed, modifiedInput, err).
// err is non-nil only for unexpected failures (spawn failure, timeout,
// abort) — a clean non-zero exit is reported as allowed=false, err=nil.
func (ex *Executor) dispatch(ctx context.Context, name string, rule Rule, input any, extraEnv []string) (bool, any, error) {
	switch rule.Action.Kind {
	case ActionPrompt:
		return true, mergeInjectedPrompt(input, rule.Action.PromptContent), nil
	case ActionCommand, ActionScript:
		runCtx, cancel := context.WithTimeout(ctx, time.Duration(rule.TimeoutMS)*time.Millisecond)
		defer cancel()
		allowed, out, err := ex.runner.run(runCtx, rule, input, extraEnv)
		if runCtx.Err() == context.DeadlineExceeded {
			return false, nil, &HookExecutionError{
				Code:     HookTimeout,
				HookName: name,
				Event:    string(rule.Event),
				Message:  "hook timed out",
				Cause:    runCtx.Err(),
			}
		}
		if err != nil {
			return allowed, out, &HookExecutionError{
				Code:     HookExecutionFailed,
				HookName: name,
				Event:    string(rule.Event),
				Message:  "hook execution failed",
				Cause:    err,
			}
		}
		return allowed, out, nil
	default:
		return false, nil, &HookExecutionError{
			Code:     HookUnsupportedAction,
			HookName: name,
			Event:    string(rule.Event),
			Message:  fmt.Sprintf("unsupported action kind %q", rule.Action.Kind),
		}
	}
}

func mergeInjectedPrompt(input any, content string) any {
	if m, ok := input.(map[string]any); ok {
		merged := make(map[string]any, len(m)+1)
		for k, v := range m {
			merged[k] = v
		}
		merged["injected_prompt"] = content
		return merged
	}
	return map[string]any{"original": input, "injected_prompt": content}
}

// actionRunner dispatches a Command/Script action's child process.
type actionRunner interface {
	run(ctx context.Context, rule Rule, input any, extraEnv []string) (allowed bool, modifiedInput any, err error)
}

// processRunner is the real, os/exec-backed actionRunner.
type processRunner struct{}

func (processRunner) run(ctx context.Context, rule Rule, input any, extraEnv []string) (bool, any, error) {
	main, args, err := commandFor(rule.Action)
	if err != nil {
		return false, nil, err
	}

	cmd := exec.CommandContext(ctx, main, args...)
	cmd.Env = append(append([]string{}, os.Environ()...), extraEnv...)
	cmd.Env = append(cmd.Env, "HOOK_INPUT="+Stringify(input))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return false, nil, ctx.Err()
	}
	if runErr != nil {
		if _, ok := runErr.(*exec.ExitError); ok {
			return false, nil, nil // non-zero exit: denied, not an executor error
		}
		return false, nil, fmt.Errorf("spawn %q: %w", main, runErr)
	}

	trimmed := strings.TrimSpace(stdout.String())
	if trimmed == "" {
		return true, nil, nil
	}
	var modified any
	if err := json.Unmarshal([]byte(trimmed), &modified); err != nil {
		return true, nil, nil // parse failure is silently ignored per spec.md §4.7
	}
	return true, modified, nil
}

func commandFor(a Action) (string, []string, error) {
	switch a.Kind {
	case ActionCommand:
		return resolveCommand(a)
	case ActionScript:
		interp := a.Interpreter
		if interp == "" {
			interp = InterpreterForExtension(a.ScriptPath)
		}
		return interp, []string{a.ScriptPath}, nil
	default:
		return "", nil, fmt.Errorf("action kind %q has no command form", a.Kind)
	}
}
