// Package hooks implements the lifecycle hook rule schema, its JSON parser,
// and the executor that matches rules against an event and dispatches their
// actions under the host's permission and fail-open/fail-closed policy.
package hooks

import (
	"fmt"
	"regexp"
)

// Event is one of the 11 lifecycle points a hook rule can fire on.
type Event string

const (
	SessionStart   Event = "SessionStart"
	SessionEnd     Event = "SessionEnd"
	BeforeModel    Event = "BeforeModel"
	AfterModel     Event = "AfterModel"
	PreToolUse     Event = "PreToolUse"
	PostToolResult Event = "PostToolResult"
	BeforeAgent    Event = "BeforeAgent"
	AfterAgent     Event = "AfterAgent"
	OnError        Event = "OnError"
	OnApproval     Event = "OnApproval"
	BeforeCommit   Event = "BeforeCommit"
)

var allEvents = map[Event]bool{
	SessionStart: true, SessionEnd: true, BeforeModel: true, AfterModel: true,
	PreToolUse: true, PostToolResult: true, BeforeAgent: true, AfterAgent: true,
	OnError: true, OnApproval: true, BeforeCommit: true,
}

// Valid reports whether e is one of the closed set of lifecycle events.
func (e Event) Valid() bool { return allEvents[e] }

// failClosedByDefault is the set of events whose rules default to
// fail-closed when fail_behavior is unset in the rule.
var failClosedByDefault = map[Event]bool{
	PreToolUse:  true,
	BeforeModel: true,
}

// ActionKind distinguishes the three action variants a rule may dispatch.
type ActionKind string

const (
	ActionCommand ActionKind = "command"
	ActionScript  ActionKind = "script"
	ActionPrompt  ActionKind = "prompt"
)

// PlatformCommand optionally qualifies an ActionCommand by OS/arch, mirroring
// the platform-command selection used elsewhere for plugin CLI commands (see
// SPEC_FULL.md "Supplemented features" #2). An entry with neither
// OperatingSystem nor Architecture matches any platform; an entry that sets
// Architecture matches only together with a matching OperatingSystem.
type PlatformCommand struct {
	OperatingSystem string   `json:"os,omitempty"`
	Architecture    string   `json:"arch,omitempty"`
	Command         string   `json:"command"`
	Args            []string `json:"args,omitempty"`
}

// Action is the tagged union of HookAction variants from spec.md §3.
type Action struct {
	Kind ActionKind

	// ActionCommand
	Command          string
	Args             []string
	PlatformCommands []PlatformCommand // optional OS/arch-qualified variants

	// ActionScript
	ScriptPath  string
	Interpreter string // optional; auto-selected from extension when empty

	// ActionPrompt
	PromptContent string
}

// FailBehavior is the policy applied when a rule's action errors at runtime.
type FailBehavior string

const (
	FailOpen   FailBehavior = "open"
	FailClosed FailBehavior = "closed"
)

const (
	// DefaultTimeoutMS is used when a rule omits "timeout".
	DefaultTimeoutMS = 30_000
	MinTimeoutMS     = 100
	MaxTimeoutMS     = 300_000
)

// Rule is a single hook rule, fully validated and defaulted.
type Rule struct {
	Event    Event
	Action   Action
	Matcher  *regexp.Regexp // nil means "matches every input for this event"
	TimeoutMS int
	FailBehavior FailBehavior // always populated after ParseRules; see EffectiveFailBehavior

	// PluginName identifies which plugin's hooks.json this rule came from.
	// It is not part of the on-disk schema; the loader stamps it in so the
	// executor's permission bridge call has something to check trust for.
	PluginName string

	explicitFailBehavior bool
}

// EffectiveFailBehavior resolves the policy to apply when this rule's action
// errors at runtime: the explicit fail_behavior if one was set in
// hooks.json, else "closed" for PreToolUse/BeforeModel, else "open".
func (r Rule) EffectiveFailBehavior() FailBehavior {
	if r.explicitFailBehavior {
		return r.FailBehavior
	}
	if failClosedByDefault[r.Event] {
		return FailClosed
	}
	return FailOpen
}

// Validate checks a single rule's invariants (spec.md §3/§4.6). Regex
// compilation is checked by the caller (compileRule), since a *Rule here
// already carries a compiled Matcher.
func (r Rule) Validate() error {
	if !r.Event.Valid() {
		return fmt.Errorf("unknown event %q", r.Event)
	}
	if r.TimeoutMS < MinTimeoutMS || r.TimeoutMS > MaxTimeoutMS {
		return fmt.Errorf("timeout %dms out of range [%d, %d]", r.TimeoutMS, MinTimeoutMS, MaxTimeoutMS)
	}
	switch r.Action.Kind {
	case ActionCommand:
		if r.Action.Command == "" && len(r.Action.PlatformCommands) == 0 {
			return fmt.Errorf("command action requires \"command\"")
		}
	case ActionScript:
		if r.Action.ScriptPath == "" {
			return fmt.Errorf("script action requires \"path\"")
		}
	case ActionPrompt:
		if r.Action.PromptContent == "" {
			return fmt.Errorf("prompt action requires \"content\"")
		}
	default:
		return fmt.Errorf("unknown action kind %q", r.Action.Kind)
	}
	return nil
}

// Result records the outcome of dispatching a single matched rule.
type Result struct {
	Allowed         bool
	ModifiedInput   any
	ExecutionTimeMS int64
	HookName        string
}

// ExecutionResult is the aggregate outcome of one Executor.Execute call.
type ExecutionResult struct {
	Allowed             bool
	FinalInput          any
	Results             []Result
	TotalExecutionTimeMS int64
}

// InterpreterForExtension implements the Script interpreter auto-selection
// table from spec.md §3.
func InterpreterForExtension(scriptPath string) string {
	switch ext(scriptPath) {
	case ".py":
		return "python3"
	case ".js", ".mjs":
		return "node"
	case ".sh":
		return "sh"
	case ".ps1":
		return "pwsh"
	default:
		return platformShell()
	}
}

func ext(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' || path[i] == '\\' {
			break
		}
	}
	return ""
}
