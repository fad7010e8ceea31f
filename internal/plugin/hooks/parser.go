package hooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	securejoin "github.com/cyphar/filepath-securejoin"

	plugpath "github.com/MLGBJDLW/vellum/internal/plugin/path"
)

// rawRule mirrors the on-disk hooks.json rule shape. Unknown top-level keys
// are rejected per spec.md §6 ("Unknown keys within a rule are rejected").
type rawRule struct {
	Event        string          `json:"event"`
	Matcher      string          `json:"matcher"`
	Action       json.RawMessage `json:"action"`
	TimeoutMS    *int            `json:"timeout"`
	FailBehavior string          `json:"fail_behavior"`
}

type rawAction struct {
	Kind             string            `json:"kind"`
	Command          string            `json:"command"`
	Args             []string          `json:"args"`
	PlatformCommands []PlatformCommand `json:"platform_commands"`
	Path             string            `json:"path"`
	PathRaw          string            `json:"path_raw"`
	Interpreter      string            `json:"interpreter"`
	Content          string            `json:"content"`
}

// ParseOptions configures ParseRules's path-variable expansion of
// Script.path. PluginRoot is joined (securely) against the expanded path.
type ParseOptions struct {
	PluginName string
	PluginRoot string
	PathCtx    plugpath.Context
}

// ParseRules decodes a hooks.json document (a JSON array of rule objects),
// validates each rule, fills defaults, and compiles each matcher regex. A
// JSON decode failure and a per-rule validation failure (naming the
// offending index and field) are both returned as this package's parseError;
// the plugin loader wraps it in plugin.HooksParseError.
func ParseRules(filePath string, data []byte, opts ParseOptions) ([]Rule, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raws []rawRule
	if err := dec.Decode(&raws); err != nil {
		return nil, &parseError{filePath: filePath, message: fmt.Sprintf("invalid JSON: %v", err)}
	}

	rules := make([]Rule, 0, len(raws))
	for i, raw := range raws {
		rule, err := compileRule(raw, opts)
		if err != nil {
			return nil, &parseError{
				filePath: filePath,
				message:  fmt.Sprintf("rule %d: %v", i, err),
				details:  map[string]any{"ruleIndex": i},
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func compileRule(raw rawRule, opts ParseOptions) (Rule, error) {
	event := Event(raw.Event)
	if !event.Valid() {
		return Rule{}, fmt.Errorf("field \"event\": unknown event %q", raw.Event)
	}

	action, err := compileAction(raw.Action, opts)
	if err != nil {
		return Rule{}, fmt.Errorf("field \"action\": %w", err)
	}

	var matcher *regexp.Regexp
	if raw.Matcher != "" {
		matcher, err = regexp.Compile(raw.Matcher)
		if err != nil {
			return Rule{}, fmt.Errorf("field \"matcher\": invalid regex: %w", err)
		}
	}

	timeout := DefaultTimeoutMS
	if raw.TimeoutMS != nil {
		timeout = *raw.TimeoutMS
	}

	rule := Rule{
		Event:      event,
		Action:     action,
		Matcher:    matcher,
		TimeoutMS:  timeout,
		PluginName: opts.PluginName,
	}
	if raw.FailBehavior != "" {
		rule.FailBehavior = FailBehavior(raw.FailBehavior)
		rule.explicitFailBehavior = true
		if rule.FailBehavior != FailOpen && rule.FailBehavior != FailClosed {
			return Rule{}, fmt.Errorf("field \"fail_behavior\": must be \"open\" or \"closed\", got %q", raw.FailBehavior)
		}
	} else {
		rule.FailBehavior = FailOpen // placeholder; EffectiveFailBehavior computes the real policy
	}

	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

func compileAction(raw json.RawMessage, opts ParseOptions) (Action, error) {
	if len(raw) == 0 {
		return Action{}, fmt.Errorf("action is required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var ra rawAction
	if err := dec.Decode(&ra); err != nil {
		return Action{}, fmt.Errorf("invalid action: %w", err)
	}

	switch ActionKind(ra.Kind) {
	case ActionCommand:
		return Action{Kind: ActionCommand, Command: ra.Command, Args: ra.Args, PlatformCommands: ra.PlatformCommands}, nil
	case ActionScript:
		p := ra.Path
		if p == "" {
			p = ra.PathRaw
		}
		if p != "" && ra.PathRaw == "" {
			p = plugpath.Expand(p, opts.PathCtx)
			if opts.PluginRoot != "" {
				joined, err := securejoin.SecureJoin(opts.PluginRoot, p)
				if err != nil {
					return Action{}, fmt.Errorf("field \"path\": %w", err)
				}
				p = joined
			}
		}
		interp := ra.Interpreter
		if interp == "" && p != "" {
			interp = InterpreterForExtension(p)
		}
		return Action{Kind: ActionScript, ScriptPath: p, Interpreter: interp}, nil
	case ActionPrompt:
		return Action{Kind: ActionPrompt, PromptContent: ra.Content}, nil
	default:
		return Action{}, fmt.Errorf("unknown action kind %q", ra.Kind)
	}
}

type parseError struct {
	filePath string
	message  string
	details  map[string]any
}

func (e *parseError) Error() string { return fmt.Sprintf("hooks config %q: %s", e.filePath, e.message) }
