package command

import "strings"

// Kind mirrors the host-facing SlashCommand.kind enumeration from spec.md §3.
// Only Plugin is produced by this package; the others are reserved for the
// host's own builtin/mcp/user command sources.
type Kind string

const (
	KindBuiltin Kind = "builtin"
	KindPlugin  Kind = "plugin"
	KindMCP     Kind = "mcp"
	KindUser    Kind = "user"
)

// ExecContext is the subset of the host's slash-command invocation context
// this package needs: the raw argument string the user typed after the
// command name, and the tool names currently registered with the host.
type ExecContext struct {
	RawArgs       string
	AllowedTools  []string
}

// Result is the outcome of running a SlashCommand's Execute.
type Result struct {
	Message string
	Data    ResultData
}

// ResultData is the structured payload alongside Result.Message.
type ResultData struct {
	Content      string
	AllowedTools []string
	Source       string
}

// SlashCommand is the host-facing shape a ParsedCommand is adapted into.
type SlashCommand struct {
	Name         string
	Description  string
	Kind         Kind
	Category     string
	Source       string // plugin name
	ArgumentHint string
	Aliases      []string

	parsed ParsedCommand
}

// Adapt builds a SlashCommand from a parsed command markdown file, resolving
// a bare-name collision against existing (the set of already-registered
// command names) by namespacing it "${pluginName}:${parsed.Name}" per
// spec.md §4.4. existing is read-only; callers insert the returned
// SlashCommand's Name into their own registry afterward.
func Adapt(parsed ParsedCommand, pluginName string, existing map[string]bool) SlashCommand {
	name := parsed.Name
	if existing[name] {
		name = pluginName + ":" + parsed.Name
	}

	return SlashCommand{
		Name:         name,
		Description:  parsed.Description,
		Kind:         KindPlugin,
		Category:     "plugin",
		Source:       pluginName,
		ArgumentHint: parsed.ArgumentHint,
		parsed:       parsed,
	}
}

// Execute implements spec.md §4.4's three-step command body:
//  1. substitute $ARGUMENTS if the command declares it;
//  2. compute effective_tools as command.allowed_tools filtered against
//     ctx.AllowedTools (preserving command.allowed_tools order), or
//     ctx.AllowedTools unfiltered when the command declares none (see
//     effectiveTools);
//  3. return the processed content plus the structured data payload.
func (c SlashCommand) Execute(ctx ExecContext) Result {
	content := c.parsed.Content
	if c.parsed.HasArgumentsVariable {
		content = strings.ReplaceAll(content, argumentsToken, strings.TrimSpace(ctx.RawArgs))
	}

	effective := effectiveTools(c.parsed.AllowedTools, ctx.AllowedTools)

	return Result{
		Message: content,
		Data: ResultData{
			Content:      content,
			AllowedTools: effective,
			Source:       c.parsed.FilePath,
		},
	}
}

// effectiveTools implements the tool-filter law from spec.md §8: an empty
// declared list means "no restriction" (use every available tool); a
// non-empty list is filtered down to the tools actually available, keeping
// the declared list's order.
func effectiveTools(declared, available []string) []string {
	if len(declared) == 0 {
		return available
	}

	allowed := make(map[string]bool, len(available))
	for _, t := range available {
		allowed[t] = true
	}

	out := make([]string, 0, len(declared))
	for _, t := range declared {
		if allowed[t] {
			out = append(out, t)
		}
	}
	return out
}
