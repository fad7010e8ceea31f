package trust

import (
	"sync"

	"github.com/MLGBJDLW/vellum/internal/plugin/hooks"
)

// InteractivePrompter surfaces an ask-level trust decision to the host
// application. Its implementation lives outside this subsystem (spec.md
// §4.8: "surface an interactive prompt to the host").
type InteractivePrompter interface {
	Prompt(pluginName string, kind hooks.ActionKind, event hooks.Event) bool
}

// denyPrompter is used when no InteractivePrompter is supplied: an "ask"
// level plugin with nobody to ask is treated as denied, never as trusted.
type denyPrompter struct{}

func (denyPrompter) Prompt(string, hooks.ActionKind, hooks.Event) bool { return false }

// DefaultBridge implements hooks.PermissionBridge against a trust Store, per
// spec.md §4.8's policy: trusted -> true, none -> false, ask -> prompt once
// per plugin per session and cache the answer.
type DefaultBridge struct {
	store    *Store
	prompter InteractivePrompter

	mu    sync.Mutex
	cache map[string]bool
}

// NewDefaultBridge returns a DefaultBridge backed by store. A nil prompter
// falls back to denyPrompter.
func NewDefaultBridge(store *Store, prompter InteractivePrompter) *DefaultBridge {
	if prompter == nil {
		prompter = denyPrompter{}
	}
	return &DefaultBridge{store: store, prompter: prompter, cache: map[string]bool{}}
}

// CheckPermission implements hooks.PermissionBridge. Trust is evaluated
// per-plugin, not per-rule: a plugin's trust level gates every event and
// action kind uniformly (spec.md §4.8 Policy).
func (b *DefaultBridge) CheckPermission(pluginName string, kind hooks.ActionKind, event hooks.Event) bool {
	rec, ok := b.store.Get(pluginName)
	if !ok {
		return false
	}

	switch rec.TrustLevel {
	case LevelTrusted:
		return true
	case LevelAsk:
		return b.sessionAnswer(pluginName, kind, event)
	default:
		return false
	}
}

func (b *DefaultBridge) sessionAnswer(pluginName string, kind hooks.ActionKind, event hooks.Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if answer, cached := b.cache[pluginName]; cached {
		return answer
	}
	answer := b.prompter.Prompt(pluginName, kind, event)
	b.cache[pluginName] = answer
	return answer
}
