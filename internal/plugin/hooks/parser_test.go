package hooks

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRulesAllEventsAndActions(t *testing.T) {
	doc := `[
		{"event":"SessionStart","action":{"kind":"prompt","content":"hi"}},
		{"event":"SessionEnd","action":{"kind":"prompt","content":"bye"}},
		{"event":"BeforeModel","action":{"kind":"command","command":"echo","args":["hi"]}},
		{"event":"AfterModel","action":{"kind":"command","command":"echo"}},
		{"event":"PreToolUse","action":{"kind":"script","path":"hook.sh"}},
		{"event":"PostToolResult","action":{"kind":"script","path":"hook.py"}},
		{"event":"BeforeAgent","action":{"kind":"prompt","content":"x"}},
		{"event":"AfterAgent","action":{"kind":"prompt","content":"x"}},
		{"event":"OnError","action":{"kind":"prompt","content":"x"}},
		{"event":"OnApproval","action":{"kind":"prompt","content":"x"}},
		{"event":"BeforeCommit","action":{"kind":"prompt","content":"x"}}
	]`

	rules, err := ParseRules("hooks.json", []byte(doc), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, rules, 11)
	assert.Equal(t, "python3", rules[5].Action.Interpreter)
	assert.Equal(t, "sh", rules[4].Action.Interpreter)
}

func TestParseRulesDefaultsTimeoutAndFailBehavior(t *testing.T) {
	rules, err := ParseRules("hooks.json", []byte(`[{"event":"SessionStart","action":{"kind":"prompt","content":"x"}}]`), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, DefaultTimeoutMS, rules[0].TimeoutMS)
	assert.Equal(t, FailOpen, rules[0].EffectiveFailBehavior())
}

func TestParseRulesInvalidJSON(t *testing.T) {
	_, err := ParseRules("hooks.json", []byte(`not json`), ParseOptions{})
	require.Error(t, err)
}

func TestParseRulesInvalidRegexMatcher(t *testing.T) {
	_, err := ParseRules("hooks.json", []byte(`[{"event":"PreToolUse","matcher":"(unclosed","action":{"kind":"prompt","content":"x"}}]`), ParseOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regex")
}

func TestParseRulesRejectsUnknownKeys(t *testing.T) {
	_, err := ParseRules("hooks.json", []byte(`[{"event":"SessionStart","bogus":true,"action":{"kind":"prompt","content":"x"}}]`), ParseOptions{})
	require.Error(t, err)
}

func TestParseRulesRejectsTimeoutOutOfRange(t *testing.T) {
	_, err := ParseRules("hooks.json", []byte(`[{"event":"SessionStart","timeout":1,"action":{"kind":"prompt","content":"x"}}]`), ParseOptions{})
	require.Error(t, err)
}

func TestParseRulesUnknownEvent(t *testing.T) {
	_, err := ParseRules("hooks.json", []byte(`[{"event":"NoSuchEvent","action":{"kind":"prompt","content":"x"}}]`), ParseOptions{})
	require.Error(t, err)
}

func TestParseRulesStampsPluginName(t *testing.T) {
	rules, err := ParseRules("hooks.json", []byte(`[{"event":"SessionStart","action":{"kind":"prompt","content":"x"}}]`), ParseOptions{PluginName: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme", rules[0].PluginName)
}

func TestParseRulesScriptPathJoinedAgainstPluginRoot(t *testing.T) {
	root := t.TempDir()
	rules, err := ParseRules("hooks.json", []byte(`[{"event":"PreToolUse","action":{"kind":"script","path":"scripts/hook.sh"}}]`), ParseOptions{PluginRoot: root})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, filepath.Join(root, "scripts", "hook.sh"), rules[0].Action.ScriptPath)
}

func TestParseRulesScriptPathEscapeIsContainedWithinPluginRoot(t *testing.T) {
	root := t.TempDir()
	rules, err := ParseRules("hooks.json", []byte(`[{"event":"PreToolUse","action":{"kind":"script","path":"../../../../etc/passwd"}}]`), ParseOptions{PluginRoot: root})
	require.NoError(t, err)
	require.Len(t, rules, 1)

	resolved := rules[0].Action.ScriptPath
	rel, err := filepath.Rel(root, resolved)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."), "script path %q escaped plugin root %q", resolved, root)
}

func TestParseRulesScriptPathAbsoluteIsContainedWithinPluginRoot(t *testing.T) {
	root := t.TempDir()
	rules, err := ParseRules("hooks.json", []byte(`[{"event":"PreToolUse","action":{"kind":"script","path":"/etc/passwd"}}]`), ParseOptions{PluginRoot: root})
	require.NoError(t, err)
	require.Len(t, rules, 1)

	resolved := rules[0].Action.ScriptPath
	rel, err := filepath.Rel(root, resolved)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."), "script path %q escaped plugin root %q", resolved, root)
}
