package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptKeepsBareNameWhenNoCollision(t *testing.T) {
	parsed := Parse("deploy.md", []byte("---\nname: deploy\n---\nDo the deploy."))
	sc := Adapt(parsed, "acme", map[string]bool{})
	assert.Equal(t, "deploy", sc.Name)
	assert.Equal(t, "acme", sc.Source)
	assert.Equal(t, KindPlugin, sc.Kind)
}

func TestAdaptNamespacesOnCollision(t *testing.T) {
	parsed := Parse("deploy.md", []byte("---\nname: deploy\n---\nDo the deploy."))
	sc := Adapt(parsed, "acme", map[string]bool{"deploy": true})
	assert.Equal(t, "acme:deploy", sc.Name)
}

func TestExecuteSubstitutesArguments(t *testing.T) {
	parsed := Parse("run.md", []byte("run $ARGUMENTS now"))
	sc := Adapt(parsed, "acme", map[string]bool{})
	result := sc.Execute(ExecContext{RawArgs: "  --force  "})
	assert.Equal(t, "run --force now", result.Message)
	assert.Equal(t, "run --force now", result.Data.Content)
}

func TestExecuteLeavesContentUntouchedWithoutArgumentsVariable(t *testing.T) {
	parsed := Parse("static.md", []byte("nothing to substitute here"))
	sc := Adapt(parsed, "acme", map[string]bool{})
	result := sc.Execute(ExecContext{RawArgs: "ignored"})
	assert.Equal(t, "nothing to substitute here", result.Message)
}

func TestExecuteStampsSourceFilePath(t *testing.T) {
	parsed := Parse("/plugins/acme/.vellum-plugin/commands/whatever.md", []byte("body"))
	sc := Adapt(parsed, "acme", map[string]bool{})
	result := sc.Execute(ExecContext{})
	assert.Equal(t, "/plugins/acme/.vellum-plugin/commands/whatever.md", result.Data.Source)
}

func TestEffectiveToolsUnfilteredWhenDeclaredEmpty(t *testing.T) {
	doc := "---\nname: any\n---\nbody"
	parsed := Parse("any.md", []byte(doc))
	sc := Adapt(parsed, "acme", map[string]bool{})
	result := sc.Execute(ExecContext{AllowedTools: []string{"bash", "edit", "read"}})
	assert.Equal(t, []string{"bash", "edit", "read"}, result.Data.AllowedTools)
}

func TestEffectiveToolsFiltersAndPreservesDeclaredOrder(t *testing.T) {
	doc := "---\nname: any\nallowed-tools:\n  - read\n  - bash\n  - write\n---\nbody"
	parsed := Parse("any.md", []byte(doc))
	sc := Adapt(parsed, "acme", map[string]bool{})
	result := sc.Execute(ExecContext{AllowedTools: []string{"bash", "edit", "read"}})
	assert.Equal(t, []string{"read", "bash"}, result.Data.AllowedTools)
}

func TestEffectiveToolsDropsUnavailableDeclaredTools(t *testing.T) {
	doc := "---\nname: any\nallowed-tools:\n  - network\n---\nbody"
	parsed := Parse("any.md", []byte(doc))
	sc := Adapt(parsed, "acme", map[string]bool{})
	result := sc.Execute(ExecContext{AllowedTools: []string{"bash"}})
	assert.Equal(t, []string{}, result.Data.AllowedTools)
}
