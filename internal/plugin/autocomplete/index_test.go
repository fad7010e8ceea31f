package autocomplete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCommands() []Nameable {
	return []Nameable{
		{Name: "help", Description: "Show help"},
		{Name: "history", Description: "Show history"},
		{Name: "lsp", Description: "Manage language servers"},
		{Name: "auth", Description: "Manage auth providers"},
	}
}

func TestQueryLevel1SortsByScoreThenName(t *testing.T) {
	idx := NewIndex(sampleCommands())
	cands := idx.Query("/h")
	require.NotEmpty(t, cands)
	for i := 1; i < len(cands); i++ {
		if cands[i-1].Score == cands[i].Score {
			assert.LessOrEqual(t, cands[i-1].Label, cands[i].Label)
		} else {
			assert.Greater(t, cands[i-1].Score, cands[i].Score)
		}
	}
}

func TestQueryLevel1AliasContributesBestScore(t *testing.T) {
	cmds := []Nameable{{Name: "quit", Aliases: []string{"exit", "q"}, Description: "Quit"}}
	idx := NewIndex(cmds)
	cands := idx.Query("/exit")
	require.Len(t, cands, 1)
	assert.Equal(t, "quit", cands[0].Label)
}

func TestQueryLevel2SubCommands(t *testing.T) {
	idx := NewIndex(sampleCommands())
	cands := idx.Query("/lsp inst")
	require.NotEmpty(t, cands)
	assert.Equal(t, "lsp install", cands[0].Label)
}

func TestQueryLevel3PositionalArguments(t *testing.T) {
	idx := NewIndex(sampleCommands())
	cands := idx.Query("/lsp install go")
	require.NotEmpty(t, cands)
	assert.Equal(t, "gopls", cands[0].Label)
}

func TestQueryLevel3AuthProviders(t *testing.T) {
	idx := NewIndex(sampleCommands())
	cands := idx.Query("/auth set anthr")
	require.NotEmpty(t, cands)
	assert.Equal(t, "anthropic", cands[0].Label)
}

func TestQueryUnknownSubCommandVocabularyReturnsNil(t *testing.T) {
	idx := NewIndex(sampleCommands())
	assert.Nil(t, idx.Query("/help something"))
}
