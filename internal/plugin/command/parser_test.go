package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNameFromFrontMatter(t *testing.T) {
	doc := "---\nname: deploy\ndescription: Deploy the thing\n---\nBody text.\n"
	c := Parse("/plugins/acme/.vellum-plugin/commands/whatever.md", []byte(doc))
	assert.Equal(t, "deploy", c.Name)
	assert.Equal(t, "Deploy the thing", c.Description)
}

func TestParseNameFallsBackToFilenameStem(t *testing.T) {
	c := Parse("/plugins/acme/.vellum-plugin/commands/release-notes.md", []byte("no front matter here"))
	assert.Equal(t, "release-notes", c.Name)
}

func TestParseDescriptionFallsBackToFirstParagraph(t *testing.T) {
	doc := "# Heading\n\n---\n\nThis is the first real paragraph.\n\nSecond paragraph.\n"
	c := Parse("cmd.md", []byte(doc))
	assert.Equal(t, "This is the first real paragraph.", c.Description)
}

func TestParseDescriptionFallsBackToNameWhenNoBody(t *testing.T) {
	c := Parse("solo.md", []byte(""))
	assert.Equal(t, "solo", c.Description)
}

func TestParseMalformedFrontMatterIsNonFatal(t *testing.T) {
	doc := "---\nname: [unterminated\nbody continues\n"
	c := Parse("fallback.md", []byte(doc))
	assert.Equal(t, "fallback", c.Name)
	assert.NotEmpty(t, c.Description)
}

func TestParseHasArgumentsVariable(t *testing.T) {
	withVar := Parse("a.md", []byte("run $ARGUMENTS now"))
	assert.True(t, withVar.HasArgumentsVariable)

	withoutVar := Parse("b.md", []byte("run as-is"))
	assert.False(t, withoutVar.HasArgumentsVariable)
}

func TestParseAllowedToolsFromFrontMatter(t *testing.T) {
	doc := "---\nname: build\nallowed-tools:\n  - write_file\n  - read_file\n---\nbody\n"
	c := Parse("build.md", []byte(doc))
	assert.Equal(t, []string{"write_file", "read_file"}, c.AllowedTools)
}

func TestParseArgumentHint(t *testing.T) {
	doc := "---\nname: deploy\nargument-hint: <environment>\n---\nbody\n"
	c := Parse("deploy.md", []byte(doc))
	assert.Equal(t, "<environment>", c.ArgumentHint)
}

func TestParseSkipsHeadingAndHorizontalRuleForDescription(t *testing.T) {
	doc := "# Title\n\n***\n\nReal paragraph here.\n"
	c := Parse("x.md", []byte(doc))
	assert.Equal(t, "Real paragraph here.", c.Description)
}
