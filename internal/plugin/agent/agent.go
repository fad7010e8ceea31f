// Package agent parses a plugin's sub-agent markdown files. Agents share the
// command parser's front-matter/body convention (spec.md §3: "Agents, like
// commands, are markdown files with YAML front-matter"), so this package
// follows command.splitFrontMatter's fence convention with its own copy of
// it (see splitFrontMatter below).
package agent

import (
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ParsedAgent is the markdown-derived sub-agent definition from spec.md §3.
type ParsedAgent struct {
	Slug         string
	Name         string
	Mode         string
	Description  string
	SystemPrompt string
	FilePath     string
}

const defaultMode = "code"

type frontMatter struct {
	Name        string `yaml:"name"`
	Mode        string `yaml:"mode"`
	Description string `yaml:"description"`
}

// Parse reads an agent markdown file's raw bytes and produces a ParsedAgent.
// Slug always derives from the filename stem (agents are addressed by file
// identity, unlike commands which may rename themselves via front matter);
// Name falls back to the slug, Mode falls back to "code", and Description
// falls back to Name when front matter omits them.
func Parse(filePath string, data []byte) ParsedAgent {
	fm, body := splitFrontMatter(data)
	slug := filenameStem(filePath)

	name := fm.Name
	if name == "" {
		name = slug
	}

	mode := fm.Mode
	if mode == "" {
		mode = defaultMode
	}

	description := fm.Description
	if description == "" {
		description = name
	}

	return ParsedAgent{
		Slug:         slug,
		Name:         name,
		Mode:         mode,
		Description:  description,
		SystemPrompt: body,
		FilePath:     filePath,
	}
}

func filenameStem(filePath string) string {
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// splitFrontMatter is the agent-local twin of command.splitFrontMatter: same
// fence convention, same "malformed front matter is non-fatal" rule, kept as
// a separate unexported copy rather than exported from command to avoid a
// cross-package dependency between two otherwise-independent parsers.
func splitFrontMatter(data []byte) (frontMatter, string) {
	var fm frontMatter

	text := string(data)
	trimmed := strings.TrimLeft(text, "\n")
	if !strings.HasPrefix(trimmed, "---") {
		return fm, text
	}

	rest := trimmed[3:]
	if idx := strings.IndexByte(rest, '\n'); idx == -1 || strings.TrimSpace(rest[:idx]) != "" {
		return fm, text
	} else {
		rest = rest[idx+1:]
	}

	closeIdx := findClosingFence(rest)
	if closeIdx == -1 {
		return fm, text
	}

	raw := rest[:closeIdx]
	body := rest[closeIdx:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	} else {
		body = ""
	}

	_ = yaml.Unmarshal([]byte(raw), &fm)
	return fm, body
}

func findClosingFence(s string) int {
	lines := strings.SplitAfter(s, "\n")
	pos := 0
	for _, line := range lines {
		trimmedLine := strings.TrimRight(line, "\n")
		if trimmedLine == "---" {
			return pos
		}
		pos += len(line)
	}
	return -1
}
