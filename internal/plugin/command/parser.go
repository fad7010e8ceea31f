// Package command parses a plugin's slash-command markdown files into
// ParsedCommand values and adapts them into the host-facing SlashCommand
// shape, resolving name collisions across plugins.
package command

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.yaml.in/yaml/v3"
)

// ParsedCommand is the markdown-derived command definition described in
// spec.md §3.
type ParsedCommand struct {
	Name                string
	Description         string
	ArgumentHint        string
	AllowedTools        []string
	Content             string
	FilePath            string
	HasArgumentsVariable bool
}

// frontMatter mirrors the recognised YAML keys from spec.md §4.4/§6.
type frontMatter struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	ArgumentHint string   `yaml:"argument-hint"`
	AllowedTools []string `yaml:"allowed-tools"`
}

const argumentsToken = "$ARGUMENTS"

// Parse reads a command markdown file's raw bytes and produces a
// ParsedCommand. filePath is used only to derive the filename-stem fallback
// for Name and is stored verbatim on the result. Front-matter syntax errors
// are non-fatal: the body is still recovered and every field falls back to
// its default.
func Parse(filePath string, data []byte) ParsedCommand {
	fm, body := splitFrontMatter(data)

	name := fm.Name
	if name == "" {
		name = filenameStem(filePath)
	}

	description := fm.Description
	if description == "" {
		description = firstParagraph(body)
	}
	if description == "" {
		description = name
	}

	return ParsedCommand{
		Name:                name,
		Description:         description,
		ArgumentHint:        fm.ArgumentHint,
		AllowedTools:        fm.AllowedTools,
		Content:             body,
		FilePath:            filePath,
		HasArgumentsVariable: strings.Contains(body, argumentsToken),
	}
}

// splitFrontMatter extracts and decodes the YAML front matter bounded by
// "---" fences at the top of the file, if any. A malformed front-matter
// block is swallowed: the function still returns the content following the
// (best-effort) closing fence, or the whole document when no fence is
// found at all.
func splitFrontMatter(data []byte) (frontMatter, string) {
	var fm frontMatter

	text := string(data)
	trimmed := strings.TrimLeft(text, "\n")
	if !strings.HasPrefix(trimmed, "---") {
		return fm, text
	}

	rest := trimmed[3:]
	// The fence line itself must end in a newline (or EOF) to be a real fence.
	if idx := strings.IndexByte(rest, '\n'); idx == -1 || strings.TrimSpace(rest[:idx]) != "" {
		return fm, text
	} else {
		rest = rest[idx+1:]
	}

	closeIdx := findClosingFence(rest)
	if closeIdx == -1 {
		// No closing fence: treat the whole thing as body, front matter absent.
		return fm, text
	}

	raw := rest[:closeIdx]
	body := rest[closeIdx:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	} else {
		body = ""
	}

	_ = yaml.Unmarshal([]byte(raw), &fm) // syntax errors are non-fatal per spec.md §4.4
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

func filenameStem(filePath string) string {
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// firstParagraph returns the first non-empty paragraph of body, skipping
// leading headings and horizontal rules, using goldmark's block parser so
// that heading/HR/paragraph boundaries are recognised the way a markdown
// renderer would see them rather than by ad hoc line matching.
func firstParagraph(body string) string {
	src := []byte(body)
	reader := text.NewReader(src)
	doc := goldmark.DefaultParser().Parse(reader)

	var found string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch n.Kind() {
		case ast.KindHeading, ast.KindThematicBreak:
			continue
		case ast.KindParagraph:
			found = extractText(n, src)
		}
		if found != "" {
			return found
		}
		// Any other non-skippable, non-paragraph block ends the search: the
		// spec only asks us to skip headings and horizontal rules.
		return ""
	}
	return found
}

func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
		} else if c.Type() == ast.TypeInline {
			buf.Write(extractInline(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

func extractInline(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	if t, ok := n.(*ast.Text); ok {
		buf.Write(t.Segment.Value(src))
		return buf.Bytes()
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		buf.Write(extractInline(c, src))
	}
	return buf.Bytes()
}
