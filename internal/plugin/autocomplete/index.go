package autocomplete

import (
	"sort"
	"strings"
)

// Nameable is anything the index can score by name and aliases: both
// command.SlashCommand and a plugin sub-command share this shape.
type Nameable struct {
	Name        string
	Aliases     []string
	Description string
}

// Candidate is one scored autocomplete suggestion.
type Candidate struct {
	Label       string
	Description string
	Score       int
	Ranges      []Range
}

// subCommandSet names the sub-commands of a top-level command that supports
// them, and the closed positional-argument vocabulary for level 3 (spec.md
// §4.5's "lsp install|start|stop... <server>" example set).
type subCommandSet struct {
	SubCommands []Nameable
	Positional  map[string][]string // sub-command name -> known values
}

// Index scores and ranks candidates across the three levels described in
// spec.md §4.5. Commands is the full level-1 registry; SubCommands maps a
// top-level command name to its level-2/level-3 vocabulary.
type Index struct {
	Commands    []Nameable
	SubCommands map[string]subCommandSet
}

// NewIndex builds an Index from a flat command list and the closed
// sub-command/positional vocabulary table. Commands without an entry in
// subCommands simply have no level-2/level-3 candidates.
func NewIndex(commands []Nameable) *Index {
	return &Index{Commands: commands, SubCommands: defaultSubCommands()}
}

// WithSubCommands registers (or replaces) the sub-command/positional
// vocabulary for a top-level command name.
func (idx *Index) WithSubCommands(command string, subs []Nameable, positional map[string][]string) {
	if idx.SubCommands == nil {
		idx.SubCommands = map[string]subCommandSet{}
	}
	idx.SubCommands[command] = subCommandSet{SubCommands: subs, Positional: positional}
}

// Query scores input against the right level: a bare "/partial" scores
// level 1; "/cmd partial" scores level 2 (and level 3 when cmd's
// sub-command vocabulary has a positional-argument list for the typed
// sub-command). Results are sorted by score descending, then alphabetically
// by label.
func (idx *Index) Query(input string) []Candidate {
	trimmed := strings.TrimPrefix(input, "/")
	fields := strings.SplitN(trimmed, " ", 2)

	if len(fields) == 1 {
		return rank(scoreLevel1(idx.Commands, strings.ToLower(fields[0])))
	}

	cmdName, rest := fields[0], strings.TrimSpace(fields[1])
	set, ok := idx.SubCommands[cmdName]
	if !ok {
		return nil
	}

	subFields := strings.SplitN(rest, " ", 2)
	subQuery := strings.ToLower(subFields[0])

	if len(subFields) == 1 {
		return rank(scoreLevel2(cmdName, set.SubCommands, subQuery))
	}

	values, ok := set.Positional[subFields[0]]
	if !ok {
		return nil
	}
	return rank(scoreLevel3(values, strings.ToLower(subFields[1])))
}

func scoreLevel1(commands []Nameable, query string) []Candidate {
	var out []Candidate
	for _, c := range commands {
		best, bestRanges, matched := bestOf(c.Name, c.Aliases, query)
		if !matched {
			continue
		}
		out = append(out, Candidate{Label: c.Name, Description: c.Description, Score: best, Ranges: bestRanges})
	}
	return out
}

func scoreLevel2(cmdName string, subs []Nameable, query string) []Candidate {
	var out []Candidate
	for _, s := range subs {
		best, bestRanges, matched := bestOf(s.Name, s.Aliases, query)
		if !matched {
			continue
		}
		out = append(out, Candidate{
			Label:       cmdName + " " + s.Name,
			Description: s.Description,
			Score:       best,
			Ranges:      bestRanges,
		})
	}
	return out
}

func scoreLevel3(values []string, query string) []Candidate {
	var out []Candidate
	for _, v := range values {
		score, ranges, matched := Score(query, strings.ToLower(v))
		if !matched {
			continue
		}
		out = append(out, Candidate{Label: v, Score: score, Ranges: ranges})
	}
	return out
}

// bestOf scores name and every alias, keeping the higher-scoring match; a
// non-matching name with a matching alias still counts as matched.
func bestOf(name string, aliases []string, query string) (int, []Range, bool) {
	bestScore, bestRanges, matched := Score(query, strings.ToLower(name))
	for _, a := range aliases {
		s, r, ok := Score(query, strings.ToLower(a))
		if ok && (!matched || s > bestScore) {
			bestScore, bestRanges, matched = s, r, true
		}
	}
	return bestScore, bestRanges, matched
}

func rank(cands []Candidate) []Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Label < cands[j].Label
	})
	return cands
}

// defaultSubCommands seeds the closed level-2/level-3 vocabulary named in
// spec.md §4.5: "lsp install|start|stop|restart|enable|disable <server>",
// "auth set|clear <provider>".
func defaultSubCommands() map[string]subCommandSet {
	lspSubs := []Nameable{
		{Name: "install"}, {Name: "start"}, {Name: "stop"},
		{Name: "restart"}, {Name: "enable"}, {Name: "disable"},
	}
	lspServers := []string{"gopls", "typescript-language-server", "pyright", "rust-analyzer", "clangd"}
	lspPositional := map[string][]string{}
	for _, s := range lspSubs {
		lspPositional[s.Name] = lspServers
	}

	authSubs := []Nameable{{Name: "set"}, {Name: "clear"}}
	authProviders := []string{"anthropic", "openai", "google", "azure"}
	authPositional := map[string][]string{
		"set":   authProviders,
		"clear": authProviders,
	}

	return map[string]subCommandSet{
		"lsp":  {SubCommands: lspSubs, Positional: lspPositional},
		"auth": {SubCommands: authSubs, Positional: authPositional},
	}
}
