// Package autocomplete implements the fuzzy-match scorer and the
// three-level candidate generator driving the plugin command autocomplete
// panel.
package autocomplete

import "strings"

// Range is a half-open [start, end) span into the target string that
// contributed to a fuzzy match, used by callers to highlight matched
// characters.
type Range [2]int

// Score computes the fuzzy-match score of query against target per
// spec.md §4.5. query must already be lowercased by the caller (the index
// does this once per keystroke rather than per candidate). ok is false only
// when target does not contain query's characters, in order, as a
// subsequence; a zero-length query always matches with score 0 and no
// ranges.
func Score(query, target string) (score int, ranges []Range, ok bool) {
	if query == "" {
		return 0, nil, true
	}

	if query == target {
		return 100 + 10*len(query), []Range{{0, len(target)}}, true
	}

	if strings.HasPrefix(target, query) {
		base := 80 + 10*len(query) - (len(target) - len(query))
		return base + wordBoundaryBonus(target, 0), []Range{{0, len(query)}}, true
	}

	return subsequenceScore(query, target)
}

// subsequenceScore implements the left-to-right scan branch: query
// characters are consumed in order against target, each match scoring a
// base plus word-boundary and consecutive-run bonuses, each unmatched
// target character (after the first match) costing a point.
func subsequenceScore(query, target string) (int, []Range, bool) {
	qi := 0
	total := 0
	var ranges []Range
	runLength := 0
	lastMatchIdx := -2 // far enough back that idx 0 never looks "consecutive"
	matchedAny := false

	for ti := 0; ti < len(target) && qi < len(query); ti++ {
		if target[ti] != query[qi] {
			if matchedAny {
				total--
			}
			continue
		}

		consecutive := ti == lastMatchIdx+1
		if consecutive {
			runLength++
		} else {
			runLength = 0
		}

		bonus := wordBoundaryBonus(target, ti) + consecutiveBonus(runLength, consecutive)
		total += 10 + bonus

		if consecutive && len(ranges) > 0 {
			last := &ranges[len(ranges)-1]
			last[1] = ti + 1
		} else {
			ranges = append(ranges, Range{ti, ti + 1})
		}

		lastMatchIdx = ti
		matchedAny = true
		qi++
	}

	if qi < len(query) {
		return 0, nil, false
	}
	return total, ranges, true
}

// wordBoundaryBonus returns 3 when idx is the start of target or immediately
// follows a '-' or '_', else 0.
func wordBoundaryBonus(target string, idx int) int {
	if idx == 0 {
		return 3
	}
	switch target[idx-1] {
	case '-', '_':
		return 3
	default:
		return 0
	}
}

// consecutiveBonus returns min(runLength+1, 5) when this match immediately
// follows the previous one, else 1.
func consecutiveBonus(runLength int, consecutive bool) int {
	if !consecutive {
		return 1
	}
	if runLength+1 > 5 {
		return 5
	}
	return runLength + 1
}
