// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sanitize post-processes raw model output before it reaches the
// client: foreign-script filtering, blank-line collapsing, short-range
// repetition removal, and fallback substitution for degenerate replies.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"

	"github.com/morganforge/rekon-gpt/internal/util"
)

// Fallback replies substituted for degenerate output.
const (
	// EnglishOnlyReply replaces output that is predominantly foreign script.
	EnglishOnlyReply = "I apologize, but I can only respond in English."

	// RephraseReply replaces output too short to be a useful answer.
	RephraseReply = "I encountered an issue. Please try rephrasing your question."
)

// Frozen tuning constants. Small local models drift into CJK output and
// short repetition loops; these values are part of the observable contract
// and must not be "improved".
const (
	// foreignRatioLimit is the strictly-greater threshold on the fraction
	// of non-whitespace runes inside disallowedBlock.
	foreignRatioLimit = 0.3

	// minReplyRunes is the minimum length of a usable reply.
	minReplyRunes = 10

	// dedupeWindow is how many immediately preceding kept lines a line is
	// compared against. A window, not a set: repetition loops are caught
	// while repeated structure further apart (numbered lists) survives.
	dedupeWindow = 2
)

// disallowedBlock is the CJK Unified Ideographs block (U+4E00–U+9FFF).
var disallowedBlock = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x4e00, Hi: 0x9fff, Stride: 1}},
}

// stripForeign removes every rune in disallowedBlock.
var stripForeign = runes.Remove(runes.In(disallowedBlock))

// blankRuns matches runs of two or more newlines, which collapse to a
// single blank line.
var blankRuns = regexp.MustCompile(`\n{2,}`)

// Clean sanitizes one raw completion. It is pure and total: any input,
// including empty or entirely foreign-script text, yields a non-empty
// reply rather than an error.
func Clean(raw string) string {
	reply := strings.TrimSpace(raw)

	// Mostly-foreign output is discarded whole; stripping it would leave
	// disconnected fragments rather than an answer.
	if foreignRatio(reply) > foreignRatioLimit {
		return EnglishOnlyReply
	}

	reply = stripForeign.String(reply)
	reply = blankRuns.ReplaceAllString(reply, "\n\n")
	reply = strings.TrimSpace(reply)

	lines := strings.Split(reply, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if recentDuplicate(kept, line) {
			continue
		}
		kept = append(kept, line)
	}
	reply = strings.Join(kept, "\n")

	if util.RuneLen(reply) < minReplyRunes {
		return RephraseReply
	}
	return reply
}

// foreignRatio returns the fraction of non-whitespace runes that fall in
// disallowedBlock. Zero for empty or all-whitespace input.
func foreignRatio(s string) float64 {
	var total, foreign int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(disallowedBlock, r) {
			foreign++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(foreign) / float64(total)
}

// recentDuplicate reports whether line textually equals one of the last
// dedupeWindow kept lines.
func recentDuplicate(kept []string, line string) bool {
	start := len(kept) - dedupeWindow
	if start < 0 {
		start = 0
	}
	for _, prev := range kept[start:] {
		if prev == line {
			return true
		}
	}
	return false
}
