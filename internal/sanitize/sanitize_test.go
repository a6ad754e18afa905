// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sanitize

import (
	"strings"
	"testing"
)

// =============================================================================
// TOTALITY TESTS
// =============================================================================

func TestClean_NeverEmpty(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"\n\n\n",
		"\t \n",
		"你好",       // entirely foreign, stripped then too short
		"ab",       // too short
		"一 二 三 四 五", // mostly foreign
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got := Clean(in)
			if got == "" {
				t.Errorf("Clean(%q) returned empty string", in)
			}
		})
	}
}

func TestClean_EmptyInput(t *testing.T) {
	if got := Clean(""); got != RephraseReply {
		t.Errorf("Clean(\"\") = %q, want rephrase fallback", got)
	}
}

// =============================================================================
// FOREIGN SCRIPT TESTS
// =============================================================================

func TestClean_MostlyForeignReplaced(t *testing.T) {
	// 4 CJK out of 6 non-whitespace runes = 0.66 > 0.3
	got := Clean("ab 你好世界")
	if got != EnglishOnlyReply {
		t.Errorf("Clean = %q, want English-only fallback", got)
	}
}

func TestClean_RatioBoundary(t *testing.T) {
	// Exactly 30 foreign of 100 runes = 0.30: not greater than the
	// threshold, so the reply is kept with the foreign runes stripped.
	at := strings.Repeat("x", 70) + strings.Repeat("你", 30)
	got := Clean(at)
	if got != strings.Repeat("x", 70) {
		t.Errorf("ratio exactly 0.30 must keep the stripped reply, got %q", got)
	}

	// 31 foreign of 100 = 0.31: strictly greater, fallback fires.
	over := strings.Repeat("x", 69) + strings.Repeat("你", 31)
	if got := Clean(over); got != EnglishOnlyReply {
		t.Errorf("ratio 0.31 must trigger the fallback, got %q", got)
	}
}

func TestClean_WhitespaceExcludedFromRatio(t *testing.T) {
	// 2 foreign of 4 non-whitespace runes regardless of padding
	got := Clean("a b    你 好")
	if got != EnglishOnlyReply {
		t.Errorf("whitespace must not dilute the ratio, got %q", got)
	}
}

func TestClean_MinorityForeignStripped(t *testing.T) {
	got := Clean("This is a perfectly normal English reply 你 with one stray rune.")
	if strings.ContainsRune(got, '你') {
		t.Errorf("stray CJK rune survived: %q", got)
	}
	if got == EnglishOnlyReply || got == RephraseReply {
		t.Errorf("mostly-English reply replaced by fallback: %q", got)
	}
}

// =============================================================================
// STRUCTURE TESTS
// =============================================================================

func TestClean_CollapsesBlankRuns(t *testing.T) {
	got := Clean("first paragraph here\n\n\n\nsecond paragraph here")
	if strings.Contains(got, "\n\n") {
		// Blank lines are dropped entirely during line filtering.
		t.Errorf("blank lines survived: %q", got)
	}
	if !strings.Contains(got, "first paragraph here") || !strings.Contains(got, "second paragraph here") {
		t.Errorf("content lost while collapsing: %q", got)
	}
}

func TestClean_WindowTwoDedup(t *testing.T) {
	got := Clean("Alpha line content\nAlpha line content\nBeta line content\nAlpha line content")
	want := "Alpha line content\nBeta line content\nAlpha line content"
	if got != want {
		t.Errorf("Clean = %q, want %q", got, want)
	}
}

func TestClean_RepeatsOutsideWindowKept(t *testing.T) {
	// The repeated list marker is three lines back, outside the window.
	in := "- item one here\n- item two here\n- item three here\n- item one here"
	got := Clean(in)
	if strings.Count(got, "- item one here") != 2 {
		t.Errorf("repetition outside the window was removed: %q", got)
	}
}

func TestClean_ImmediateRepetitionRemoved(t *testing.T) {
	in := strings.Repeat("I will not repeat myself.\n", 5)
	got := Clean(in)
	if strings.Count(got, "I will not repeat myself.") != 1 {
		t.Errorf("immediate repetition survived: %q", got)
	}
}

// =============================================================================
// LENGTH FALLBACK TESTS
// =============================================================================

func TestClean_ShortReplyReplaced(t *testing.T) {
	if got := Clean("ok then."); got != RephraseReply {
		t.Errorf("Clean(short) = %q, want rephrase fallback", got)
	}
}

func TestClean_TenRunesKept(t *testing.T) {
	// Exactly 10 runes meets the minimum.
	in := "0123456789"
	if got := Clean(in); got != in {
		t.Errorf("Clean(%q) = %q, want unchanged", in, got)
	}
}

// =============================================================================
// IDEMPOTENCE TESTS
// =============================================================================

func TestClean_IdempotentOnCleanText(t *testing.T) {
	inputs := []string{
		"A single plain sentence of reasonable length.",
		"Line one of the answer\nLine two of the answer\nLine three here",
		"Use strong passwords.\nEnable MFA everywhere.\nPatch your systems.",
	}

	for _, in := range inputs {
		t.Run(in[:12], func(t *testing.T) {
			once := Clean(in)
			twice := Clean(once)
			if once != twice {
				t.Errorf("Clean not idempotent:\nonce:  %q\ntwice: %q", once, twice)
			}
		})
	}
}

func TestClean_FallbacksAreFixedPoints(t *testing.T) {
	if got := Clean(EnglishOnlyReply); got != EnglishOnlyReply {
		t.Errorf("Clean(EnglishOnlyReply) = %q", got)
	}
	if got := Clean(RephraseReply); got != RephraseReply {
		t.Errorf("Clean(RephraseReply) = %q", got)
	}
}

// =============================================================================
// RATIO HELPER TESTS
// =============================================================================

func TestForeignRatio(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  float64
	}{
		{"empty", "", 0},
		{"whitespace only", "  \n\t ", 0},
		{"pure english", "hello", 0},
		{"pure foreign", "你好", 1},
		{"half", "ab你好", 0.5},
		{"whitespace ignored", "a 你", 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := foreignRatio(tc.input); got != tc.want {
				t.Errorf("foreignRatio(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
