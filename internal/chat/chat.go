// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat defines the request-scoped conversation types shared by the
// prompt assembler and the HTTP handlers: turns, history windows, and the
// per-request generation options.
package chat

// Response length tiers recognized in GenerationConfig.ResponseLength.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// Token budgets for each response length tier.
const (
	tokensShort  = 300
	tokensMedium = 600
	tokensLong   = 1000
)

// ContextTurns is the number of most recent turns folded into the prompt.
// Older turns are dropped silently; there is no summarization.
const ContextTurns = 5

// HistoryLimit is the maximum history length the client page keeps and
// sends. The pipeline does not enforce it; the bound is owned by the UI.
const HistoryLimit = 8

// Turn is one completed user/assistant exchange. Turns are immutable once
// created and owned by the caller-supplied history; the pipeline never
// modifies or stores them.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// GenerationConfig carries the per-request options recognized by the
// pipeline. Any ResponseLength outside the known tiers resolves to the
// medium budget rather than failing the request.
type GenerationConfig struct {
	ResponseLength string `json:"responseLength"`
	SessionMemory  bool   `json:"sessionMemory"`
}

// MaxTokens resolves the configured response length to a token budget.
func (c GenerationConfig) MaxTokens() int {
	switch c.ResponseLength {
	case LengthShort:
		return tokensShort
	case LengthLong:
		return tokensLong
	default:
		return tokensMedium
	}
}

// Window returns the most recent n turns of history in original order.
// The returned slice aliases history; callers must not modify it.
func Window(history []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
