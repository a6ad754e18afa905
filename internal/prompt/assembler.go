// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt assembles the flattened prompt text sent to the inference
// engine: a fixed system directive, an optional window of recent turns, and
// the new user message terminated by an open assistant label.
package prompt

import (
	"strings"

	"github.com/morganforge/rekon-gpt/internal/chat"
)

// Turn labels used in the assembled prompt. Generation stops when the model
// emits the next label, so it cannot run on into a fabricated turn.
const (
	UserLabel      = "User:"
	AssistantLabel = "Assistant:"
)

// StopSequences terminate generation at the start of the next turn.
var StopSequences = []string{UserLabel, "\n\n" + UserLabel, AssistantLabel}

// systemDirective is prepended to every prompt. It is a constant of the
// system and not user-configurable.
const systemDirective = `You are R3KON GPT, a professional cybersecurity assistant.
CRITICAL RULES:
1. ALWAYS respond in English only. Never use Chinese or any other language.
2. Stay strictly on topic related to cybersecurity, programming, or the user's question.
3. Keep responses clear, concise, and professional.
4. Use structured formatting: bullet points, numbered lists, or paragraphs as appropriate.
5. Never repeat yourself or generate repetitive content.
6. If asked something off-topic, politely redirect to cybersecurity topics.
`

// transcriptHeader introduces the recent-conversation block.
const transcriptHeader = "--- Recent Conversation ---"

// Assemble builds the prompt for one request. When cfg.SessionMemory is set
// and history is non-empty, the most recent chat.ContextTurns turns are
// rendered as labeled line pairs in original order; older turns are dropped.
// The user message is included verbatim; turn-label tokens inside it are
// not escaped.
//
// Assemble is pure: it never modifies history, and the result is built
// fresh on every call.
func Assemble(userMessage string, cfg chat.GenerationConfig, history []chat.Turn) string {
	var b strings.Builder
	b.WriteString(systemDirective)

	if cfg.SessionMemory && len(history) > 0 {
		b.WriteString("\n\n" + transcriptHeader)
		for _, turn := range chat.Window(history, chat.ContextTurns) {
			b.WriteString("\n" + UserLabel + " " + turn.User)
			b.WriteString("\n" + AssistantLabel + " " + turn.Assistant)
		}
	}

	b.WriteString("\n\n" + UserLabel + " " + userMessage)
	b.WriteString("\n" + AssistantLabel)
	return b.String()
}
