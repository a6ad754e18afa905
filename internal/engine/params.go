// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

// =============================================================================
// SAMPLING PARAMETERS
// =============================================================================

// Fixed sampling parameters applied to every completion. These are tuned for
// a small quantized chat model and are not user-configurable: the repetition
// penalties in particular work together with the output sanitizer, and
// loosening them re-introduces the degenerate loops the sanitizer exists to
// catch.
const (
	temperature      = 0.7
	topP             = 0.9
	topK             = 40
	repeatPenalty    = 1.2
	frequencyPenalty = 0.3
	presencePenalty  = 0.3
)

// newCompletionRequest builds a request with the fixed sampling set. Only
// the prompt, token budget, and stop sequences vary per call.
func newCompletionRequest(prompt string, maxTokens int, stop []string) CompletionRequest {
	return CompletionRequest{
		Prompt:           prompt,
		NPredict:         maxTokens,
		Temperature:      temperature,
		TopP:             topP,
		TopK:             topK,
		RepeatPenalty:    repeatPenalty,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
		Stop:             stop,
		Stream:           false,
	}
}
