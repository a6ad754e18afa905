// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine runs the local llama.cpp inference server and gates access
// to it.
package engine

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CompletionRequest is the request body for the llama.cpp /completion
// endpoint. The sampling fields are always populated from the fixed
// parameter set in params.go; only Prompt and NPredict vary per request.
type CompletionRequest struct {
	Prompt           string   `json:"prompt"`
	NPredict         int      `json:"n_predict"`          // max tokens to generate
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"top_p"`
	TopK             int      `json:"top_k"`
	RepeatPenalty    float64  `json:"repeat_penalty"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	PresencePenalty  float64  `json:"presence_penalty"`
	Stop             []string `json:"stop,omitempty"` // sequences that end generation
	Stream           bool     `json:"stream"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// CompletionResponse is the response from /completion. The prompt is never
// echoed back; Content holds only generated text.
type CompletionResponse struct {
	Content         string `json:"content"`
	Stop            bool   `json:"stop"`
	StoppedEOS      bool   `json:"stopped_eos,omitempty"`
	StoppedWord     bool   `json:"stopped_word,omitempty"`
	StoppedLimit    bool   `json:"stopped_limit,omitempty"`
	StoppingWord    string `json:"stopping_word,omitempty"`
	TokensPredicted int    `json:"tokens_predicted,omitempty"`
	TokensEvaluated int    `json:"tokens_evaluated,omitempty"`
}

// HealthResponse is the response from /health once the model has loaded.
type HealthResponse struct {
	Status string `json:"status"`
}

// serverError is the error envelope llama.cpp returns on non-200 responses.
type serverError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
