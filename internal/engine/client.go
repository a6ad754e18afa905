// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents a failure talking to or readying the inference
// server.
type ClientError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorKind categorizes engine errors for handling.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	ErrKindNotReady
	ErrKindTimeout
	ErrKindConnection
	ErrKindModelMissing
	ErrKindInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrNotReady = &ClientError{Kind: ErrKindNotReady, Message: "model not loaded"}
	ErrTimeout  = &ClientError{Kind: ErrKindTimeout, Message: "inference request timed out"}
	ErrDown     = &ClientError{Kind: ErrKindConnection, Message: "inference server is not running"}
)

// IsNotReady reports whether err indicates the engine has not finished
// loading.
func IsNotReady(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Kind == ErrKindNotReady
	}
	return errors.Is(err, ErrNotReady)
}

// IsTimeout reports whether err is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Kind == ErrKindTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig holds configuration for the llama.cpp HTTP client.
type ClientConfig struct {
	// BaseURL of the llama-server instance (default: http://127.0.0.1:8181).
	// Explicit IPv4 avoids IPv6 localhost resolution issues on Windows.
	BaseURL string

	// Timeout for a single completion request. Generation of a long reply
	// on CPU takes tens of seconds, so this is generous by default (120s).
	Timeout time.Duration
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:8181",
		Timeout: 120 * time.Second,
	}
}

// Client is the HTTP client for the local llama.cpp server. It is safe for
// concurrent use; serialization of completions is the Engine's job, not the
// Client's.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a client, filling in defaults for zero values.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8181"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// CheckHealth verifies that the server is reachable and has finished
// loading the model. llama-server answers /health with 503 while loading.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return &ClientError{Kind: ErrKindConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrDown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Kind:    ErrKindConnection,
			Message: "inference server not ready: " + resp.Status,
		}
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return &ClientError{Kind: ErrKindInvalidResponse, Message: "failed to decode health response", Cause: err}
	}
	if health.Status != "" && health.Status != "ok" {
		return &ClientError{
			Kind:    ErrKindConnection,
			Message: "inference server status: " + health.Status,
		}
	}

	return nil
}

// Complete sends one completion request and returns the full response.
func (c *Client) Complete(ctx context.Context, request CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, &ClientError{Kind: ErrKindInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Kind: ErrKindConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrDown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Surface the server's own error message when it sends one.
		var srvErr serverError
		if err := json.NewDecoder(resp.Body).Decode(&srvErr); err == nil && srvErr.Error.Message != "" {
			return nil, &ClientError{
				Kind:    ErrKindInvalidResponse,
				Message: srvErr.Error.Message,
			}
		}
		return nil, &ClientError{
			Kind:    ErrKindInvalidResponse,
			Message: "completion request failed: " + resp.Status,
		}
	}

	var result CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Kind: ErrKindInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return &result, nil
}
