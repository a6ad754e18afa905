// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the local HTTP API behind the chat page.
//
// Endpoints:
//   - POST /api/chat   - One conversational exchange
//   - GET  /api/status - Model readiness for UI polling
//   - GET  /           - Embedded chat page
//
// The server binds loopback only: it is the process-local seam between the
// embedded browser page and the inference pipeline, not a network service.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/morganforge/rekon-gpt/internal/chat"
	"github.com/morganforge/rekon-gpt/internal/engine"
	"github.com/morganforge/rekon-gpt/internal/prompt"
	"github.com/morganforge/rekon-gpt/internal/sanitize"
	"github.com/morganforge/rekon-gpt/internal/util"
)

//go:embed static
var staticFiles embed.FS

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize is the maximum size for a request body (1MB). With
	// an 8-turn history cap the legitimate payload is a few KB; anything
	// near the limit is malformed or hostile.
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageLength is the maximum length in runes for a single message.
	MaxMessageLength = 8000

	// statusReady is reported once the model has loaded.
	statusReady = "ready"

	// statusLoading is reported while the model is still loading.
	statusLoading = "loading"

	// Version is the server version.
	Version = "1.0.0"
)

// ============================================================================
// GENERATOR
// ============================================================================

// Generator is the inference surface the chat handler depends on. The
// concrete implementation is *engine.Engine; tests substitute a stub.
type Generator interface {
	// Ready reports whether the model has finished loading.
	Ready() bool

	// Generate runs one completion and returns the raw generated text.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ============================================================================
// API TYPES
// ============================================================================

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message string                `json:"message"`
	History []chat.Turn           `json:"history"`
	Config  chat.GenerationConfig `json:"config"`
}

// ChatResponse is the success body for POST /api/chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// StatusResponse is the body for GET /api/status.
type StatusResponse struct {
	ModelLoaded bool   `json:"modelLoaded"`
	Status      string `json:"status"`
}

// ErrorResponse is the body for every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ============================================================================
// SERVER
// ============================================================================

// Config holds the server configuration.
type Config struct {
	// Host to bind (loopback only).
	Host string

	// Port to bind. 0 picks a free ephemeral port.
	Port int

	// RateLimitRPS is the sustained per-client request rate.
	RateLimitRPS float64

	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int

	// MaxBodyBytes caps the request body size. 0 uses MaxRequestBodySize.
	MaxBodyBytes int64
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           0,
		RateLimitRPS:   5,
		RateLimitBurst: 10,
		MaxBodyBytes:   MaxRequestBodySize,
	}
}

// Server is the local HTTP API server.
type Server struct {
	config Config
	engine Generator

	router   *http.ServeMux
	server   *http.Server
	listener net.Listener

	mu sync.Mutex
}

// NewServer creates a server wired to the given generator. The listener is
// not opened until Listen.
func NewServer(config Config, gen Generator) *Server {
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = 5
	}
	if config.RateLimitBurst == 0 {
		config.RateLimitBurst = 10
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = MaxRequestBodySize
	}

	s := &Server{
		config: config,
		engine: gen,
		router: http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

// Handler returns the fully wrapped HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	chain := Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		CORSMiddleware(DefaultCORSConfig()),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)),
	)
	return chain(s.router)
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("GET /api/status", s.handleStatus)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The embed is part of the binary; a bad sub-path is a build defect.
		panic(fmt.Sprintf("embedded static files missing: %v", err))
	}
	s.router.Handle("GET /", http.FileServerFS(static))
}

// ============================================================================
// HANDLERS
// ============================================================================

// handleStatus reports model readiness. The page polls this during startup
// to flip from the loading banner to the input box.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := statusLoading
	loaded := s.engine.Ready()
	if loaded {
		status = statusReady
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		ModelLoaded: loaded,
		Status:      status,
	})
}

// handleChat runs one exchange through the pipeline: assemble the prompt,
// generate, sanitize, reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validation order is part of the contract: a bad request is reported
	// as such even while the model is still loading.
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}
	if len([]rune(req.Message)) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "Message too long")
		return
	}

	if !s.engine.Ready() {
		writeError(w, http.StatusInternalServerError, "Model not loaded")
		return
	}

	log.Printf("CHAT_REQUEST | msg=%q history=%d memory=%t",
		util.TruncateRunes(req.Message, 60), len(req.History), req.Config.SessionMemory)

	promptText := prompt.Assemble(req.Message, req.Config, req.History)

	start := time.Now()
	raw, err := s.engine.Generate(r.Context(), promptText, req.Config.MaxTokens())
	if err != nil {
		log.Printf("GENERATE_FAILED | error=%v", err)
		if engine.IsNotReady(err) {
			writeError(w, http.StatusInternalServerError, "Model not loaded")
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err))
		return
	}

	reply := sanitize.Clean(raw)
	log.Printf("CHAT_COMPLETED | tokens_max=%d duration=%.2fs reply_len=%d",
		req.Config.MaxTokens(), time.Since(start).Seconds(), len(reply))

	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Listen opens the listener. Separate from Serve so the caller learns the
// bound port (and can point the browser at it) before serving starts.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Serve blocks serving requests until Shutdown or a listener error.
func (s *Server) Serve() error {
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.mu.Unlock()

	if server == nil || listener == nil {
		return errors.New("server: Serve called before Listen")
	}

	log.Printf("SERVER_LISTENING | url=%s", s.URL())
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start is Listen followed by Serve, for callers that do not need the bound
// port in between.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Port returns the bound port, or 0 before Listen.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// URL returns the base URL of the bound server, or "" before Listen.
func (s *Server) URL() string {
	port := s.Port()
	if port == 0 {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", s.config.Host, port)
}

// ============================================================================
// RESPONSE HELPERS
// ============================================================================

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_FAILED | error=%v", err)
	}
}

// writeError writes a flat JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
