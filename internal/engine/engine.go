// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/morganforge/rekon-gpt/internal/prompt"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the inference server launch parameters.
type Config struct {
	// Binary is the llama-server executable name or path.
	Binary string

	// Port the spawned server listens on (loopback only).
	Port int

	// ModelFile is the GGUF filename probed for in the install locations.
	ModelFile string

	// InstallDir is the primary directory probed for the model. Empty means
	// the executable's directory.
	InstallDir string

	// ContextSize is the model context window in tokens.
	ContextSize int

	// Threads is the CPU thread count for inference.
	Threads int

	// BatchSize is the prompt-evaluation batch size.
	BatchSize int

	// UseMlock locks model weights in RAM to avoid swap stalls mid-reply.
	UseMlock bool

	// UseMmap memory-maps the model file instead of reading it whole.
	UseMmap bool

	// StartupTimeout bounds how long Load waits for the server to come up.
	StartupTimeout time.Duration

	// RequestTimeout bounds a single completion request.
	RequestTimeout time.Duration
}

// DefaultConfig returns launch parameters tuned for the bundled model.
func DefaultConfig() Config {
	return Config{
		Binary:         "llama-server",
		Port:           8181,
		ModelFile:      DefaultModelFile,
		ContextSize:    3072,
		Threads:        8,
		BatchSize:      512,
		UseMlock:       true,
		UseMmap:        true,
		StartupTimeout: 120 * time.Second,
		RequestTimeout: 120 * time.Second,
	}
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine owns the spawned llama.cpp server process and gates all access to
// it. Readiness flips exactly once, after the model has loaded; until then
// Generate fails fast with ErrNotReady without touching the server.
//
// Completions are serialized: a single-model llama-server interleaving two
// generations degrades both, so concurrent Generate calls queue on a mutex
// rather than race.
type Engine struct {
	config Config
	client *Client

	cmd *exec.Cmd

	ready atomic.Bool
	mu    sync.Mutex // serializes completion requests
}

// New creates an engine. The server process is not started until Load.
func New(config Config) *Engine {
	if config.Binary == "" {
		config.Binary = "llama-server"
	}
	if config.Port == 0 {
		config.Port = 8181
	}
	if config.ModelFile == "" {
		config.ModelFile = DefaultModelFile
	}
	if config.ContextSize == 0 {
		config.ContextSize = 3072
	}
	if config.Threads == 0 {
		config.Threads = 8
	}
	if config.BatchSize == 0 {
		config.BatchSize = 512
	}
	if config.StartupTimeout == 0 {
		config.StartupTimeout = 120 * time.Second
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 120 * time.Second
	}

	return &Engine{
		config: config,
		client: NewClient(&ClientConfig{
			BaseURL: fmt.Sprintf("http://127.0.0.1:%d", config.Port),
			Timeout: config.RequestTimeout,
		}),
	}
}

// Ready reports whether the model has finished loading. Lock-free; status
// polling must never queue behind a running generation.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// Load locates the model, spawns the inference server, and waits for it to
// answer health checks. On success the ready flag is set and stays set for
// the life of the process.
func (e *Engine) Load(ctx context.Context) error {
	modelPath, err := FindModel(e.config.ModelFile, e.config.InstallDir)
	if err != nil {
		return err
	}
	log.Printf("ENGINE_MODEL_FOUND | path=%s", modelPath)

	if err := e.startServer(modelPath); err != nil {
		return &ClientError{Kind: ErrKindConnection, Message: "failed to start inference server", Cause: err}
	}
	log.Printf("ENGINE_SERVER_STARTED | pid=%d port=%d", e.cmd.Process.Pid, e.config.Port)

	if err := e.waitReady(ctx); err != nil {
		e.Stop()
		return err
	}

	e.ready.Store(true)
	return nil
}

// Generate runs one completion through the loaded model and returns the raw
// generated text. Fails fast with ErrNotReady while the model is loading.
func (e *Engine) Generate(ctx context.Context, promptText string, maxTokens int) (string, error) {
	if !e.ready.Load() {
		return "", ErrNotReady
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	resp, err := e.client.Complete(ctx, newCompletionRequest(promptText, maxTokens, prompt.StopSequences))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Stop terminates the spawned server process. Safe to call when the process
// never started or already exited.
func (e *Engine) Stop() {
	if e.cmd == nil || e.cmd.Process == nil {
		return
	}
	if err := e.cmd.Process.Kill(); err != nil {
		log.Printf("ENGINE_STOP_FAILED | error=%v", err)
	}
	// Reap the child so it does not linger as a zombie.
	_ = e.cmd.Wait()
	e.cmd = nil
}

// serverArgs builds the llama-server command line.
func (e *Engine) serverArgs(modelPath string) []string {
	args := []string{
		"--model", modelPath,
		"--host", "127.0.0.1",
		"--port", strconv.Itoa(e.config.Port),
		"--ctx-size", strconv.Itoa(e.config.ContextSize),
		"--threads", strconv.Itoa(e.config.Threads),
		"--batch-size", strconv.Itoa(e.config.BatchSize),
	}
	if e.config.UseMlock {
		args = append(args, "--mlock")
	}
	if !e.config.UseMmap {
		args = append(args, "--no-mmap")
	}
	return args
}

// waitReady polls the health endpoint until the model has loaded or the
// startup timeout elapses. llama-server accepts connections well before the
// weights are in memory, so a TCP connect is not enough.
func (e *Engine) waitReady(ctx context.Context) error {
	deadline := time.Now().Add(e.config.StartupTimeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := e.client.CheckHealth(probeCtx)
		cancel()
		if err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return &ClientError{
				Kind:    ErrKindTimeout,
				Message: "inference server did not become ready",
				Cause:   err,
			}
		}

		select {
		case <-ctx.Done():
			return &ClientError{Kind: ErrKindConnection, Message: "startup cancelled", Cause: ctx.Err()}
		case <-ticker.C:
		}
	}
}
