// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine runs the local llama.cpp inference server and gates all
// access to it.
//
// The engine spawns a llama-server child process, polls its health endpoint
// until the model has loaded, and then serializes completion requests to it.
// Until the model is loaded, Generate fails fast with ErrNotReady so the
// HTTP layer can answer immediately instead of queuing behind the load.
//
// # Key Types
//
//   - Engine: Process owner and inference gate (ready flag + mutex)
//   - Client: HTTP client for the llama.cpp /completion and /health API
//   - Config: Launch parameters (binary, port, context size, threads)
//
// # Usage
//
// Create an engine, load in the background, generate once ready:
//
//	eng := engine.New(engine.DefaultConfig())
//	go func() {
//	    if err := eng.Load(ctx); err != nil {
//	        log.Printf("ENGINE_LOAD_FAILED | error=%v", err)
//	    }
//	}()
//
//	if eng.Ready() {
//	    text, err := eng.Generate(ctx, prompt, 600)
//	    ...
//	}
//
// # Sampling
//
// Sampling parameters are fixed constants tuned for the bundled model; only
// the prompt and token budget vary per request. See params.go.
package engine
