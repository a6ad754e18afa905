// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the loopback HTTP API behind the embedded chat
// page.
//
// # Endpoints
//
//   - POST /api/chat   - One conversational exchange through the pipeline
//   - GET  /api/status - Model readiness for UI polling
//   - GET  /           - Embedded chat page
//
// # Security Features
//
//   - Loopback-only bind; the API is never exposed on the network
//   - CORS restricted to localhost origins
//   - Per-client rate limiting
//   - Request body size caps
//   - Security headers (X-Content-Type-Options, X-Frame-Options, CSP)
//   - Panic recovery with stack trace logging
//
// # Key Types
//
//   - Server: HTTP server with router and middleware
//   - Config: Bind address, rate limits, and body caps
//   - Generator: The inference surface the chat handler depends on
//
// # Usage
//
//	srv := server.NewServer(server.DefaultConfig(), eng)
//	if err := srv.Listen(); err != nil {
//		log.Fatal(err)
//	}
//	go srv.Serve()
//	openBrowser(srv.URL())
package server
