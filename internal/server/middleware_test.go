// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// =============================================================================
// SECURITY HEADERS TESTS
// =============================================================================

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeadersMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	tests := []struct {
		header string
		want   string
	}{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Cache-Control", "no-store"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
	}
	for _, tt := range tests {
		if got := rec.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy not set")
	}
}

// =============================================================================
// CORS TESTS
// =============================================================================

func TestCORS_LocalhostAllowed(t *testing.T) {
	handler := CORSMiddleware(DefaultCORSConfig())(okHandler())

	origins := []string{
		"http://localhost",
		"http://127.0.0.1",
		"http://localhost:3000",
		"http://127.0.0.1:8080",
	}
	for _, origin := range origins {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Errorf("origin %s: Allow-Origin = %q, want echoed back", origin, got)
		}
	}
}

func TestCORS_ForeignOriginRejected(t *testing.T) {
	handler := CORSMiddleware(DefaultCORSConfig())(okHandler())

	origins := []string{
		"http://evil.example.com",
		"http://localhost.evil.com",
		"https://127.0.0.1.attacker.net",
	}
	for _, origin := range origins {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("origin %s: Allow-Origin = %q, want no CORS headers", origin, got)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORSMiddleware(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the next handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("preflight missing Allow-Methods")
	}
}

// =============================================================================
// RATE LIMIT TESTS
// =============================================================================

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("127.0.0.1") {
			t.Fatalf("request %d within burst denied", i)
		}
	}
	if rl.Allow("127.0.0.1") {
		t.Error("request beyond burst allowed")
	}
}

func TestRateLimiter_PerClientBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client denied")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("first client's bucket not exhausted")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second client shares the first client's bucket")
	}
}

func TestRateLimitMiddleware_TooManyRequests(t *testing.T) {
	handler := RateLimitMiddleware(NewRateLimiter(1, 1))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "127.0.0.1:54321"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want \"1\"", got)
	}
}

// =============================================================================
// LOGGING TESTS
// =============================================================================

func TestLoggingMiddleware_RequestID(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	handler := LoggingMiddleware(logger)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("X-Request-Id not set")
	}
}

// =============================================================================
// RECOVERY TESTS
// =============================================================================

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// =============================================================================
// CHAIN TESTS
// =============================================================================

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mw("first"), mw("second"), mw("third"))(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

// =============================================================================
// CLIENT IP TESTS
// =============================================================================

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"127.0.0.1:54321", "127.0.0.1"},
		{"[::1]:54321", "::1"},
		{"127.0.0.1", "127.0.0.1"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := GetClientIP(req); got != tt.want {
			t.Errorf("GetClientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}
