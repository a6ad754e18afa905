// R3KON GPT - A desktop chat assistant backed by a local language model.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/morganforge/rekon-gpt/internal/config"
	"github.com/morganforge/rekon-gpt/internal/engine"
	"github.com/morganforge/rekon-gpt/internal/server"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	// .env is optional; it carries REKON_* overrides in development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("DOTENV_SKIPPED | error=%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("CONFIG_LOAD_FAILED | error=%v", err)
	}

	log.Printf("STARTING | version=%s commit=%s built=%s", Version, GitCommit, BuildDate)

	eng := engine.New(engine.Config{
		Binary:         cfg.Engine.Binary,
		Port:           cfg.Engine.Port,
		ModelFile:      cfg.Model.Filename,
		InstallDir:     cfg.Model.InstallDir,
		ContextSize:    cfg.Engine.ContextSize,
		Threads:        cfg.Engine.Threads,
		BatchSize:      cfg.Engine.BatchSize,
		UseMlock:       cfg.Engine.UseMlock,
		UseMmap:        cfg.Engine.UseMmap,
		StartupTimeout: time.Duration(cfg.Engine.StartupTimeoutSecs) * time.Second,
		RequestTimeout: time.Duration(cfg.Engine.RequestTimeoutSecs) * time.Second,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The model load takes tens of seconds; it runs in the background so the
	// window opens immediately with the loading banner. This goroutine is
	// the only writer of the engine's ready flag.
	go func() {
		start := time.Now()
		if err := eng.Load(ctx); err != nil {
			log.Printf("ENGINE_LOAD_FAILED | error=%v", err)
			return
		}
		log.Printf("ENGINE_READY | duration=%.1fs", time.Since(start).Seconds())
	}()

	srv := server.NewServer(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}, eng)

	if err := srv.Listen(); err != nil {
		log.Fatalf("SERVER_LISTEN_FAILED | error=%v", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve()
	}()

	go func() {
		if !waitForServer(ctx, srv.URL(), 30*time.Second) {
			log.Printf("BROWSER_SKIPPED | reason=server_not_answering")
			return
		}
		if err := openBrowser(srv.URL()); err != nil {
			log.Printf("BROWSER_OPEN_FAILED | url=%s error=%v", srv.URL(), err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("SHUTDOWN_REQUESTED")
	case err := <-serveErr:
		if err != nil {
			log.Printf("SERVER_FAILED | error=%v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("SHUTDOWN_FAILED | error=%v", err)
	}
	eng.Stop()
	log.Printf("STOPPED")
}

// waitForServer polls the status endpoint until the HTTP layer answers.
// Readiness of the model is not required; the page shows its own loading
// banner.
func waitForServer(ctx context.Context, baseURL string, timeout time.Duration) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		resp, err := client.Get(baseURL + "/api/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	return false
}
