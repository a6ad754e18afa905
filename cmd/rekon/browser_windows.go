// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// chromePaths are the usual Chrome/Edge install locations, tried for app
// mode which opens a plain window without browser chrome.
func chromePaths() []string {
	var paths []string
	for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)", "LOCALAPPDATA"} {
		base := os.Getenv(env)
		if base == "" {
			continue
		}
		paths = append(paths,
			filepath.Join(base, "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(base, "Microsoft", "Edge", "Application", "msedge.exe"),
		)
	}
	return paths
}

// openBrowser opens the chat page in a desktop window. Prefers a Chrome or
// Edge app-mode window; falls back to the default browser.
func openBrowser(url string) error {
	for _, path := range chromePaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := exec.Command(path, "--app="+url).Start(); err == nil {
			return nil
		}
	}

	// Fall back to the default handler
	cmd := exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
