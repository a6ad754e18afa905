// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

package main

import (
	"fmt"
	"os/exec"
	"runtime"
)

// chromiumBrowsers are tried first for app mode, which opens a plain window
// without browser chrome and is the closest thing to a native shell.
var chromiumBrowsers = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

// openBrowser opens the chat page in a desktop window. Prefers a Chromium
// app-mode window; falls back to the default browser.
func openBrowser(url string) error {
	for _, browser := range chromiumBrowsers {
		path, err := exec.LookPath(browser)
		if err != nil {
			continue
		}
		if err := exec.Command(path, "--app="+url).Start(); err == nil {
			return nil
		}
	}

	// Fall back to the platform opener
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		cmd = exec.Command("open", url)
	} else {
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
