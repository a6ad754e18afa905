// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

package engine

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// findServerBinary locates the llama-server executable on Unix. The name
// from Config may be a full path, a PATH entry, or a file next to our own
// executable (the installer layout).
func findServerBinary(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
		return "", fmt.Errorf("inference server binary not found at %s", name)
	}

	// Check PATH first
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	// Installer layout: binary sits next to our own executable
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	// Common system locations
	for _, p := range []string{
		filepath.Join("/usr/local/bin", name),
		filepath.Join("/usr/bin", name),
	} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s not found in PATH, next to the executable, or common install directories", name)
}

// startServer spawns llama-server in its own process group so it can be
// terminated independently of the desktop shell.
func (e *Engine) startServer(modelPath string) error {
	binary, err := findServerBinary(e.config.Binary)
	if err != nil {
		return err
	}

	cmd := exec.Command(binary, e.serverArgs(modelPath)...)
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	// Don't capture output - the server logs to its own stderr
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", binary, err)
	}

	e.cmd = cmd
	return nil
}
