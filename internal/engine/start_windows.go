// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

package engine

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// Windows-specific creation flags
const (
	// CREATE_NO_WINDOW prevents a console window from being created
	CREATE_NO_WINDOW = 0x08000000
	// DETACHED_PROCESS creates a new process that is detached from the console
	DETACHED_PROCESS = 0x00000008
)

// findServerBinary locates llama-server.exe on Windows. The name from Config
// may be a full path, a PATH entry, or a file next to our own executable
// (the installer layout).
func findServerBinary(name string) (string, error) {
	if filepath.Ext(name) == "" {
		name += ".exe"
	}

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

	// User install location: %LOCALAPPDATA%\Programs\R3KON GPT
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		candidate := filepath.Join(localAppData, "Programs", "R3KON GPT", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s not found in PATH, next to the executable, or common install directories", name)
}

// startServer spawns llama-server.exe detached from our console so no window
// flashes on screen, in its own process group so it can be terminated
// independently of the desktop shell.
func (e *Engine) startServer(modelPath string) error {
	binary, err := findServerBinary(e.config.Binary)
	if err != nil {
		return err
	}

	cmd := exec.Command(binary, e.serverArgs(modelPath)...)
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | CREATE_NO_WINDOW | DETACHED_PROCESS,
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
