// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"os"
	"path/filepath"
)

// DefaultModelFile is the quantized chat model bundled with the installer.
const DefaultModelFile = "qwen1.5-1.8b-chat-q4_k_m.gguf"

// FindModel probes the install locations for the model file and returns the
// first match. installDir empty means the executable's directory.
func FindModel(filename, installDir string) (string, error) {
	candidates := candidatePaths(filename, installDir)
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", &ClientError{
		Kind:    ErrKindModelMissing,
		Message: "model file not found: " + filename,
	}
}

// candidatePaths returns the probe locations in priority order: the install
// directory's model/ subdirectory, the install directory itself, then the
// same pair relative to the current working directory for development runs.
// Duplicates (installDir == exeDir is the common case) are removed while
// preserving order.
func candidatePaths(filename, installDir string) []string {
	if installDir == "" {
		if exe, err := os.Executable(); err == nil {
			installDir = filepath.Dir(exe)
		} else {
			installDir = "."
		}
	}

	var dirs []string
	dirs = append(dirs, filepath.Join(installDir, "model"), installDir)

	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "model"))
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(cwd, "model"))
	}

	seen := make(map[string]bool, len(dirs))
	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		path := filepath.Join(dir, filename)
		if seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	return paths
}
