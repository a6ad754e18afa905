// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("gguf"), 0644))
	return path
}

func TestFindModel_InModelSubdir(t *testing.T) {
	installDir := t.TempDir()
	want := writeModel(t, filepath.Join(installDir, "model"), DefaultModelFile)

	got, err := FindModel(DefaultModelFile, installDir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindModel_InInstallDir(t *testing.T) {
	installDir := t.TempDir()
	want := writeModel(t, installDir, DefaultModelFile)

	got, err := FindModel(DefaultModelFile, installDir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindModel_SubdirWins(t *testing.T) {
	installDir := t.TempDir()
	inSubdir := writeModel(t, filepath.Join(installDir, "model"), DefaultModelFile)
	writeModel(t, installDir, DefaultModelFile)

	got, err := FindModel(DefaultModelFile, installDir)
	require.NoError(t, err)
	assert.Equal(t, inSubdir, got, "model/ subdirectory takes priority")
}

func TestFindModel_Missing(t *testing.T) {
	_, err := FindModel("nonexistent.gguf", t.TempDir())
	require.Error(t, err)

	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrKindModelMissing, clientErr.Kind)
	assert.Contains(t, err.Error(), "nonexistent.gguf")
}

func TestFindModel_IgnoresDirectories(t *testing.T) {
	installDir := t.TempDir()
	// A directory with the model's name must not match
	require.NoError(t, os.MkdirAll(filepath.Join(installDir, DefaultModelFile), 0755))

	_, err := FindModel(DefaultModelFile, installDir)
	require.Error(t, err)
}

func TestCandidatePaths_NoDuplicates(t *testing.T) {
	paths := candidatePaths("m.gguf", t.TempDir())

	seen := make(map[string]bool)
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate probe path %s", p)
		seen[p] = true
	}
}

func TestCandidatePaths_Order(t *testing.T) {
	installDir := t.TempDir()
	paths := candidatePaths("m.gguf", installDir)

	require.GreaterOrEqual(t, len(paths), 2)
	assert.Equal(t, filepath.Join(installDir, "model", "m.gguf"), paths[0])
	assert.Equal(t, filepath.Join(installDir, "m.gguf"), paths[1])
}
