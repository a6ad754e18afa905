// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the application.
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - RuneLen: character count for UTF-8 strings
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
package util
