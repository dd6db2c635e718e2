// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for probed
// binaries. It centralizes fatal error reporting to stderr for the
// window before the structured logger exists, and the process exit
// after run() fails.
package process
