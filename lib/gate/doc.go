// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gate serializes probe dispatch across all connections.
//
// Probes frequently reach into state owned by the application's main
// loop (a scene graph, a document model), so the probe server allows
// only one probe read or write to run at a time. The gate is a
// [Locker] supplied by the caller, normally a *sync.Mutex, and
// [Acquire] polls it at a fixed interval for a bounded time rather than
// blocking indefinitely. A request that cannot get the gate in time is
// answered with 503 and the harness retries.
//
// The gate is not reentrant and is never held across network I/O.
package gate
