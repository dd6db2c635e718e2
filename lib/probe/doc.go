// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package probe defines the named accessors that the probe server
// exposes to a test harness, and the registry that holds them.
//
// A [Probe] publishes one piece of live application state. Reads
// produce a [Value]; writes receive the harness-supplied parameter as a
// string Value. Components register their probes with a [Registry]
// when they come up and unregister them before they are torn down: the
// registry holds references, it does not own the probes.
//
// [Value] is a tagged variant (string, number, or 2D point) with one
// formatting rule per kind, so the server never inspects dynamic
// types to build a response body.
//
// Two adapters cover most uses: [Func] wraps read and write closures,
// and [Variable] is a mutex-protected cell that reads back whatever was
// last written.
package probe
