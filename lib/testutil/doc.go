// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by probed's package tests.
//
// [RequireReceive] and [RequireClosed] are the timeout safety valve:
// a select with a wall-clock fallback, so a deadlocked test fails with
// a message instead of hanging the run. They are the only place tests
// use real timeouts; everything that measures time inside the code
// under test uses a fake clock.
//
// [Logger] returns a quiet structured logger for components that
// require one.
package testutil
