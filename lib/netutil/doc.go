// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil collects the small TCP helpers shared by the probe
// server, its client, and the daemon.
//
// [Listen] binds a TCP listener, optionally with SO_REUSEPORT so a
// replacement host can bind the fixed probe port while the previous
// instance drains. [IsExpectedCloseError] and [IsTimeout] classify connection
// errors so routine client hang-ups are logged at debug level instead
// of as failures. [ReadBody] bounds response body reads.
package netutil
