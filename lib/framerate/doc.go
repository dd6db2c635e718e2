// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package framerate samples the cadence of a render loop and reports
// last-frame and median frames per second together with totals since
// the last reset.
//
// A [Monitor] keeps a bounded window of recent frame intervals so the
// median reflects current behaviour rather than the whole run. Totals
// (frame count, elapsed time, overall rate) cover everything since
// construction or the last [Monitor.Reset].
//
// [Monitor.Probe] exposes the statistics as a JSON probe for a probe
// server. Writing "reset" to that probe resets the monitor, which lets
// a test harness measure a single scenario in isolation.
package framerate
