// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that polling and
// sampling code can be tested without wall-clock sleeps.
//
// The probe server polls the access gate at a fixed interval and the
// frame-rate monitor measures intervals between frames; both take a
// Clock. Production code passes Real(). Tests pass Fake() and move time
// forward explicitly:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go poller.Run(c)
//	c.WaitForTimers(1)           // the poller is now waiting
//	c.Advance(100 * time.Millisecond)
//
// WaitForTimers closes the race between a goroutine registering a timer
// and the test advancing past it.
package clock
