// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/probed/lib/clock"
)

// Default polling parameters: try every 100ms for up to two minutes.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultTimeout      = 2 * time.Minute
)

// ErrTimeout is returned by Acquire when the gate stayed busy for the
// whole timeout.
var ErrTimeout = errors.New("gate busy")

// Locker is the mutual-exclusion primitive guarding probe dispatch.
// *sync.Mutex satisfies it.
type Locker interface {
	TryLock() bool
	Unlock()
}

// Options bounds an acquisition attempt. Zero fields take the package
// defaults.
type Options struct {
	Clock        clock.Clock
	PollInterval time.Duration
	Timeout      time.Duration
}

// Acquire takes the gate, polling every PollInterval until Timeout has
// elapsed. On success the caller owns the gate and must Unlock it. The
// wait ends early with ctx.Err() when ctx is cancelled.
//
// The first attempt is made immediately, so an uncontended gate never
// waits.
func Acquire(ctx context.Context, locker Locker, options Options) error {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.PollInterval <= 0 {
		options.PollInterval = DefaultPollInterval
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}

	if locker.TryLock() {
		return nil
	}

	deadline := options.Clock.Now().Add(options.Timeout)
	for {
		wait := options.PollInterval
		if remaining := deadline.Sub(options.Clock.Now()); remaining < wait {
			wait = remaining
		}
		if wait <= 0 {
			return fmt.Errorf("%w after %v", ErrTimeout, options.Timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-options.Clock.After(wait):
		}

		if locker.TryLock() {
			return nil
		}
	}
}
