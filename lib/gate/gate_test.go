// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/probed/lib/clock"
	"github.com/bureau-foundation/probed/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// scriptedLocker refuses TryLock until it has been asked failures times.
type scriptedLocker struct {
	failures int32
	attempts atomic.Int32
	unlocked atomic.Int32
}

func (l *scriptedLocker) TryLock() bool {
	return l.attempts.Add(1) > l.failures
}

func (l *scriptedLocker) Unlock() { l.unlocked.Add(1) }

func TestAcquireUncontended(t *testing.T) {
	var mutex sync.Mutex
	fake := clock.Fake(epoch)

	if err := Acquire(context.Background(), &mutex, Options{Clock: fake}); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if mutex.TryLock() {
		t.Fatal("mutex should be held after Acquire")
	}
	mutex.Unlock()

	if fake.PendingCount() != 0 {
		t.Error("uncontended Acquire should not register a timer")
	}
}

func TestAcquireSucceedsAfterPolling(t *testing.T) {
	fake := clock.Fake(epoch)
	locker := &scriptedLocker{failures: 3}

	result := make(chan error, 1)
	go func() {
		result <- Acquire(context.Background(), locker, Options{
			Clock:        fake,
			PollInterval: 100 * time.Millisecond,
			Timeout:      time.Second,
		})
	}()

	for i := 0; i < 3; i++ {
		fake.WaitForTimers(1)
		fake.Advance(100 * time.Millisecond)
	}

	if err := testutil.RequireReceive(t, result, 5*time.Second, "waiting for Acquire"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got := locker.attempts.Load(); got != 4 {
		t.Errorf("TryLock attempts = %d, want 4", got)
	}
}

func TestAcquireTimesOut(t *testing.T) {
	fake := clock.Fake(epoch)
	locker := &scriptedLocker{failures: 1 << 30}

	result := make(chan error, 1)
	go func() {
		result <- Acquire(context.Background(), locker, Options{
			Clock:        fake,
			PollInterval: 100 * time.Millisecond,
			Timeout:      350 * time.Millisecond,
		})
	}()

	// 100 + 100 + 100 + 50: the last wait is clipped to the deadline.
	for i := 0; i < 4; i++ {
		fake.WaitForTimers(1)
		fake.Advance(100 * time.Millisecond)
	}

	err := testutil.RequireReceive(t, result, 5*time.Second, "waiting for Acquire")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Acquire error = %v, want ErrTimeout", err)
	}
	if got := locker.attempts.Load(); got != 5 {
		t.Errorf("TryLock attempts = %d, want 5", got)
	}
}

func TestAcquireCancelled(t *testing.T) {
	fake := clock.Fake(epoch)
	locker := &scriptedLocker{failures: 1 << 30}
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	go func() {
		result <- Acquire(ctx, locker, Options{Clock: fake})
	}()

	fake.WaitForTimers(1)
	cancel()

	err := testutil.RequireReceive(t, result, 5*time.Second, "waiting for Acquire")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Acquire error = %v, want context.Canceled", err)
	}
}

func TestAcquireSerializesHolders(t *testing.T) {
	var mutex sync.Mutex
	var inside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := Acquire(context.Background(), &mutex, Options{
				PollInterval: time.Millisecond,
				Timeout:      10 * time.Second,
			})
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			if n := inside.Add(1); n != 1 {
				t.Errorf("%d holders inside the gate", n)
			}
			inside.Add(-1)
			mutex.Unlock()
		}()
	}
	wg.Wait()
}
