// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probeclient

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/probed/lib/clock"
	"github.com/bureau-foundation/probed/lib/probe"
	"github.com/bureau-foundation/probed/lib/probeserver"
	"github.com/bureau-foundation/probed/lib/testutil"
)

func startServer(t *testing.T, options probeserver.Options) *probeserver.Server {
	t.Helper()
	options.Host = "127.0.0.1"
	options.Port = 0
	options.Logger = testutil.Logger()
	server := probeserver.NewServer(options)
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { server.Stop() })
	return server
}

func TestReadWrite(t *testing.T) {
	server := startServer(t, probeserver.Options{})
	server.Register(probe.NewTypedVariable("cursor", probe.Point(3, 4)))
	server.Register(probe.NewVariable("title", probe.String("untitled")))
	client := New(server.Addr().String(), Options{Timeout: 10 * time.Second})
	ctx := context.Background()

	result, err := client.Read(ctx, "cursor")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if result.Body != "3 4" || result.ContentType != "text/plain" || result.IsJSON() {
		t.Errorf("Read = %+v", result)
	}

	if err := client.WriteValue(ctx, "cursor", probe.Point(-1, 2.5)); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	value, err := client.ReadValue(ctx, "cursor", probe.KindPoint)
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if !value.Equal(probe.Point(-1, 2.5)) {
		t.Errorf("ReadValue = %v, want -1 2.5", value)
	}

	// Slashes and spaces survive the path encoding.
	if err := client.Write(ctx, "title", "a/b c%d"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if result, err := client.Read(ctx, "title"); err != nil || result.Body != "a/b c%d" {
		t.Errorf("Read(title) = %+v, %v", result, err)
	}
}

func TestReadJSON(t *testing.T) {
	server := startServer(t, probeserver.Options{})
	server.Register(probe.NewVariable("stats", probe.String(`{"frames":3}`)))
	client := New(server.Addr().String(), Options{Timeout: 10 * time.Second})

	result, err := client.Read(context.Background(), "stats")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !result.IsJSON() {
		t.Errorf("content type = %q, want application/json", result.ContentType)
	}
}

func TestNotFound(t *testing.T) {
	server := startServer(t, probeserver.Options{})
	client := New(server.Addr().String(), Options{Timeout: 10 * time.Second})

	_, err := client.Read(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("Read(missing) error = %v, want 404", err)
	}
	if err := client.Write(context.Background(), "missing", "1"); !IsNotFound(err) {
		t.Fatalf("Write(missing) error = %v, want 404", err)
	}
}

func TestRejectsEmptyArguments(t *testing.T) {
	client := New("127.0.0.1:1", Options{})
	if _, err := client.Read(context.Background(), ""); err == nil {
		t.Error("Read with an empty name should fail")
	}
	if err := client.Write(context.Background(), "x", ""); err == nil {
		t.Error("Write with an empty value should fail")
	}
}

// countingBusy refuses the gate for its first n attempts per request
// window and counts every attempt.
type countingBusy struct {
	refuse   atomic.Int32
	attempts atomic.Int32
}

func (g *countingBusy) TryLock() bool {
	g.attempts.Add(1)
	return g.refuse.Add(-1) < 0
}

func (g *countingBusy) Unlock() {}

func TestBusyRetries(t *testing.T) {
	busy := &countingBusy{}
	// Enough refusals to exhaust the first request's gate wait
	// (1 initial + 2 polls), then the retry succeeds.
	busy.refuse.Store(3)
	server := startServer(t, probeserver.Options{
		Gate:           busy,
		PollInterval:   time.Millisecond,
		AcquireTimeout: 2 * time.Millisecond,
	})
	server.Register(probe.NewVariable("voltage", probe.Number(9)))

	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	client := New(server.Addr().String(), Options{
		Timeout:     10 * time.Second,
		BusyRetries: 1,
		BusyBackoff: time.Second,
		Clock:       fake,
	})

	type readResult struct {
		result Result
		err    error
	}
	done := make(chan readResult, 1)
	go func() {
		result, err := client.Read(context.Background(), "voltage")
		done <- readResult{result, err}
	}()

	fake.WaitForTimers(1)
	fake.Advance(time.Second)

	got := testutil.RequireReceive(t, done, 10*time.Second, "waiting for retried read")
	if got.err != nil {
		t.Fatalf("Read: %v", got.err)
	}
	if got.result.Body != "9" {
		t.Errorf("body = %q, want 9", got.result.Body)
	}
}

func TestBusyWithoutRetries(t *testing.T) {
	busy := &countingBusy{}
	busy.refuse.Store(1 << 30)
	server := startServer(t, probeserver.Options{
		Gate:           busy,
		PollInterval:   time.Millisecond,
		AcquireTimeout: 2 * time.Millisecond,
	})
	server.Register(probe.NewVariable("voltage", probe.Number(9)))
	client := New(server.Addr().String(), Options{Timeout: 10 * time.Second})

	_, err := client.Read(context.Background(), "voltage")
	if !IsBusy(err) {
		t.Fatalf("Read error = %v, want 503", err)
	}
}
