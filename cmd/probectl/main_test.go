// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/probed/lib/clock"
	"github.com/bureau-foundation/probed/lib/probe"
	"github.com/bureau-foundation/probed/lib/probeserver"
	"github.com/bureau-foundation/probed/lib/process"
	"github.com/bureau-foundation/probed/lib/testutil"
)

func startServer(t *testing.T) *probeserver.Server {
	t.Helper()
	server := probeserver.NewServer(probeserver.Options{
		Host:   "127.0.0.1",
		Port:   0,
		Logger: testutil.Logger(),
	})
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { server.Stop() })
	return server
}

func probectl(t *testing.T, clk clock.Clock, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	err := run(context.Background(), args, &stdout, clk)
	return stdout.String(), err
}

func TestReadWrite(t *testing.T) {
	server := startServer(t)
	server.Register(probe.NewTypedVariable("voltage", probe.Number(3.3)))
	address := server.Addr().String()

	output, err := probectl(t, clock.Real(), "--address", address, "read", "voltage")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if output != "3.3\n" {
		t.Errorf("read printed %q, want 3.3", output)
	}

	if _, err := probectl(t, clock.Real(), "--address", address, "write", "voltage", "5"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if output, _ := probectl(t, clock.Real(), "-a", address, "read", "voltage"); output != "5\n" {
		t.Errorf("read after write printed %q, want 5", output)
	}
}

func TestNotFoundExitCode(t *testing.T) {
	server := startServer(t)

	_, err := probectl(t, clock.Real(), "--address", server.Addr().String(), "read", "missing")
	if code := process.ExitCode(err); code != exitNotFound {
		t.Errorf("exit code = %d (%v), want %d", code, err, exitNotFound)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := [][]string{
		{},
		{"frobnicate"},
		{"read"},
		{"write", "voltage"},
		{"wait"},
	}
	for _, args := range tests {
		if _, err := probectl(t, clock.Real(), args...); err == nil {
			t.Errorf("probectl %v succeeded, want usage error", args)
		}
	}
}

func TestVersion(t *testing.T) {
	output, err := probectl(t, clock.Real(), "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(output, "probectl ") {
		t.Errorf("--version printed %q", output)
	}
}

func TestWaitForValue(t *testing.T) {
	server := startServer(t)
	status := probe.NewVariable("status", probe.String("loading"))
	server.Register(status)
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	type outcome struct {
		output string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		var stdout bytes.Buffer
		err := run(context.Background(),
			[]string{"--address", server.Addr().String(), "wait", "--interval", "1s", "status", "ready"},
			&stdout, fake)
		done <- outcome{stdout.String(), err}
	}()

	// First poll reads "loading" and parks on the interval.
	fake.WaitForTimers(1)
	status.Set(probe.String("ready"))
	fake.Advance(time.Second)

	got := testutil.RequireReceive(t, done, 10*time.Second, "waiting for probectl wait")
	if got.err != nil {
		t.Fatalf("wait: %v", got.err)
	}
	if got.output != "ready\n" {
		t.Errorf("wait printed %q, want ready", got.output)
	}
}

func TestWaitGivesUp(t *testing.T) {
	server := startServer(t)
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	done := make(chan error, 1)
	go func() {
		var stdout bytes.Buffer
		done <- run(context.Background(),
			[]string{"--address", server.Addr().String(), "wait", "--interval", "1s", "--for", "2s", "missing"},
			&stdout, fake)
	}()

	for range 2 {
		fake.WaitForTimers(1)
		fake.Advance(time.Second)
	}

	err := testutil.RequireReceive(t, done, 10*time.Second, "waiting for probectl wait to give up")
	if code := process.ExitCode(err); code != exitWait {
		t.Errorf("exit code = %d (%v), want %d", code, err, exitWait)
	}
}
