// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package netutil

import (
	"context"
	"testing"
)

func TestListenReusePort(t *testing.T) {
	first, err := Listen(context.Background(), "127.0.0.1:0", ListenOptions{ReusePort: true})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer first.Close()

	enabled, err := ReusePortEnabled(first)
	if err != nil {
		t.Fatalf("ReusePortEnabled: %v", err)
	}
	if !enabled {
		t.Fatal("SO_REUSEPORT not set on the listener")
	}

	// A second listener on the same port succeeds while the first is
	// still open.
	second, err := Listen(context.Background(), first.Addr().String(), ListenOptions{ReusePort: true})
	if err != nil {
		t.Fatalf("binding %s alongside a live listener: %v", first.Addr(), err)
	}
	second.Close()
}

func TestListenWithoutReusePort(t *testing.T) {
	listener, err := Listen(context.Background(), "127.0.0.1:0", ListenOptions{})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	enabled, err := ReusePortEnabled(listener)
	if err != nil {
		t.Fatalf("ReusePortEnabled: %v", err)
	}
	if enabled {
		t.Error("SO_REUSEPORT set without being requested")
	}

	if second, err := Listen(context.Background(), listener.Addr().String(), ListenOptions{}); err == nil {
		second.Close()
		t.Error("second bind succeeded without SO_REUSEPORT")
	}
}
