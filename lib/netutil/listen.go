// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"fmt"
	"net"
)

// ListenOptions configures Listen.
type ListenOptions struct {
	// ReusePort sets SO_REUSEPORT before bind, so a replacement host
	// can bind the probe port while the previous instance is still
	// draining. Both processes must set it. Unsupported platforms
	// fail the listen with errors.ErrUnsupported.
	ReusePort bool
}

// Listen binds a TCP listener on address. An empty host in address
// binds every interface; port 0 picks a free port. The runtime already
// sets SO_REUSEADDR on Unix listeners.
func Listen(ctx context.Context, address string, options ListenOptions) (net.Listener, error) {
	var config net.ListenConfig
	if options.ReusePort {
		config.Control = reusePort
	}
	listener, err := config.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", address, err)
	}
	return listener, nil
}
