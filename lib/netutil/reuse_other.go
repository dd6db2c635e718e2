// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package netutil

import (
	"errors"
	"net"
	"syscall"
)

func reusePort(network, address string, rawConn syscall.RawConn) error {
	return errors.ErrUnsupported
}

// ReusePortEnabled always reports false where SO_REUSEPORT does not
// exist.
func ReusePortEnabled(listener net.Listener) (bool, error) {
	return false, nil
}
