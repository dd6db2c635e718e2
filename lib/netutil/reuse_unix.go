// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package netutil

import (
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// reusePort sets SO_REUSEPORT on the listening socket before bind.
func reusePort(network, address string, rawConn syscall.RawConn) error {
	var sockoptErr error
	if err := rawConn.Control(func(fd uintptr) {
		sockoptErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	}); err != nil {
		return err
	}
	return sockoptErr
}

// ReusePortEnabled reports whether SO_REUSEPORT is set on listener.
func ReusePortEnabled(listener net.Listener) (bool, error) {
	syscallConn, ok := listener.(syscall.Conn)
	if !ok {
		return false, errors.ErrUnsupported
	}
	rawConn, err := syscallConn.SyscallConn()
	if err != nil {
		return false, err
	}
	var value int
	var sockoptErr error
	if err := rawConn.Control(func(fd uintptr) {
		value, sockoptErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT)
	}); err != nil {
		return false, err
	}
	return value != 0, sockoptErr
}
