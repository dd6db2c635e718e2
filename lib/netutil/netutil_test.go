// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestIsExpectedCloseError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("reading head: %w", io.EOF), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"closed", net.ErrClosed, true},
		{"broken pipe", &net.OpError{Op: "write", Err: os.NewSyscallError("write", syscall.EPIPE)}, true},
		{"reset", &net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, true},
		{"refused", &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, false},
		{"other", errors.New("boom"), false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsExpectedCloseError(test.err); got != test.want {
				t.Errorf("IsExpectedCloseError(%v) = %v, want %v", test.err, got, test.want)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	server.SetReadDeadline(time.Now().Add(-time.Second))
	_, err := server.Read(make([]byte, 1))
	if !IsTimeout(err) {
		t.Fatalf("IsTimeout(%v) = false, want true", err)
	}
	if IsTimeout(io.EOF) {
		t.Error("IsTimeout(io.EOF) = true")
	}
}

func TestListenRebindsAfterClose(t *testing.T) {
	listener, err := Listen(context.Background(), "127.0.0.1:0", ListenOptions{})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	address := listener.Addr().String()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			accepted <- conn
		}
		close(accepted)
	}()

	conn, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if serverSide, ok := <-accepted; ok {
		serverSide.Close()
	}
	conn.Close()
	listener.Close()

	// The server closed first, so its side of the connection is in
	// TIME_WAIT. Rebinding must still succeed.
	again, err := Listen(context.Background(), address, ListenOptions{})
	if err != nil {
		t.Fatalf("rebinding %s: %v", address, err)
	}
	again.Close()
}

func TestReadBody(t *testing.T) {
	data, err := ReadBody(strings.NewReader("3 4"))
	if err != nil || string(data) != "3 4" {
		t.Fatalf("ReadBody = %q, %v", data, err)
	}

	oversized := io.LimitReader(zeroReader{}, MaxBodySize+10)
	if _, err := ReadBody(oversized); err == nil {
		t.Fatal("ReadBody should reject bodies over MaxBodySize")
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
