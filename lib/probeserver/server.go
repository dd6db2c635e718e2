// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probeserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/bureau-foundation/probed/lib/clock"
	"github.com/bureau-foundation/probed/lib/gate"
	"github.com/bureau-foundation/probed/lib/netutil"
	"github.com/bureau-foundation/probed/lib/probe"
)

// DefaultPort is the probe port used when Options.Port is negative.
// Port 0 is honoured and selects a free port.
const DefaultPort = 8765

// Connection defaults.
const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultMaxHeadBytes = 8 * 1024
)

// acceptRetryDelay spaces out retries after a failed Accept (for
// example EMFILE) so the loop does not spin.
const acceptRetryDelay = 50 * time.Millisecond

// Options configures a Server. Zero values select the documented
// defaults.
type Options struct {
	// Host is the interface to bind. Empty binds all interfaces.
	Host string

	// Port is the TCP port. 0 picks a free port (see Server.Addr);
	// negative selects DefaultPort.
	Port int

	// Registry holds the probes served. NewServer creates one when nil.
	Registry *probe.Registry

	// Gate serializes probe dispatch. Defaults to a fresh *sync.Mutex.
	// Tests substitute their own Locker to simulate contention.
	Gate gate.Locker

	// Clock drives gate polling. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives connection diagnostics. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *Metrics

	// PollInterval and AcquireTimeout bound the wait for the gate.
	// Defaults: gate.DefaultPollInterval, gate.DefaultTimeout.
	PollInterval   time.Duration
	AcquireTimeout time.Duration

	// ReadTimeout bounds receiving the request head; WriteTimeout
	// bounds sending the response.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxHeadBytes caps how much of the request is read.
	MaxHeadBytes int

	// ReusePort sets SO_REUSEPORT on the listener so a replacement
	// host can bind the port while this one drains. Unix only.
	ReusePort bool

	// StrictOperations rejects a second path segment other than "read"
	// or "write" with 400 instead of treating it as a read.
	StrictOperations bool
}

// Server accepts probe requests on a TCP port. Create one with
// NewServer, register probes, then Start it. All methods are safe for
// concurrent use.
type Server struct {
	options  Options
	registry *probe.Registry
	gate     gate.Locker
	clock    clock.Clock
	logger   *slog.Logger
	metrics  *Metrics

	mu      sync.Mutex
	current *run
}

// run is one Start..Stop cycle.
type run struct {
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}

	// connections tracks in-flight connection goroutines. The accept
	// loop waits for all of them before closing done.
	connections sync.WaitGroup
}

// NewServer returns a stopped server.
func NewServer(options Options) *Server {
	if options.Port < 0 {
		options.Port = DefaultPort
	}
	if options.Registry == nil {
		options.Registry = probe.NewRegistry()
	}
	if options.Gate == nil {
		options.Gate = &sync.Mutex{}
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.PollInterval <= 0 {
		options.PollInterval = gate.DefaultPollInterval
	}
	if options.AcquireTimeout <= 0 {
		options.AcquireTimeout = gate.DefaultTimeout
	}
	if options.ReadTimeout <= 0 {
		options.ReadTimeout = DefaultReadTimeout
	}
	if options.WriteTimeout <= 0 {
		options.WriteTimeout = DefaultWriteTimeout
	}
	if options.MaxHeadBytes <= 0 {
		options.MaxHeadBytes = DefaultMaxHeadBytes
	}

	return &Server{
		options:  options,
		registry: options.Registry,
		gate:     options.Gate,
		clock:    options.Clock,
		logger:   options.Logger,
		metrics:  options.Metrics,
	}
}

// Register adds p to the server's registry, replacing any probe with the
// same name.
func (s *Server) Register(p probe.Probe) { s.registry.Register(p) }

// Unregister removes the probe registered under name, if any.
func (s *Server) Unregister(name string) { s.registry.Unregister(name) }

// Registry returns the registry the server dispatches to.
func (s *Server) Registry() *probe.Registry { return s.registry }

// Start binds the listener and begins accepting connections in the
// background. It returns once the port is bound. Calling Start on a
// running server does nothing.
//
// The server runs until Stop is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil
	}

	address := net.JoinHostPort(s.options.Host, strconv.Itoa(s.options.Port))
	listener, err := netutil.Listen(ctx, address, netutil.ListenOptions{ReusePort: s.options.ReusePort})
	if err != nil {
		return err
	}

	runContext, cancel := context.WithCancel(ctx)
	current := &run{
		listener: listener,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.current = current

	// Unblock Accept when the run is cancelled.
	go func() {
		<-runContext.Done()
		listener.Close()
	}()
	go s.acceptLoop(runContext, current)

	s.logger.Info("probe server listening", "address", listener.Addr().String())
	return nil
}

// Serve is the blocking form of Start: it returns after ctx is
// cancelled (or Stop is called) and every connection has finished.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	done := s.Done()
	if done == nil {
		return nil
	}
	<-done
	return nil
}

// Stop closes the listener, cancels pending gate waits and reads,
// waits for every connection goroutine to return, and clears the
// registry. Stopping a stopped server does nothing.
func (s *Server) Stop() error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == nil {
		return nil
	}
	current.cancel()
	<-current.done
	return nil
}

// Done returns a channel closed when the current run has fully shut
// down, or nil if the server is not running.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.done
}

// Addr returns the bound address, or nil if the server is not running.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.listener.Addr()
}

// Enabled reports whether the server is accepting connections. Hosts
// check it to suppress interactive prompts (modal dialogs and the like)
// that would block an automated harness.
func (s *Server) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *Server) acceptLoop(ctx context.Context, current *run) {
	for {
		conn, err := current.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			select {
			case <-ctx.Done():
			case <-s.clock.After(acceptRetryDelay):
			}
			continue
		}

		current.connections.Add(1)
		go func() {
			defer current.connections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	current.cancel()
	current.connections.Wait()
	s.registry.Clear()

	s.mu.Lock()
	if s.current == current {
		s.current = nil
	}
	s.mu.Unlock()

	s.logger.Info("probe server stopped")
	close(current.done)
}
