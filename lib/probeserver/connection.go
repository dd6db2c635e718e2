// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probeserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/probed/lib/gate"
	"github.com/bureau-foundation/probed/lib/netutil"
	"github.com/bureau-foundation/probed/lib/probe"
)

// lingerTimeout bounds how long a connection waits, after the response
// has been written, for the client to close its side. Closing with
// unread request bytes pending would reset the connection and could
// discard the response before the client reads it.
const lingerTimeout = 2 * time.Second

// operationInvalid labels requests rejected before dispatch.
const operationInvalid = "invalid"

// handleConnection serves one request-response cycle and closes conn.
// It never panics out and never touches another connection's state.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	s.metrics.connectionOpened()
	defer s.metrics.connectionClosed()

	logger := s.logger.With(
		"connection", uuid.NewString(),
		"remote", conn.RemoteAddr().String(),
	)

	conn.SetReadDeadline(time.Now().Add(s.options.ReadTimeout))

	// Shutdown expires any blocked read so the goroutine can return.
	stopExpiring := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stopExpiring()
	limit := s.options.MaxHeadBytes
	head, err := readHead(bufio.NewReader(io.LimitReader(conn, int64(limit)+1)), limit)
	if errors.Is(err, errHeadTooLarge) {
		logger.Debug("request rejected", "status", http.StatusBadRequest, "reason", err.Error())
		response := textResponse(http.StatusBadRequest, "")
		s.metrics.observeRequest(operationInvalid, response.Status)
		s.writeResponse(ctx, conn, logger, response)
		return
	}
	if err != nil {
		s.metrics.readDropped()
		switch {
		case head == "" && errors.Is(err, io.EOF):
			// Connected and sent nothing.
		case netutil.IsTimeout(err), netutil.IsExpectedCloseError(err):
			logger.Debug("dropping connection: request not received", "error", err)
		default:
			logger.Warn("dropping connection: reading request failed", "error", err)
		}
		return
	}
	logger.Debug("request received", "head", strings.TrimSpace(head))

	operation := operationInvalid
	var response Response
	request, err := ParseRequest(head, s.options.StrictOperations)
	if err != nil {
		var requestErr *RequestError
		if !errors.As(err, &requestErr) {
			requestErr = &RequestError{Status: http.StatusBadRequest, Detail: err.Error()}
		}
		logger.Debug("request rejected", "status", requestErr.Status, "reason", requestErr.Detail)
		response = textResponse(requestErr.Status, "")
	} else {
		operation = request.Operation.String()
		response = s.dispatch(ctx, logger, request)
	}

	s.metrics.observeRequest(operation, response.Status)
	s.writeResponse(ctx, conn, logger, response)
}

// errHeadTooLarge rejects a request whose head does not fit in
// MaxHeadBytes. Parsing a cut-off head would dispatch a shortened
// parameter.
var errHeadTooLarge = errors.New("request head exceeds size limit")

// readHead reads the request line and any header lines that follow. It
// stops at the blank line ending the header block, when no further
// complete line is already buffered, or at EOF. Clients that send only
// a request line without the terminating blank line are still served.
// A head longer than limit bytes yields errHeadTooLarge; reader must be
// able to return at least limit+1 bytes for the overflow to be seen.
func readHead(reader *bufio.Reader, limit int) (string, error) {
	var head strings.Builder
	for {
		line, err := reader.ReadString('\n')
		head.WriteString(line)
		if head.Len() > limit {
			return "", fmt.Errorf("%w (%d bytes)", errHeadTooLarge, limit)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && head.Len() > 0 {
				return head.String(), nil
			}
			return head.String(), err
		}
		if strings.TrimRight(line, "\r\n") == "" || reader.Buffered() == 0 {
			return head.String(), nil
		}
	}
}

// dispatch runs the probe operation under the gate. The gate is
// released before dispatch returns, so the caller writes the response
// without holding it.
func (s *Server) dispatch(ctx context.Context, logger *slog.Logger, request Request) Response {
	waitStarted := s.clock.Now()
	err := gate.Acquire(ctx, s.gate, gate.Options{
		Clock:        s.clock,
		PollInterval: s.options.PollInterval,
		Timeout:      s.options.AcquireTimeout,
	})
	if err != nil {
		if errors.Is(err, gate.ErrTimeout) {
			s.metrics.gateTimedOut()
			logger.Warn("probe gate not acquired",
				"command", request.Command,
				"operation", request.Operation.String(),
				"error", err,
			)
		} else {
			logger.Debug("gate wait abandoned by shutdown",
				"command", request.Command,
				"operation", request.Operation.String(),
				"error", err,
			)
		}
		return textResponse(http.StatusServiceUnavailable, busyBody)
	}
	s.metrics.observeGateWait(s.clock.Now().Sub(waitStarted))

	return s.invoke(logger, request)
}

// invoke performs the lookup and the single probe call. Must be called
// with the gate held; releases it on return, including after a probe
// panic.
func (s *Server) invoke(logger *slog.Logger, request Request) (response Response) {
	defer s.gate.Unlock()
	defer func() {
		if recovered := recover(); recovered != nil {
			s.metrics.probePanicked()
			logger.Error("probe panicked",
				"command", request.Command,
				"operation", request.Operation.String(),
				"panic", recovered,
			)
			response = textResponse(http.StatusInternalServerError, "")
		}
	}()

	target, ok := s.registry.Lookup(request.Command)
	if !ok {
		logger.Debug("probe not found", "command", request.Command)
		return textResponse(http.StatusNotFound, notFoundBody)
	}

	switch request.Operation {
	case OperationWrite:
		logger.Debug("probe write", "command", request.Command, "parameter", request.Parameter)
		target.Write(probe.String(request.Parameter))
		return textResponse(http.StatusOK, "")
	default:
		value, ok := target.Read()
		if !ok {
			logger.Debug("probe read returned no value", "command", request.Command)
			return textResponse(http.StatusNotFound, notFoundBody)
		}
		return textResponse(http.StatusOK, value.Text())
	}
}

// writeResponse sends response, flushes it, and lingers briefly for the
// client to hang up. Failures are logged; the connection is closed by
// the caller either way.
func (s *Server) writeResponse(ctx context.Context, conn net.Conn, logger *slog.Logger, response Response) {
	conn.SetWriteDeadline(time.Now().Add(s.options.WriteTimeout))

	writer := bufio.NewWriter(conn)
	if _, err := response.WriteTo(writer); err != nil {
		s.logWriteFailure(logger, err)
		return
	}
	if err := writer.Flush(); err != nil {
		s.logWriteFailure(logger, err)
		return
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseWrite(); err != nil {
			return
		}
		// Checked after extending the deadline: if shutdown already
		// expired reads, the linger must not undo that.
		conn.SetReadDeadline(time.Now().Add(lingerTimeout))
		if ctx.Err() != nil {
			return
		}
		io.Copy(io.Discard, io.LimitReader(conn, int64(s.options.MaxHeadBytes)))
	}
}

func (s *Server) logWriteFailure(logger *slog.Logger, err error) {
	if netutil.IsExpectedCloseError(err) || netutil.IsTimeout(err) {
		logger.Debug("client went away before the response was written", "error", err)
		return
	}
	logger.Warn("writing response failed", "error", err)
}
