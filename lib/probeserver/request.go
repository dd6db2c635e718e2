// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probeserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Operation selects what a request does to its probe.
type Operation uint8

const (
	// OperationRead reads the probe's current value.
	OperationRead Operation = iota
	// OperationWrite writes the request parameter to the probe.
	OperationWrite
)

func (o Operation) String() string {
	switch o {
	case OperationRead:
		return "read"
	case OperationWrite:
		return "write"
	default:
		return fmt.Sprintf("operation(%d)", uint8(o))
	}
}

// Request is one parsed probe request.
type Request struct {
	// Command is the percent-decoded probe name.
	Command string

	Operation Operation

	// Parameter is the percent-decoded value for writes. Empty for
	// reads.
	Parameter string
}

// RequestError rejects a request before dispatch. Status is the HTTP
// status code sent to the client (400 or 405); Detail is for logs only
// and never reaches the response.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
}

func badRequest(format string, args ...any) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Detail: fmt.Sprintf(format, args...)}
}

// ParseRequest decodes a request head (the request line, optionally
// followed by header lines) into a Request. Only the first two
// whitespace-separated tokens are significant: the verb and the path.
// The HTTP version and any headers are ignored.
//
// With strict set, the second path segment must be "read" or "write";
// otherwise anything but "write" selects a read.
func ParseRequest(head string, strict bool) (Request, error) {
	tokens := strings.FieldsFunc(head, isRequestSpace)
	if len(tokens) == 0 {
		return Request{}, badRequest("empty request")
	}
	if tokens[0] != http.MethodGet {
		return Request{}, &RequestError{
			Status: http.StatusMethodNotAllowed,
			Detail: fmt.Sprintf("method %q not allowed", tokens[0]),
		}
	}
	if len(tokens) < 2 {
		return Request{}, badRequest("missing request path")
	}

	segments := strings.FieldsFunc(tokens[1], func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return Request{}, badRequest("missing command in path %q", tokens[1])
	}
	command, err := url.PathUnescape(segments[0])
	if err != nil {
		return Request{}, badRequest("command %q: %v", segments[0], err)
	}
	if len(segments) < 2 {
		return Request{}, badRequest("missing operation in path %q", tokens[1])
	}

	request := Request{Command: command}
	switch operation := segments[1]; {
	case operation == "write":
		if len(segments) < 3 {
			return Request{}, badRequest("write to %q without a parameter", command)
		}
		parameter, err := url.PathUnescape(segments[2])
		if err != nil {
			return Request{}, badRequest("parameter %q: %v", segments[2], err)
		}
		request.Operation = OperationWrite
		request.Parameter = parameter
	case strict && operation != "read":
		return Request{}, badRequest("unknown operation %q", operation)
	default:
		request.Operation = OperationRead
	}
	return request, nil
}

func isRequestSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
