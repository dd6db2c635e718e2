// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probeserver

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Content types chosen by ContentTypeFor.
const (
	ContentTypeText = "text/plain"
	ContentTypeJSON = "application/json"
)

// Bodies for the error responses that carry one.
const (
	notFoundBody = "Probe not found"
	busyBody     = "Server busy."
)

// Response is the reply to one request.
type Response struct {
	Status      int
	ContentType string
	Body        string
}

// textResponse builds a response whose content type follows its body.
func textResponse(status int, body string) Response {
	return Response{Status: status, ContentType: ContentTypeFor(body), Body: body}
}

// ContentTypeFor returns ContentTypeJSON when the first non-whitespace
// character of body is '{' or '[', and ContentTypeText otherwise.
func ContentTypeFor(body string) string {
	trimmed := strings.TrimLeft(body, " \t\r\n")
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ContentTypeJSON
	}
	return ContentTypeText
}

// WriteTo writes the complete response: status line, Content-Type,
// Content-Length, Connection: close, blank line, body.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	contentType := r.ContentType
	if contentType == "" {
		contentType = ContentTypeText
	}
	header := fmt.Sprintf("HTTP/1.0 %d %s\r\n"+
		"Content-Type: %s; charset=utf-8\r\n"+
		"Content-Length: %d\r\n"+
		"Connection: close\r\n"+
		"\r\n",
		r.Status, http.StatusText(r.Status), contentType, len(r.Body))

	written, err := io.WriteString(w, header)
	if err != nil {
		return int64(written), err
	}
	bodyWritten, err := io.WriteString(w, r.Body)
	return int64(written + bodyWritten), err
}
