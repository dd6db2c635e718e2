// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probeserver

import (
	"net/http"
	"strings"
	"testing"
)

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"fps":60}`, ContentTypeJSON},
		{`[1,2,3]`, ContentTypeJSON},
		{" \r\n\t{}", ContentTypeJSON},
		{"3 4", ContentTypeText},
		{"", ContentTypeText},
		{"x{", ContentTypeText},
		{"   ", ContentTypeText},
	}
	for _, test := range tests {
		if got := ContentTypeFor(test.body); got != test.want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", test.body, got, test.want)
		}
	}
}

func TestResponseWriteTo(t *testing.T) {
	var builder strings.Builder
	written, err := textResponse(http.StatusOK, "3 4").WriteTo(&builder)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	want := "HTTP/1.0 200 OK\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Length: 3\r\n" +
		"Connection: close\r\n" +
		"\r\n" +
		"3 4"
	if builder.String() != want {
		t.Errorf("response = %q, want %q", builder.String(), want)
	}
	if written != int64(len(want)) {
		t.Errorf("WriteTo returned %d, want %d", written, len(want))
	}
}

func TestResponseWriteToDefaults(t *testing.T) {
	var builder strings.Builder
	if _, err := (Response{Status: http.StatusServiceUnavailable, Body: busyBody}).WriteTo(&builder); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	want := "HTTP/1.0 503 Service Unavailable\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Length: 12\r\n" +
		"Connection: close\r\n" +
		"\r\n" +
		"Server busy."
	if builder.String() != want {
		t.Errorf("response = %q, want %q", builder.String(), want)
	}
}

func TestResponseContentLengthCountsBytes(t *testing.T) {
	var builder strings.Builder
	body := "température"
	if _, err := textResponse(http.StatusOK, body).WriteTo(&builder); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !strings.Contains(builder.String(), "Content-Length: 12\r\n") {
		t.Errorf("expected a byte count of 12 for %q, got %q", body, builder.String())
	}
}
