// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package probeserver is an embedded diagnostic server that lets an
// automated test harness read and write named probes inside a running
// application over plain TCP.
//
// The protocol is a minimal HTTP/1.0 subset, one request per
// connection:
//
//	GET /<command>/read HTTP/1.1        read probe <command>
//	GET /<command>/write/<param> HTTP/1.1  write <param> to it
//
// The command and parameter are percent-decoded. Any second segment
// other than "write" is treated as a read unless
// Options.StrictOperations is set, in which case only "read" and
// "write" are accepted. Responses carry a status line, a Content-Type
// of application/json (when the body starts with '{' or '[') or
// text/plain, a Content-Length, and Connection: close:
//
//	200 OK                   read value or successful write
//	400 Bad Request          malformed request line or path
//	404 Not Found            unknown probe, or a read with no value
//	405 Method Not Allowed   verb other than GET
//	503 Service Unavailable  the access gate stayed busy
//
// # Concurrency
//
// Every accepted connection runs in its own goroutine, supervised by
// the [Server]: Stop cancels pending gate waits and reads, then waits
// for every connection goroutine to return. Parsing and response
// formatting run concurrently, but the probe call itself runs under a
// single process-wide gate (see package gate), so at most one probe
// operation executes at a time. The gate is released before the
// response is written.
//
// The channel is unauthenticated plaintext. Bind it to loopback or a
// trusted test network only.
package probeserver
