// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package probeclient is the harness side of the probe protocol.
//
// A [Client] addresses one probe server by host:port and issues one
// request per connection, exactly as the server expects. Non-200
// replies come back as [*StatusError]; [IsNotFound] and [IsBusy]
// classify them. A 503 means another request held the access gate for
// the server's whole acquisition timeout, so the client can retry busy
// replies a configured number of times before giving up.
package probeclient
