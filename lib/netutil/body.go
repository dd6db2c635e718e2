// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"fmt"
	"io"
)

// MaxBodySize bounds probe response bodies read by clients. Probe
// values are short strings or small JSON documents; the limit only
// guards against a misbehaving peer.
const MaxBodySize int64 = 16 << 20

// ReadBody reads body up to MaxBodySize bytes and fails if the body is
// larger.
func ReadBody(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxBodySize {
		return nil, fmt.Errorf("response body exceeds %d bytes", MaxBodySize)
	}
	return data, nil
}
