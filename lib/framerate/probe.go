// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framerate

import (
	"encoding/json"
	"strings"

	"github.com/bureau-foundation/probed/lib/probe"
)

// ResetCommand is the value that, written to the monitor's probe,
// resets the statistics.
const ResetCommand = "reset"

// Probe exposes the monitor under name. Reads return the JSON encoding
// of [Stats]; a write of ResetCommand resets the monitor and any other
// write is ignored.
func (m *Monitor) Probe(name string) probe.Probe {
	return &probe.Func{
		ProbeName: name,
		ReadFunc: func() (probe.Value, bool) {
			data, err := json.Marshal(m.Stats())
			if err != nil {
				return probe.Value{}, false
			}
			return probe.String(string(data)), true
		},
		WriteFunc: func(value probe.Value) {
			if strings.EqualFold(strings.TrimSpace(value.Text()), ResetCommand) {
				m.Reset()
			}
		},
	}
}
