// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"runtime"

	"github.com/bureau-foundation/probed/lib/clock"
	"github.com/bureau-foundation/probed/lib/config"
	"github.com/bureau-foundation/probed/lib/probe"
	"github.com/bureau-foundation/probed/lib/version"
)

// buildRegistry registers the built-in probes and then the configured
// ones. A configured probe with a built-in's name replaces it.
func buildRegistry(cfg *config.Config, clk clock.Clock) (*probe.Registry, error) {
	registry := probe.NewRegistry()
	for _, builtin := range builtinProbes(clk) {
		registry.Register(builtin)
	}
	for _, declared := range cfg.Probes {
		variable, err := newConfiguredProbe(declared)
		if err != nil {
			return nil, err
		}
		registry.Register(variable)
	}
	return registry, nil
}

// builtinProbes returns the read-only probes every daemon serves.
func builtinProbes(clk clock.Clock) []probe.Probe {
	startedAt := clk.Now()
	return []probe.Probe{
		probe.Reader("uptime", func() probe.Value {
			return probe.Number(clk.Now().Sub(startedAt).Seconds())
		}),
		probe.Reader("goroutines", func() probe.Value {
			return probe.Number(float64(runtime.NumGoroutine()))
		}),
		probe.Reader("version", func() probe.Value {
			return probe.String(version.Info())
		}),
	}
}

// newConfiguredProbe turns a probes[] entry into a Variable. Number and
// point probes convert written parameters to their kind.
func newConfiguredProbe(declared config.ProbeConfig) (*probe.Variable, error) {
	kind, err := probe.ParseKind(declared.Kind)
	if err != nil {
		return nil, fmt.Errorf("probe %q: %w", declared.Name, err)
	}

	if kind == probe.KindString {
		if declared.Value == nil {
			return probe.NewEmptyVariable(declared.Name), nil
		}
		return probe.NewVariable(declared.Name, probe.String(*declared.Value)), nil
	}

	if declared.Value == nil {
		variable := probe.NewTypedVariable(declared.Name, zeroValue(kind))
		variable.Clear()
		return variable, nil
	}
	initial, err := probe.ParseValue(kind, *declared.Value)
	if err != nil {
		return nil, fmt.Errorf("probe %q: %w", declared.Name, err)
	}
	return probe.NewTypedVariable(declared.Name, initial), nil
}

func zeroValue(kind probe.Kind) probe.Value {
	switch kind {
	case probe.KindNumber:
		return probe.Number(0)
	case probe.KindPoint:
		return probe.Point(0, 0)
	default:
		return probe.String("")
	}
}
