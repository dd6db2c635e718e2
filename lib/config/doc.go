// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the probed
// daemon.
//
// Configuration is loaded from a single file specified by either the
// PROBED_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. The daemon runs on [Default] when
// neither is given.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production without an explicit
// override section switches logging to JSON and turns on strict
// operation parsing.
//
// Variable expansion is performed on the listen host and metrics
// address after loading: ${VAR} and ${VAR:-default} patterns are
// expanded from the process environment.
//
// Key exports:
//
//   - [Config] -- master struct with Server, Metrics, Logging, Probes, FrameRate
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- reports every invalid field at once
//
// This package depends on no other probed packages.
package config
