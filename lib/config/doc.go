// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the deposit
// worker.
//
// Configuration is loaded from a single file specified by either the
// DEPOSIT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. After the file is applied, a fixed
// set of DEPOSIT_* environment variables overrides individual values
// for containerized deployments; the set is listed in the package
// documentation below and nothing outside it is consulted.
//
// Environment overrides:
//
//   - DEPOSIT_QUEUE_URL    -> Queue.URL
//   - DEPOSIT_LEDGER_PATH  -> Ledger.Path
//   - DEPOSIT_REPOSITORIES -> Repositories
//   - DEPOSIT_WORKSPACE    -> Workspace
//   - DEPOSIT_LOG_LEVEL    -> Log.Level
//   - DEPOSIT_LOG_FORMAT   -> Log.Format
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${DEPOSIT_WORKSPACE}, and ${VAR:-default} patterns are
// expanded.
//
// Key exports:
//
//   - [Config] -- master struct with Queue, Ledger, Status, Log
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other deposit-services packages.
package config
