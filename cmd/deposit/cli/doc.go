// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command tree framework for the deposit
// CLI: command dispatch with typo suggestions, structured help
// output, terminal-aware logging, JSON output helpers, and exit-code
// signaling.
//
// Commands are plain [Command] values assembled into a tree by the
// commands package. Dispatch walks the tree by positional args,
// parses flags with pflag, and invokes Run with a context that is
// canceled on SIGINT/SIGTERM and a logger scoped to the command
// path.
package cli
