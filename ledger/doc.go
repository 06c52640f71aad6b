// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger persists the lifecycle of every deposit: which
// submission was packaged, where the package went, and what the
// repository has said about it since. It is the system's durable
// record between the moment a package leaves and the moment a
// terminal status arrives, and it is what the status poller walks to
// find deposits that still need watching.
//
// Storage is a single SQLite database behind a fixed-size connection
// pool in WAL mode. All timestamps come from an injected clock so
// tests control time.
package ledger
