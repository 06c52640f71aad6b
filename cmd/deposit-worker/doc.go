// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// The deposit-worker daemon consumes submission requests from the
// queue, assembles each submission into a package, sends the package
// to the target repository, and records the deposit in the ledger.
// A status poller watches every recorded deposit that has a
// statement URL and advances its status as the repository processes
// the deposit.
//
// Configuration comes from a YAML file named by --config or the
// DEPOSIT_CONFIG environment variable; see the lib/config package
// for the file format and the DEPOSIT_* override variables.
//
// Scaling is horizontal: workers join the deposit-workers queue
// group, so the queue delivers each submission to exactly one
// worker. Within one worker, submissions are handled one at a time.
package main
