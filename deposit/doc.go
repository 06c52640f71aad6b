// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package deposit defines the domain model shared by the assembly
// engine, the status resolution pipeline, and the front ends: the
// submission a researcher hands over for deposit, the files it
// carries, and the repository-agnostic outcome of a deposit.
//
// A [Submission] is immutable once handed to the assembler. Content
// bytes are reached through lazily-opened readers so that a
// submission can describe gigabytes of content without holding any
// of it in memory. The three-valued [Status] is the only state the
// rest of the system persists about a deposit's outcome; the
// protocol-specific tokens that produce it live in the status
// package.
package deposit
