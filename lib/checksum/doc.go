// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package checksum provides the digest algorithms recorded in package
// metadata and deposit ledgers, and an accumulator that feeds several
// algorithms from a single read of the content.
//
// Digests are written in the canonical "algorithm:hex" notation
// (for example "sha256:9f86d0..."), the format used in inventory
// manifests, CLI output, and the ledger. [Set] is the fan-out
// accumulator: it implements io.Writer, so content can be streamed
// once through io.MultiWriter or io.TeeReader with the archive writer
// as the other sink.
//
// SHA-256 and MD5 are the default algorithm pair: one strong digest
// for integrity, one legacy digest because several repository
// platforms still verify uploads against MD5. BLAKE3 is available for
// callers that want a fast strong digest on large submissions.
package checksum
