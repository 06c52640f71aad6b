// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration for
// on-disk binary records.
//
// The repository uses two serialization formats with a clear
// boundary: JSON for everything external (repositories.json,
// submission descriptors, inventory manifests, queue payloads, CLI
// output) and CBOR for compact internal blobs persisted by the
// ledger, currently the per-deposit checksum list.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items. Same logical data always produces identical bytes, so a
// ledger row rewritten with unchanged checksums stays byte-identical.
package codec
