// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package assembler turns a deposit submission into a single
// streamable package: an archive (TAR or ZIP, or a bare stream for
// single-file deposits) optionally wrapped in a compression layer,
// together with finalized metadata describing every resource the
// package carries.
//
// The engine makes exactly one pass over each content file. A file's
// bytes are read once and fanned out to the archive writer, the
// per-file checksum accumulators, and a small sniff buffer for MIME
// detection; the archive stream in turn passes through the
// compression writer and the package-level checksum accumulator on
// its way to a temporary cache file. Package metadata (total size,
// checksums, media type) is finalized only after the full byte
// stream has been produced, because compressed sizes are unknowable
// in advance.
//
// Where a file lands inside the package is decided by a packaging
// [Specification]: a placement policy, a set of reserved paths, and
// optional supplementary files (manifests) generated after all
// custodial paths are final. Placement collisions are remediated
// deterministically, first under a role directory and then with
// numbered suffixes, so the same submission always produces the same
// plan and therefore a byte-identical package. Remediated names are
// recorded on [Resource] and never written back to the submission.
//
// The returned [PackageStream] is backed by the temporary cache:
// Open may be called repeatedly and always yields the same bytes;
// Close removes the cache. On any assembly failure the cache and all
// spool files are removed before the error is returned.
package assembler
