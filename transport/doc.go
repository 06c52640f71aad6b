// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport moves assembled packages to repositories. A
// Transport implements one wire protocol and is selected by the
// protocol name in a repository's protocol binding; everything else
// the protocol needs (endpoints, credentials, protocol switches)
// arrives as a flat map of hint strings, so repository definitions
// can configure any transport without this package knowing their
// shape up front.
//
// Implementations register themselves at init. The filesystem
// transport ships in this package; it writes packages into a local
// directory together with an Atom statement stub, which makes it the
// backend for tests, local development, and dry runs.
package transport
