// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package status resolves the progress of a deposit after handoff to
// a repository. Repositories that speak SWORD publish an Atom
// "statement" document per deposit; the parser extracts the canonical
// deposit state advertised there, and the mapper translates that
// state into a domain status (submitted, accepted, rejected) using
// per-repository tables.
//
// Parsing and mapping are deliberately separate: the state vocabulary
// is fixed by the SWORD profile, while its interpretation is an
// institutional policy choice that varies per repository.
package status
