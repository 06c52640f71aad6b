// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package deposit

import "fmt"

// Status is the repository-agnostic outcome of a deposit. A deposit
// starts as StatusSubmitted and ends as StatusAccepted or
// StatusRejected; the terminal statuses are never left again.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

// Terminal reports whether the status is an end state. Terminal
// statuses are immutable in the ledger and stop status polling for
// the deposit.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// ParseStatus converts a status name from configuration. Used by the
// repository definition loader to validate mapping tables.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSubmitted, StatusAccepted, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown deposit status %q", s)
}
