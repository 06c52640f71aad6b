// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"fmt"
	"time"

	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/status"
)

// SubmissionRequest asks a worker to package a submission and deposit
// it into a repository. Files reference content on storage shared
// between the producer and the workers.
type SubmissionRequest struct {
	// SubmissionID identifies the submission end to end: it appears
	// in assembly errors, the ledger, and deposit events.
	SubmissionID string `json:"submission"`

	// Repository is the repository key to deposit into.
	Repository string `json:"repository"`

	// Files lists the submission's content files in package order.
	Files []FileRef `json:"files"`

	// Metadata carries submission-level descriptive fields.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FileRef names one content file by shared-storage path. Size is
// taken from the file itself when the worker opens it.
type FileRef struct {
	// Name is the file's name within the submission.
	Name string `json:"name"`

	// Path locates the bytes on shared storage.
	Path string `json:"path"`

	// Role optionally classifies the file.
	Role string `json:"role,omitempty"`
}

// Validate reports the first structural problem with the request.
func (r *SubmissionRequest) Validate() error {
	if r.SubmissionID == "" {
		return fmt.Errorf("submission request has no submission id")
	}
	if r.Repository == "" {
		return fmt.Errorf("submission %s: no repository", r.SubmissionID)
	}
	if len(r.Files) == 0 {
		return fmt.Errorf("submission %s: no files", r.SubmissionID)
	}
	for i, file := range r.Files {
		if file.Name == "" {
			return fmt.Errorf("submission %s: file %d has no name", r.SubmissionID, i)
		}
		if file.Path == "" {
			return fmt.Errorf("submission %s: file %s has no path", r.SubmissionID, file.Name)
		}
		if _, err := deposit.ParseRole(file.Role); err != nil {
			return fmt.Errorf("submission %s: file %s: %w", r.SubmissionID, file.Name, err)
		}
	}
	return nil
}

// DepositEvent announces a deposit lifecycle change: a package
// handed off to a repository, or a status transition observed by the
// poller.
type DepositEvent struct {
	// DepositID is the ledger id of the deposit.
	DepositID string `json:"deposit"`

	// SubmissionID is the submission the deposit packaged.
	SubmissionID string `json:"submission"`

	// Repository is the repository key.
	Repository string `json:"repository"`

	// Status is the deposit's domain status after the change.
	Status deposit.Status `json:"status"`

	// State is the canonical repository state that produced the
	// status, when the change came from a statement. Zero for the
	// initial handoff event.
	State status.State `json:"state,omitempty"`

	// Location is where the package landed, when known.
	Location string `json:"location,omitempty"`

	// Timestamp is when the change was observed.
	Timestamp time.Time `json:"timestamp"`
}
