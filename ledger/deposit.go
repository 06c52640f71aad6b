// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"time"

	"github.com/birkland/deposit-services/assembler"
	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/lib/checksum"
)

// ErrNotFound is returned when a deposit id has no record.
var ErrNotFound = errors.New("deposit not found")

// Deposit is one ledger record: a package that was assembled for a
// repository, plus the status observed since. The package facts are
// copied from the assembler's metadata at recording time; the record
// stays valid after the package cache is released.
type Deposit struct {
	// ID is the ledger's own identifier. Assigned on Record when
	// empty.
	ID string `json:"id"`

	// SubmissionID ties the deposit back to the submission it
	// packaged.
	SubmissionID string `json:"submission"`

	// Repository is the repository key the package was sent to.
	Repository string `json:"repository"`

	// PackagePath is where the transport reported the package
	// landed.
	PackagePath string `json:"package,omitempty"`

	// Specification, Archive, and Compression describe the package
	// layers, copied from assembly metadata.
	Specification string                  `json:"specification"`
	Archive       assembler.ArchiveFormat `json:"archive"`
	Compression   assembler.Compression   `json:"compression"`

	// Size is the package size in bytes.
	Size int64 `json:"size"`

	// Checksums are the package-level digests.
	Checksums []checksum.Digest `json:"checksums,omitempty"`

	// Status is the deposit's domain status.
	Status deposit.Status `json:"status"`

	// StatementURL locates the repository's deposit statement, when
	// one exists. The status poller only watches deposits that have
	// one.
	StatementURL string `json:"statement,omitempty"`

	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// Filter narrows List results. Zero-valued fields do not filter.
type Filter struct {
	// Repository keeps deposits for one repository key.
	Repository string

	// Status keeps deposits with one status.
	Status deposit.Status

	// Limit caps the number of returned records; zero or negative
	// means no cap.
	Limit int
}
