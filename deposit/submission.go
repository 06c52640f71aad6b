// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package deposit

import (
	"fmt"
	"io"
)

// Submission is the unit of work handed to the assembler: an opaque
// identifier, an ordered set of content files, and submission-level
// descriptive metadata. The assembler reads a Submission but never
// mutates it; in particular, remediated in-package file names are
// recorded on the assembler's side and never written back here.
type Submission struct {
	// ID identifies the submission to logs, errors, and the ledger.
	// Opaque to this system.
	ID string

	// Files lists the custodial content in input order. Assembly
	// order, and therefore package byte layout, follows this order.
	Files []ContentFile

	// Metadata carries submission-level descriptive fields (title,
	// authors, publication identifiers). Consumed verbatim by
	// packaging specifications that embed it in a manifest.
	Metadata map[string]string
}

// ContentFile is a single custodial file within a submission. Name is
// a relative path, unique within the submission at input time; the
// packaging specification decides where the file lands inside the
// package, which may differ from Name when placement collides.
type ContentFile struct {
	Name string
	Role Role

	// Open returns a fresh reader over the file's bytes. The
	// assembler opens each file exactly once per assembly and closes
	// the reader before moving to the next file.
	Open func() (io.ReadCloser, error)

	// Size is the length of the content in bytes, or negative when
	// unknown. A known size lets the assembler stream the file into
	// size-prefixed archive entries without spooling.
	Size int64
}

// Role classifies a content file within a submission. Packaging
// specifications may use the role to choose placement, and collision
// remediation scopes renamed files under a role directory.
type Role string

const (
	RoleUnspecified Role = ""
	RoleManuscript  Role = "manuscript"
	RoleSupplement  Role = "supplement"
	RoleFigure      Role = "figure"
	RoleTable       Role = "table"
	RoleMetadata    Role = "metadata"
)

// ParseRole converts a role name from configuration or a submission
// descriptor. The empty string is RoleUnspecified.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUnspecified, RoleManuscript, RoleSupplement, RoleFigure, RoleTable, RoleMetadata:
		return Role(s), nil
	}
	return RoleUnspecified, fmt.Errorf("unknown content file role %q", s)
}
