// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"errors"
	"fmt"
)

// AssemblyError reports a failed assembly: an empty or invalid
// submission, a content file that could not be opened or read, or a
// fault in the archive or compression writer. Callers can use
// errors.As to extract the structured context:
//
//	var assemblyErr *assembler.AssemblyError
//	if errors.As(err, &assemblyErr) {
//	    log.Error("assembly failed", "submission", assemblyErr.SubmissionID, "file", assemblyErr.File)
//	}
type AssemblyError struct {
	// SubmissionID identifies the submission whose assembly failed.
	SubmissionID string
	// File is the name of the content file being processed when the
	// failure occurred, or empty when the failure is not tied to a
	// single file (validation, writer finalization).
	File string
	// Err is the underlying fault, when one exists.
	Err error
}

func (e *AssemblyError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("assembling submission %s: file %s: %v", e.SubmissionID, e.File, e.Err)
	}
	return fmt.Sprintf("assembling submission %s: %v", e.SubmissionID, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// IsAssemblyError reports whether err is or wraps an *AssemblyError.
func IsAssemblyError(err error) bool {
	var assemblyErr *AssemblyError
	return errors.As(err, &assemblyErr)
}
