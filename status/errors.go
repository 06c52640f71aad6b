// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"errors"
	"fmt"
)

// ParseError reports a failure to obtain or interpret a deposit
// statement document. Document is the statement's location, so a log
// line or error chain always identifies which statement misbehaved.
type ParseError struct {
	// Document locates the statement that failed to parse.
	Document string
	// Err is the underlying fault.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing deposit statement %s: %v", e.Document, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// ConfigurationError reports a status-mapping request for a
// repository that has no mapping configuration at all. An unmapped
// state within a configured repository is not an error; the
// repository's default mapping absorbs it.
type ConfigurationError struct {
	// Repository is the key that no configuration was found for.
	Repository string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("no status mapping configured for repository %s", e.Repository)
}

// IsConfigurationError reports whether err is or wraps a
// *ConfigurationError.
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}
