// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"fmt"
	"sort"
	"sync"

	"github.com/birkland/deposit-services/deposit"
)

// Specification is the packaging contract a target repository type
// imposes: where custodial files land inside the package, which
// paths the specification keeps for its own generated files, and
// which supplementary files (manifests and the like) the package
// must carry.
//
// PlaceFile must be a pure function of its arguments. It returns a
// candidate path only; collision remediation belongs to the engine,
// and the final paths are handed back through Supplements so a
// manifest can reference remediated locations.
type Specification interface {
	// ID returns the specification identifier recorded in package
	// metadata and referenced by repository configuration.
	ID() string

	// PlaceFile returns the candidate in-package path for a content
	// file.
	PlaceFile(name string, role deposit.Role) string

	// Reserves reports whether the path is claimed by the
	// specification for generated files. Custodial files are never
	// placed on reserved paths.
	Reserves(path string) bool

	// Supplements returns the specification's generated files, built
	// after every custodial path is final. Supplements are written
	// to the archive last, in the returned order.
	Supplements(submission *deposit.Submission, resources []Resource) ([]Supplement, error)
}

// Supplement is one generated package file. Supplements are
// metadata-scale documents and are rendered in memory.
type Supplement struct {
	Path string
	Body []byte
}

var (
	specificationsMu sync.RWMutex
	specifications   = make(map[string]Specification)
)

// RegisterSpecification adds a packaging specification to the
// process-wide registry. Intended to be called from init functions;
// registering a duplicate ID panics, because two packages claiming
// the same specification is a programming error.
func RegisterSpecification(spec Specification) {
	specificationsMu.Lock()
	defer specificationsMu.Unlock()
	if _, exists := specifications[spec.ID()]; exists {
		panic(fmt.Sprintf("assembler: specification %s registered twice", spec.ID()))
	}
	specifications[spec.ID()] = spec
}

// LookupSpecification resolves a specification ID from repository
// configuration to its registered implementation.
func LookupSpecification(id string) (Specification, error) {
	specificationsMu.RLock()
	defer specificationsMu.RUnlock()
	spec, ok := specifications[id]
	if !ok {
		return nil, fmt.Errorf("no packaging specification registered for %q", id)
	}
	return spec, nil
}

// SpecificationIDs returns the registered specification IDs in sorted
// order, for CLI listings and configuration validation messages.
func SpecificationIDs() []string {
	specificationsMu.RLock()
	defer specificationsMu.RUnlock()
	ids := make([]string, 0, len(specifications))
	for id := range specifications {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
