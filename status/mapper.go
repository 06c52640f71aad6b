// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"sort"

	"github.com/birkland/deposit-services/deposit"
)

// Mapping translates canonical deposit states into domain statuses
// for one repository. Default is applied to every state without an
// exact entry and is mandatory; configuration loading rejects
// repositories that omit it.
type Mapping struct {
	// States maps individual states to statuses.
	States map[State]deposit.Status
	// Default is the status for states with no entry in States.
	Default deposit.Status
}

// Mapper answers "what does this repository's state mean for the
// deposit" from per-repository tables. It holds plain lookup tables
// and performs no I/O, so one Mapper serves any number of goroutines.
type Mapper struct {
	byRepository map[string]Mapping
}

// NewMapper builds a Mapper over per-repository mappings, keyed by
// repository key.
func NewMapper(byRepository map[string]Mapping) *Mapper {
	copied := make(map[string]Mapping, len(byRepository))
	for repository, mapping := range byRepository {
		copied[repository] = mapping
	}
	return &Mapper{byRepository: copied}
}

// Map returns the domain status the repository's configuration
// assigns to state: the exact entry when one exists, the repository's
// default otherwise. A repository with no configuration at all yields
// a *ConfigurationError.
func (m *Mapper) Map(repository string, state State) (deposit.Status, error) {
	mapping, ok := m.byRepository[repository]
	if !ok {
		return "", &ConfigurationError{Repository: repository}
	}
	if status, ok := mapping.States[state]; ok {
		return status, nil
	}
	return mapping.Default, nil
}

// Repositories returns the configured repository keys, sorted.
func (m *Mapper) Repositories() []string {
	keys := make([]string, 0, len(m.byRepository))
	for repository := range m.byRepository {
		keys = append(keys, repository)
	}
	sort.Strings(keys)
	return keys
}
