// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package repodef

import (
	"fmt"
	"strings"

	"github.com/birkland/deposit-services/assembler"
	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/lib/checksum"
	"github.com/birkland/deposit-services/status"
)

// StatusMappings resolves every repository's mapping table into the
// typed form the status mapper consumes.
func (r *Registry) StatusMappings() (map[string]status.Mapping, error) {
	mappings := make(map[string]status.Mapping, len(r.repositories))
	for key, repository := range r.repositories {
		mapping, err := repository.statusMapping()
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", key, err)
		}
		mappings[key] = mapping
	}
	return mappings, nil
}

func (r *Repository) statusMapping() (status.Mapping, error) {
	raw := r.DepositConfig.Mapping
	mapping := status.Mapping{
		States: make(map[status.State]deposit.Status, len(raw)),
	}
	for token, name := range raw {
		parsed, err := deposit.ParseStatus(name)
		if err != nil {
			return status.Mapping{}, fmt.Errorf("mapping %s: %w", token, err)
		}
		if token == DefaultMappingKey {
			mapping.Default = parsed
			continue
		}
		state, err := status.ParseState(token)
		if err != nil {
			return status.Mapping{}, fmt.Errorf("mapping: %w", err)
		}
		mapping.States[state] = parsed
	}
	if mapping.Default == "" {
		return status.Mapping{}, fmt.Errorf("mapping has no %s", DefaultMappingKey)
	}
	return mapping, nil
}

// AssemblerOptions resolves the repository's packaging names into
// typed assembler options: the registered specification, the archive
// and compression layers, and the checksum algorithm list (nil when
// unset, letting the assembler apply its default).
func (r *Repository) AssemblerOptions() (assembler.Options, error) {
	specification, err := assembler.LookupSpecification(r.Assembler.Specification)
	if err != nil {
		return assembler.Options{}, fmt.Errorf("repository %s: %w", r.Key, err)
	}
	format, err := assembler.ParseArchiveFormat(r.Assembler.Archive)
	if err != nil {
		return assembler.Options{}, fmt.Errorf("repository %s: %w", r.Key, err)
	}
	compression, err := assembler.ParseCompression(r.Assembler.Compression)
	if err != nil {
		return assembler.Options{}, fmt.Errorf("repository %s: %w", r.Key, err)
	}

	var algorithms []checksum.Algorithm
	for _, name := range r.Assembler.Checksums {
		algorithm, err := checksum.ParseAlgorithm(name)
		if err != nil {
			return assembler.Options{}, fmt.Errorf("repository %s: %w", r.Key, err)
		}
		algorithms = append(algorithms, algorithm)
	}

	return assembler.Options{
		Specification: specification,
		Archive:       format,
		Compression:   compression,
		Algorithms:    algorithms,
	}, nil
}

// Realm returns the auth realm whose URL is the longest prefix of
// endpoint, or nil when no realm matches.
func (r *Repository) Realm(endpoint string) *AuthRealm {
	var best *AuthRealm
	bestLen := -1
	for i := range r.TransportConfig.AuthRealms {
		realm := &r.TransportConfig.AuthRealms[i]
		if strings.HasPrefix(endpoint, realm.URL) && len(realm.URL) > bestLen {
			best = realm
			bestLen = len(realm.URL)
		}
	}
	return best
}
