// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

// Package repodef provides parsing and validation for repository
// definition files. A definition file maps repository keys to
// everything the system needs to deposit into that repository: how to
// package submissions (assembler settings), how to move packages
// (transport protocol binding and credentials), and how to interpret
// repository deposit states (status mapping).
//
// Definition files are JSON authored as JSONC (JSON extended with
// comments and trailing commas). The raw document is checked against
// an embedded JSON Schema before decoding, so malformed definitions
// fail at load time with a schema error rather than surfacing later
// as a misconfigured deposit.
package repodef

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/jsonc"
)

// DefaultMappingKey is the mapping entry that absorbs every deposit
// state without an exact entry. Each repository must define it.
const DefaultMappingKey = "default-mapping"

// Registry holds the parsed repository definitions, keyed by
// repository key.
type Registry struct {
	repositories map[string]*Repository
}

// Repository is one repository's definition.
type Repository struct {
	// Key is the repository's key within the definition file.
	Key string `json:"-"`

	DepositConfig   DepositConfig   `json:"deposit-config"`
	Assembler       AssemblerConfig `json:"assembler"`
	TransportConfig TransportConfig `json:"transport-config"`
}

// DepositConfig carries deposit processing settings and the status
// mapping table.
type DepositConfig struct {
	Processing ProcessingConfig `json:"processing"`

	// Mapping maps canonical deposit state tokens to status names,
	// plus the mandatory "default-mapping" entry.
	Mapping map[string]string `json:"mapping"`
}

// ProcessingConfig carries settings for tracking a deposit after
// handoff.
type ProcessingConfig struct {
	// StatementURIPrefix, when set, locates the repository's deposit
	// statement documents; the deposit's statement ref is resolved
	// against it.
	StatementURIPrefix string `json:"statement-uri-prefix"`
}

// AssemblerConfig names the packaging settings for a repository. The
// names are resolved to typed assembler options by AssemblerOptions.
type AssemblerConfig struct {
	Specification string   `json:"specification"`
	Archive       string   `json:"archive"`
	Compression   string   `json:"compression"`
	Checksums     []string `json:"checksums"`
}

// TransportConfig carries the transport protocol binding and the
// credentials for a repository's endpoints.
type TransportConfig struct {
	AuthRealms      []AuthRealm     `json:"auth-realms"`
	ProtocolBinding ProtocolBinding `json:"protocol-binding"`
}

// AuthRealm is one credential scoped to a URL prefix. A transport
// session picks the realm whose URL is the longest prefix of the
// endpoint it is about to contact.
type AuthRealm struct {
	Mech     string `json:"mech"`
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
}

// ProtocolBinding names the transport protocol for a repository and
// carries the protocol's hint keys verbatim. Hint keys are opaque
// here; the transport selected by Protocol interprets them.
type ProtocolBinding struct {
	Protocol string
	Hints    map[string]string
}

// UnmarshalJSON decodes the binding's "protocol" field and collects
// every other key into Hints.
func (b *ProtocolBinding) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Protocol = raw["protocol"]
	delete(raw, "protocol")
	b.Hints = raw
	return nil
}

// Parse strips JSONC comments and trailing commas from data,
// validates the result against the embedded repository definition
// schema, and decodes it into a Registry.
func Parse(data []byte) (*Registry, error) {
	stripped := jsonc.ToJSON(data)

	if err := validateRegistrySchema(stripped); err != nil {
		return nil, err
	}

	var repositories map[string]*Repository
	if err := json.Unmarshal(stripped, &repositories); err != nil {
		return nil, fmt.Errorf("parsing repository definitions: %w", err)
	}
	for key, repository := range repositories {
		repository.Key = key
	}

	return &Registry{repositories: repositories}, nil
}

// ReadFile reads a JSONC repository definition file from disk and
// parses it into a Registry.
func ReadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	registry, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return registry, nil
}

// Repository returns the definition for a repository key.
func (r *Registry) Repository(key string) (*Repository, error) {
	repository, ok := r.repositories[key]
	if !ok {
		return nil, fmt.Errorf("repository %s is not defined", key)
	}
	return repository, nil
}

// Keys returns the defined repository keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.repositories))
	for key := range r.repositories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
