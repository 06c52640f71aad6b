// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package repodef

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed repositories.schema.json
var registrySchema []byte

const registrySchemaID = "inmemory://repositories.schema.json"

// validateRegistrySchema checks a stripped (comment-free) definition
// document against the embedded schema. Validation happens before
// typed decoding so shape errors name the offending JSON location
// rather than a Go field.
func validateRegistrySchema(stripped []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(registrySchemaID, bytes.NewReader(registrySchema)); err != nil {
		return fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile(registrySchemaID)
	if err != nil {
		return fmt.Errorf("compiling repository definition schema: %w", err)
	}

	var payload any
	if err := json.Unmarshal(stripped, &payload); err != nil {
		return fmt.Errorf("parsing repository definitions: %w", err)
	}
	if err := compiled.Validate(payload); err != nil {
		return fmt.Errorf("invalid repository definitions: %w", err)
	}
	return nil
}
