// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"encoding/json"
	"fmt"

	"github.com/birkland/deposit-services/deposit"
)

// InventorySpecificationID identifies the built-in inventory
// packaging specification.
const InventorySpecificationID = "https://birkland.github.io/deposit-services/packaging/inventory-1.0"

// inventoryManifestPath is the single path the inventory
// specification reserves for its generated manifest.
const inventoryManifestPath = "inventory.json"

func init() {
	RegisterSpecification(inventorySpecification{})
}

// inventorySpecification is the neutral default packaging layout:
// custodial files keep their submitted names (including any relative
// subdirectories), and the package carries a JSON manifest listing
// the submission's descriptive metadata and every resource with its
// final path, size, media type, and checksums. Repositories without
// a format-specific packager accept this layout as a self-describing
// transfer package.
type inventorySpecification struct{}

func (inventorySpecification) ID() string {
	return InventorySpecificationID
}

func (inventorySpecification) PlaceFile(name string, role deposit.Role) string {
	return name
}

func (inventorySpecification) Reserves(path string) bool {
	return path == inventoryManifestPath
}

func (inventorySpecification) Supplements(submission *deposit.Submission, resources []Resource) ([]Supplement, error) {
	manifest := inventoryManifest{
		Specification: InventorySpecificationID,
		Submission: inventorySubmission{
			ID:       submission.ID,
			Metadata: submission.Metadata,
		},
		Resources: resources,
	}

	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rendering inventory manifest: %w", err)
	}
	body = append(body, '\n')

	return []Supplement{{Path: inventoryManifestPath, Body: body}}, nil
}

// inventoryManifest is the document written to inventory.json.
// encoding/json sorts map keys, so the rendered manifest is
// deterministic for a given submission.
type inventoryManifest struct {
	Specification string              `json:"specification"`
	Submission    inventorySubmission `json:"submission"`
	Resources     []Resource          `json:"resources"`
}

type inventorySubmission struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
