// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"fmt"
	"path"
	"strings"

	"github.com/birkland/deposit-services/deposit"
)

// placementPlan is the immutable mapping from original file names to
// final in-package paths. It is produced in full before any bytes
// move, and consulted by both archive writing and supplement
// generation, so a manifest always references remediated paths.
type placementPlan struct {
	byName map[string]string
	taken  map[string]bool
}

// planPlacement asks the specification for a candidate path per file,
// in input order, and remediates collisions deterministically: a
// candidate that is already assigned or reserved moves under the
// file's role directory, and if that is occupied too it takes the
// first free numbered suffix. Same files in the same order always
// produce the same plan.
func planPlacement(spec Specification, files []deposit.ContentFile) (*placementPlan, error) {
	plan := &placementPlan{
		byName: make(map[string]string, len(files)),
		taken:  make(map[string]bool, len(files)),
	}

	for _, file := range files {
		if file.Name == "" {
			return nil, fmt.Errorf("content file with empty name")
		}
		if _, dup := plan.byName[file.Name]; dup {
			return nil, fmt.Errorf("duplicate content file name %s", file.Name)
		}

		candidate, err := normalizePackagePath(spec.PlaceFile(file.Name, file.Role))
		if err != nil {
			return nil, fmt.Errorf("placing %s: %w", file.Name, err)
		}

		final := plan.remediate(spec, candidate, file.Role)
		plan.byName[file.Name] = final
		plan.taken[final] = true
	}

	return plan, nil
}

// remediate returns the first free path for a candidate. The
// remediation ladder is: the candidate itself, the candidate scoped
// under the role directory, then numbered suffixes ("-2", "-3", ...)
// inserted before the extension of the scoped candidate.
func (p *placementPlan) remediate(spec Specification, candidate string, role deposit.Role) string {
	free := func(pkgPath string) bool {
		return !p.taken[pkgPath] && !spec.Reserves(pkgPath)
	}

	if free(candidate) {
		return candidate
	}

	scoped := candidate
	if role != deposit.RoleUnspecified {
		scoped = path.Join(string(role), candidate)
		if free(scoped) {
			return scoped
		}
	}

	ext := path.Ext(scoped)
	stem := strings.TrimSuffix(scoped, ext)
	for n := 2; ; n++ {
		numbered := fmt.Sprintf("%s-%d%s", stem, n, ext)
		if free(numbered) {
			return numbered
		}
	}
}

// pathFor returns the final in-package path assigned to an original
// file name.
func (p *placementPlan) pathFor(name string) string {
	return p.byName[name]
}

// occupied reports whether an in-package path is already assigned to
// a custodial file. Used to reject supplements whose paths would
// overwrite content.
func (p *placementPlan) occupied(pkgPath string) bool {
	return p.taken[pkgPath]
}

// normalizePackagePath cleans a candidate in-package path and rejects
// anything that would escape the package root when extracted.
func normalizePackagePath(candidate string) (string, error) {
	if candidate == "" {
		return "", fmt.Errorf("empty package path")
	}
	if strings.HasPrefix(candidate, "/") {
		return "", fmt.Errorf("package path %q is absolute", candidate)
	}
	cleaned := path.Clean(candidate)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("package path %q escapes the package root", candidate)
	}
	return cleaned, nil
}
