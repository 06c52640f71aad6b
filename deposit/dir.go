// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package deposit

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DescriptorName is the reserved file within a submission directory
// that carries the submission id, metadata, and file roles. It is
// never a content file.
const DescriptorName = "submission.json"

// descriptor mirrors the submission.json layout.
type descriptor struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
	Roles    map[string]string `json:"roles"`
}

// LoadDir builds a Submission from a directory on disk. The directory
// must contain a submission.json descriptor; every other regular file
// below it becomes a content file, discovered in lexical path order.
// Hidden files and directories (dot-prefixed) are skipped. File names
// are slash-separated paths relative to dir.
//
// Content files are opened lazily: LoadDir stats them for sizes but
// opens nothing until the assembler reads them.
func LoadDir(dir string) (*Submission, error) {
	raw, err := os.ReadFile(filepath.Join(dir, DescriptorName))
	if err != nil {
		return nil, fmt.Errorf("reading submission descriptor: %w", err)
	}
	var desc descriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DescriptorName, err)
	}
	if desc.ID == "" {
		return nil, fmt.Errorf("%s has no submission id", DescriptorName)
	}

	var names []string
	sizes := make(map[string]int64)
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != dir && entry.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Name()[0] == '.' {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == DescriptorName {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		names = append(names, name)
		sizes[name] = info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning submission directory: %w", err)
	}
	sort.Strings(names)

	for name := range desc.Roles {
		if _, ok := sizes[name]; !ok {
			return nil, fmt.Errorf("%s assigns a role to missing file %s", DescriptorName, name)
		}
	}

	files := make([]ContentFile, 0, len(names))
	for _, name := range names {
		role, err := ParseRole(desc.Roles[name])
		if err != nil {
			return nil, fmt.Errorf("file %s: %w", name, err)
		}
		path := filepath.Join(dir, filepath.FromSlash(name))
		files = append(files, ContentFile{
			Name: name,
			Role: role,
			Size: sizes[name],
			Open: func() (io.ReadCloser, error) {
				return os.Open(path)
			},
		})
	}

	return &Submission{
		ID:       desc.ID,
		Files:    files,
		Metadata: desc.Metadata,
	}, nil
}
