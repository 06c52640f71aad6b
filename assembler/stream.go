// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// PackageStream is a produced package: finalized metadata plus a
// lazily-read byte source. The bytes live in a temporary cache file
// written during assembly, so Open can be called any number of times
// and always yields the same bytes. Close releases the cache; the
// owner of the stream must call it once the package has been
// consumed.
type PackageStream struct {
	metadata Metadata

	mu     sync.Mutex
	path   string
	closed bool
}

// Metadata returns the finalized package metadata.
func (s *PackageStream) Metadata() Metadata {
	return s.metadata
}

// Open returns a reader over the package bytes. Callers close the
// reader when done; multiple sequential opens read identical bytes.
func (s *PackageStream) Open() (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("package stream is closed")
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening package cache: %w", err)
	}
	return f, nil
}

// WriteFile copies the package bytes to path, creating or truncating
// the destination file.
func (s *PackageStream) WriteFile(path string) error {
	src, err := s.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating package file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return fmt.Errorf("writing package file %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing package file %s: %w", path, err)
	}
	return nil
}

// Close removes the temporary cache backing the stream. Safe to call
// more than once; after Close, Open fails.
func (s *PackageStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("removing package cache: %w", err)
	}
	return nil
}
