// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"time"
)

// packageEpoch is the fixed modification time stamped on every
// archive entry. Pinning the timestamp (together with zero owner ids
// and fixed modes) makes package output a pure function of the
// submission, so assembling twice yields byte-identical bytes.
var packageEpoch = time.Unix(0, 0).UTC()

// archiveWriter writes package entries to an underlying stream. An
// entry's bytes are consumed from the supplied reader in a single
// pass; close finalizes the archive trailer without closing the
// underlying stream.
type archiveWriter interface {
	// add writes one entry. size is the entry length in bytes, or
	// negative when unknown; writers whose format needs the length
	// up front report that via requiresLength, and the engine spools
	// unsized content before calling add.
	add(path string, size int64, r io.Reader) error
	// requiresLength reports whether add must receive a non-negative
	// size.
	requiresLength() bool
	close() error
}

// newArchiveWriter returns the writer for the archive layer, writing
// to w.
func newArchiveWriter(w io.Writer, format ArchiveFormat) (archiveWriter, error) {
	switch format {
	case ArchiveNone:
		return &rawWriter{w: w}, nil
	case ArchiveTar:
		return &tarArchiveWriter{tw: tar.NewWriter(w)}, nil
	case ArchiveZip:
		return &zipArchiveWriter{zw: zip.NewWriter(w)}, nil
	default:
		return nil, fmt.Errorf("unsupported archive format %v", format)
	}
}

// tarArchiveWriter emits a POSIX tar stream. Tar headers carry the
// entry size, so unsized content must be spooled by the caller first.
type tarArchiveWriter struct {
	tw *tar.Writer
}

func (w *tarArchiveWriter) requiresLength() bool { return true }

func (w *tarArchiveWriter) add(path string, size int64, r io.Reader) error {
	if size < 0 {
		return fmt.Errorf("tar entry %s: size unknown", path)
	}
	header := &tar.Header{
		Name:    path,
		Mode:    0o644,
		Size:    size,
		ModTime: packageEpoch,
	}
	if err := w.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("tar entry %s: writing header: %w", path, err)
	}
	written, err := io.Copy(w.tw, r)
	if err != nil {
		return fmt.Errorf("tar entry %s: %w", path, err)
	}
	if written != size {
		return fmt.Errorf("tar entry %s: content is %d bytes, expected %d", path, written, size)
	}
	return nil
}

func (w *tarArchiveWriter) close() error {
	if err := w.tw.Close(); err != nil {
		return fmt.Errorf("finalizing tar stream: %w", err)
	}
	return nil
}

// zipArchiveWriter emits a ZIP stream. Entries are written with
// streaming data descriptors, so sizes need not be known up front.
type zipArchiveWriter struct {
	zw *zip.Writer
}

func (w *zipArchiveWriter) requiresLength() bool { return false }

func (w *zipArchiveWriter) add(path string, size int64, r io.Reader) error {
	header := &zip.FileHeader{
		Name:     path,
		Method:   zip.Deflate,
		Modified: packageEpoch,
	}
	header.SetMode(0o644)
	entry, err := w.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("zip entry %s: creating header: %w", path, err)
	}
	written, err := io.Copy(entry, r)
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", path, err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("zip entry %s: content is %d bytes, expected %d", path, written, size)
	}
	return nil
}

func (w *zipArchiveWriter) close() error {
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("finalizing zip stream: %w", err)
	}
	return nil
}

// rawWriter emits the single custodial file with no archive framing.
// The engine enforces the single-resource rule before composition
// starts; the entry count check here is a backstop.
type rawWriter struct {
	w       io.Writer
	entries int
}

func (w *rawWriter) requiresLength() bool { return false }

func (w *rawWriter) add(path string, size int64, r io.Reader) error {
	if w.entries > 0 {
		return fmt.Errorf("raw package cannot hold a second entry %s", path)
	}
	w.entries++
	written, err := io.Copy(w.w, r)
	if err != nil {
		return fmt.Errorf("raw entry %s: %w", path, err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("raw entry %s: content is %d bytes, expected %d", path, written, size)
	}
	return nil
}

func (w *rawWriter) close() error { return nil }
