// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import "fmt"

// ArchiveFormat identifies the archive layer of a package. Names are
// protocol constants: they appear in repository configuration and in
// ledger rows.
type ArchiveFormat uint8

const (
	// ArchiveNone emits the single custodial file as the package
	// body with no archive framing. Only legal for a submission that
	// yields exactly one resource under a specification that emits
	// no supplements.
	ArchiveNone ArchiveFormat = 0

	// ArchiveTar is a POSIX tar stream. Entries carry a fixed epoch
	// modification time and zero owner ids so output is reproducible.
	ArchiveTar ArchiveFormat = 1

	// ArchiveZip is a ZIP stream. Entries are deflated and written
	// with streaming data descriptors, so entry sizes need not be
	// known up front.
	ArchiveZip ArchiveFormat = 2
)

// String returns the lowercase format name used in configuration.
func (f ArchiveFormat) String() string {
	switch f {
	case ArchiveNone:
		return "none"
	case ArchiveTar:
		return "tar"
	case ArchiveZip:
		return "zip"
	default:
		return fmt.Sprintf("archive(%d)", uint8(f))
	}
}

// ParseArchiveFormat parses an archive format name from configuration.
func ParseArchiveFormat(name string) (ArchiveFormat, error) {
	switch name {
	case "none":
		return ArchiveNone, nil
	case "tar":
		return ArchiveTar, nil
	case "zip":
		return ArchiveZip, nil
	default:
		return 0, fmt.Errorf("unknown archive format %q", name)
	}
}

// MarshalText encodes the format as its configuration name, so it
// appears as a string in JSON documents.
func (f ArchiveFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses a configuration name.
func (f *ArchiveFormat) UnmarshalText(text []byte) error {
	parsed, err := ParseArchiveFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Compression identifies the compression layer wrapped around the
// archive stream. Independent of the archive format: every archive
// and compression combination is supported.
type Compression uint8

const (
	CompressionNone  Compression = 0
	CompressionGzip  Compression = 1
	CompressionBzip2 Compression = 2
	CompressionZstd  Compression = 3
	CompressionLZ4   Compression = 4
)

// String returns the lowercase compression name used in configuration.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name from configuration.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "bzip2":
		return CompressionBzip2, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// MarshalText encodes the compression as its configuration name.
func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a configuration name.
func (c *Compression) UnmarshalText(text []byte) error {
	parsed, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Extension returns the conventional file extension for a package
// with the given layers, for example ".tar.gz" or ".zip". ArchiveNone
// contributes no base extension.
func Extension(format ArchiveFormat, compression Compression) string {
	var ext string
	switch format {
	case ArchiveTar:
		ext = ".tar"
	case ArchiveZip:
		ext = ".zip"
	}
	switch compression {
	case CompressionGzip:
		ext += ".gz"
	case CompressionBzip2:
		ext += ".bz2"
	case CompressionZstd:
		ext += ".zst"
	case CompressionLZ4:
		ext += ".lz4"
	}
	return ext
}

// MediaType returns the media type of the produced package bytes.
// The outermost layer wins: a compressed package reports the
// compression's media type regardless of what it wraps.
func MediaType(format ArchiveFormat, compression Compression) string {
	switch compression {
	case CompressionGzip:
		return "application/gzip"
	case CompressionBzip2:
		return "application/x-bzip2"
	case CompressionZstd:
		return "application/zstd"
	case CompressionLZ4:
		return "application/x-lz4"
	}
	switch format {
	case ArchiveTar:
		return "application/x-tar"
	case ArchiveZip:
		return "application/zip"
	}
	return "application/octet-stream"
}
