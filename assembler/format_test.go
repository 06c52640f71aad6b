// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import "testing"

func TestArchiveFormatRoundTrip(t *testing.T) {
	for _, format := range []ArchiveFormat{ArchiveNone, ArchiveTar, ArchiveZip} {
		parsed, err := ParseArchiveFormat(format.String())
		if err != nil {
			t.Errorf("ParseArchiveFormat(%q): %v", format.String(), err)
			continue
		}
		if parsed != format {
			t.Errorf("ParseArchiveFormat(%q) = %v, want %v", format.String(), parsed, format)
		}
	}
	if _, err := ParseArchiveFormat("rar"); err == nil {
		t.Error("ParseArchiveFormat(rar): expected error, got nil")
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionGzip, CompressionBzip2, CompressionZstd, CompressionLZ4} {
		parsed, err := ParseCompression(compression.String())
		if err != nil {
			t.Errorf("ParseCompression(%q): %v", compression.String(), err)
			continue
		}
		if parsed != compression {
			t.Errorf("ParseCompression(%q) = %v, want %v", compression.String(), parsed, compression)
		}
	}
	if _, err := ParseCompression("brotli"); err == nil {
		t.Error("ParseCompression(brotli): expected error, got nil")
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		archive     ArchiveFormat
		compression Compression
		want        string
	}{
		{ArchiveTar, CompressionNone, ".tar"},
		{ArchiveTar, CompressionGzip, ".tar.gz"},
		{ArchiveTar, CompressionBzip2, ".tar.bz2"},
		{ArchiveTar, CompressionZstd, ".tar.zst"},
		{ArchiveTar, CompressionLZ4, ".tar.lz4"},
		{ArchiveZip, CompressionNone, ".zip"},
		{ArchiveZip, CompressionGzip, ".zip.gz"},
		{ArchiveNone, CompressionNone, ""},
		{ArchiveNone, CompressionGzip, ".gz"},
		{ArchiveNone, CompressionBzip2, ".bz2"},
	}
	for _, tt := range tests {
		if got := Extension(tt.archive, tt.compression); got != tt.want {
			t.Errorf("Extension(%v, %v) = %q, want %q", tt.archive, tt.compression, got, tt.want)
		}
	}
}

func TestMediaType(t *testing.T) {
	tests := []struct {
		archive     ArchiveFormat
		compression Compression
		want        string
	}{
		{ArchiveTar, CompressionGzip, "application/gzip"},
		{ArchiveTar, CompressionBzip2, "application/x-bzip2"},
		{ArchiveTar, CompressionZstd, "application/zstd"},
		{ArchiveTar, CompressionLZ4, "application/x-lz4"},
		{ArchiveTar, CompressionNone, "application/x-tar"},
		{ArchiveZip, CompressionNone, "application/zip"},
		{ArchiveNone, CompressionNone, "application/octet-stream"},
		{ArchiveNone, CompressionGzip, "application/gzip"},
	}
	for _, tt := range tests {
		if got := MediaType(tt.archive, tt.compression); got != tt.want {
			t.Errorf("MediaType(%v, %v) = %q, want %q", tt.archive, tt.compression, got, tt.want)
		}
	}
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   string
	}{
		{name: "paper.pdf", want: "application/pdf"},
		{name: "data.json", want: "application/json"},
		{name: "blob", prefix: []byte("%PDF-1.7 garbage"), want: "application/pdf"},
		{name: "blob", prefix: []byte{0x00, 0x01, 0x02, 0x03}, want: "application/octet-stream"},
	}
	for _, tt := range tests {
		got := detectMediaType(tt.name, tt.prefix)
		if got != tt.want {
			t.Errorf("detectMediaType(%q, %d bytes) = %q, want %q", tt.name, len(tt.prefix), got, tt.want)
		}
	}
}
