// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/birkland/deposit-services/assembler"
	"github.com/birkland/deposit-services/lib/checksum"
)

// writeDefinitions drops a minimal repository definitions file into a
// temp directory and returns its path.
func writeDefinitions(t *testing.T) string {
	t.Helper()
	const definitions = `{
	"jscholarship": {
		"deposit-config": {
			"mapping": {
				"archived": "accepted",
				"withdrawn": "rejected",
				"default-mapping": "submitted",
			},
		},
		"assembler": {
			"specification": "https://birkland.github.io/deposit-services/packaging/inventory-1.0",
			"archive": "zip",
			"compression": "none",
			"checksums": ["sha256", "md5"],
		},
		"transport-config": {
			"protocol-binding": {
				"protocol": "file",
				"deposit.transport.protocol.file.base-directory": "/var/deposits",
			},
		},
	},
}`
	path := filepath.Join(t.TempDir(), "repositories.json")
	if err := os.WriteFile(path, []byte(definitions), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPackageOptionsExplicit(t *testing.T) {
	params := packageParams{
		specification: assembler.InventorySpecificationID,
		archive:       "zip",
		compression:   "zstd",
		checksums:     []string{"sha512", "blake3"},
	}

	opts, err := params.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Specification.ID() != assembler.InventorySpecificationID {
		t.Errorf("Specification = %q", opts.Specification.ID())
	}
	if opts.Archive != assembler.ArchiveZip {
		t.Errorf("Archive = %v, want zip", opts.Archive)
	}
	if opts.Compression != assembler.CompressionZstd {
		t.Errorf("Compression = %v, want zstd", opts.Compression)
	}
	want := []checksum.Algorithm{checksum.SHA512, checksum.BLAKE3}
	if len(opts.Algorithms) != len(want) {
		t.Fatalf("Algorithms = %v, want %v", opts.Algorithms, want)
	}
	for i, algorithm := range want {
		if opts.Algorithms[i] != algorithm {
			t.Errorf("Algorithms[%d] = %v, want %v", i, opts.Algorithms[i], algorithm)
		}
	}
}

func TestPackageOptionsExplicitRejectsUnknownNames(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*packageParams)
		want   string
	}{
		{
			name:   "unknown specification",
			mutate: func(p *packageParams) { p.specification = "https://example.org/no-such-spec" },
			want:   "specification",
		},
		{
			name:   "unknown archive",
			mutate: func(p *packageParams) { p.archive = "rar" },
			want:   "archive",
		},
		{
			name:   "unknown compression",
			mutate: func(p *packageParams) { p.compression = "brotli" },
			want:   "compression",
		},
		{
			name:   "unknown checksum",
			mutate: func(p *packageParams) { p.checksums = []string{"crc32"} },
			want:   "algorithm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := packageParams{
				specification: assembler.InventorySpecificationID,
				archive:       "tar",
				compression:   "gzip",
			}
			tt.mutate(&params)
			_, err := params.options()
			if err == nil {
				t.Fatal("options accepted bad input")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestPackageOptionsFromRepository(t *testing.T) {
	params := packageParams{
		repositories: writeDefinitions(t),
		repository:   "jscholarship",
		// Explicit flag values are ignored when a repository is
		// named; leave them at hostile values to prove it.
		archive:     "rar",
		compression: "brotli",
	}

	opts, err := params.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Archive != assembler.ArchiveZip {
		t.Errorf("Archive = %v, want zip from the definition", opts.Archive)
	}
	if opts.Compression != assembler.CompressionNone {
		t.Errorf("Compression = %v, want none from the definition", opts.Compression)
	}
	want := []checksum.Algorithm{checksum.SHA256, checksum.MD5}
	if len(opts.Algorithms) != len(want) || opts.Algorithms[0] != want[0] || opts.Algorithms[1] != want[1] {
		t.Errorf("Algorithms = %v, want %v", opts.Algorithms, want)
	}
}

func TestPackageOptionsRepositoryRequiresDefinitions(t *testing.T) {
	params := packageParams{repository: "jscholarship"}
	_, err := params.options()
	if err == nil {
		t.Fatal("options resolved a repository without a definitions file")
	}
	if !strings.Contains(err.Error(), "--repositories") {
		t.Errorf("error %q does not point at the --repositories flag", err)
	}
}

func TestPackageOptionsUnknownRepository(t *testing.T) {
	params := packageParams{
		repositories: writeDefinitions(t),
		repository:   "nonesuch",
	}
	_, err := params.options()
	if err == nil {
		t.Fatal("options resolved an unconfigured repository")
	}
	if !strings.Contains(err.Error(), "nonesuch") {
		t.Errorf("error %q does not name the repository", err)
	}
}
