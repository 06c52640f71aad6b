// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/lib/checksum"
)

// memFile returns a ContentFile backed by an in-memory string. With
// sized=false the file carries no size hint, exercising the spool
// path for tar archives.
func memFile(name string, role deposit.Role, content string, sized bool) deposit.ContentFile {
	size := int64(len(content))
	if !sized {
		size = -1
	}
	return deposit.ContentFile{
		Name: name,
		Role: role,
		Size: size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func testSubmission(files ...deposit.ContentFile) *deposit.Submission {
	return &deposit.Submission{
		ID:       "submission:test",
		Files:    files,
		Metadata: map[string]string{"title": "Streaming Checksums Considered Useful"},
	}
}

func inventorySpec(t *testing.T) Specification {
	t.Helper()
	spec, err := LookupSpecification(InventorySpecificationID)
	if err != nil {
		t.Fatalf("LookupSpecification(%s): %v", InventorySpecificationID, err)
	}
	return spec
}

// plainSpec places files by their original names and generates
// nothing, so it can drive archive-format none.
type plainSpec struct{}

func (plainSpec) ID() string                                 { return "example:plain" }
func (plainSpec) PlaceFile(name string, _ deposit.Role) string { return name }
func (plainSpec) Reserves(string) bool                       { return false }
func (plainSpec) Supplements(*deposit.Submission, []Resource) ([]Supplement, error) {
	return nil, nil
}

func assemblePackage(t *testing.T, submission *deposit.Submission, opts Options) *PackageStream {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	var assembler Assembler
	stream, err := assembler.Assemble(context.Background(), submission, opts)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	t.Cleanup(func() { stream.Close() })
	return stream
}

func readPackage(t *testing.T, stream *PackageStream) []byte {
	t.Helper()
	r, err := stream.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading package: %v", err)
	}
	return data
}

// extractPackage decompresses and un-archives package bytes, keyed by
// entry path. For archive none the single body is keyed by the lone
// resource's path.
func extractPackage(t *testing.T, data []byte, metadata Metadata) map[string][]byte {
	t.Helper()

	decompressor, err := newCompressionReader(bytes.NewReader(data), metadata.Compression)
	if err != nil {
		t.Fatalf("opening decompressor: %v", err)
	}
	defer decompressor.Close()

	plain, err := io.ReadAll(decompressor)
	if err != nil {
		t.Fatalf("decompressing package: %v", err)
	}

	entries := make(map[string][]byte)
	switch metadata.Archive {
	case ArchiveTar:
		tr := tar.NewReader(bytes.NewReader(plain))
		for {
			header, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("reading tar: %v", err)
			}
			body, err := io.ReadAll(tr)
			if err != nil {
				t.Fatalf("reading tar entry %s: %v", header.Name, err)
			}
			entries[header.Name] = body
		}

	case ArchiveZip:
		zr, err := zip.NewReader(bytes.NewReader(plain), int64(len(plain)))
		if err != nil {
			t.Fatalf("opening zip: %v", err)
		}
		for _, file := range zr.File {
			rc, err := file.Open()
			if err != nil {
				t.Fatalf("opening zip entry %s: %v", file.Name, err)
			}
			body, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatalf("reading zip entry %s: %v", file.Name, err)
			}
			entries[file.Name] = body
		}

	case ArchiveNone:
		if len(metadata.Resources) != 1 {
			t.Fatalf("archive none package lists %d resources, want 1", len(metadata.Resources))
		}
		entries[metadata.Resources[0].Path] = plain
	}
	return entries
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func digestByAlgorithm(t *testing.T, digests []checksum.Digest, algorithm checksum.Algorithm) checksum.Digest {
	t.Helper()
	for _, d := range digests {
		if d.Algorithm == algorithm {
			return d
		}
	}
	t.Fatalf("no %v digest recorded", algorithm)
	return checksum.Digest{}
}

func TestAssembleTarGzipRoundTrip(t *testing.T) {
	manuscript := strings.Repeat("manuscript body. ", 200)
	submission := testSubmission(
		memFile("article.pdf", deposit.RoleManuscript, manuscript, true),
		memFile("figures/fig1.png", deposit.RoleFigure, "PNG-ish bytes", true),
		memFile("dataset.csv", deposit.RoleSupplement, "a,b\n1,2\n", true),
	)

	stream := assemblePackage(t, submission, Options{
		Specification: inventorySpec(t),
		Archive:       ArchiveTar,
		Compression:   CompressionGzip,
	})

	data := readPackage(t, stream)
	metadata := stream.Metadata()

	if metadata.Size != int64(len(data)) {
		t.Errorf("metadata.Size = %d, want %d", metadata.Size, len(data))
	}
	if metadata.MediaType != "application/gzip" {
		t.Errorf("metadata.MediaType = %q, want application/gzip", metadata.MediaType)
	}
	if metadata.Specification != InventorySpecificationID {
		t.Errorf("metadata.Specification = %q, want %q", metadata.Specification, InventorySpecificationID)
	}

	// The package-level digest covers the bytes as transmitted.
	packageSHA := digestByAlgorithm(t, metadata.Checksums, checksum.SHA256)
	if got := hex.EncodeToString(packageSHA.Sum); got != sha256Hex(data) {
		t.Errorf("package sha256 = %s, want %s", got, sha256Hex(data))
	}

	entries := extractPackage(t, data, metadata)

	want := map[string]string{
		"article.pdf":     manuscript,
		"figures/fig1.png": "PNG-ish bytes",
		"dataset.csv":     "a,b\n1,2\n",
	}
	for path, content := range want {
		body, ok := entries[path]
		if !ok {
			t.Fatalf("package is missing entry %s (has %v)", path, entryPaths(entries))
		}
		if !bytes.Equal(body, []byte(content)) {
			t.Errorf("entry %s = %q, want %q", path, body, content)
		}
	}

	// Per-resource digests match an independent computation over the
	// extracted bytes.
	for _, resource := range metadata.Resources {
		body := entries[resource.Path]
		if resource.Size != int64(len(body)) {
			t.Errorf("resource %s size = %d, want %d", resource.Path, resource.Size, len(body))
		}
		recorded := digestByAlgorithm(t, resource.Checksums, checksum.SHA256)
		if got := hex.EncodeToString(recorded.Sum); got != sha256Hex(body) {
			t.Errorf("resource %s sha256 = %s, want %s", resource.Path, got, sha256Hex(body))
		}
	}

	// The manifest is present, parses, and references final paths.
	manifest, ok := entries["inventory.json"]
	if !ok {
		t.Fatal("package is missing inventory.json")
	}
	var decoded struct {
		Specification string `json:"specification"`
		Submission    struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"submission"`
		Resources []Resource `json:"resources"`
	}
	if err := json.Unmarshal(manifest, &decoded); err != nil {
		t.Fatalf("parsing inventory.json: %v", err)
	}
	if decoded.Submission.ID != submission.ID {
		t.Errorf("manifest submission id = %q, want %q", decoded.Submission.ID, submission.ID)
	}
	if len(decoded.Resources) != len(submission.Files) {
		t.Errorf("manifest lists %d resources, want %d", len(decoded.Resources), len(submission.Files))
	}
}

func entryPaths(entries map[string][]byte) []string {
	paths := make([]string, 0, len(entries))
	for path := range entries {
		paths = append(paths, path)
	}
	return paths
}

func TestAssembleEveryLayerCombination(t *testing.T) {
	archives := []ArchiveFormat{ArchiveTar, ArchiveZip}
	compressions := []Compression{CompressionNone, CompressionGzip, CompressionBzip2, CompressionZstd, CompressionLZ4}

	for _, archive := range archives {
		for _, compression := range compressions {
			t.Run(fmt.Sprintf("%s_%s", archive, compression), func(t *testing.T) {
				submission := testSubmission(
					memFile("paper.txt", deposit.RoleManuscript, strings.Repeat("results! ", 500), true),
					memFile("notes.txt", deposit.RoleSupplement, "raw notes", true),
				)
				stream := assemblePackage(t, submission, Options{
					Specification: inventorySpec(t),
					Archive:       archive,
					Compression:   compression,
				})

				data := readPackage(t, stream)
				entries := extractPackage(t, data, stream.Metadata())

				if got := string(entries["notes.txt"]); got != "raw notes" {
					t.Errorf("notes.txt = %q, want %q", got, "raw notes")
				}
				if len(entries["paper.txt"]) != len("results! ")*500 {
					t.Errorf("paper.txt length = %d, want %d", len(entries["paper.txt"]), len("results! ")*500)
				}
				if _, ok := entries["inventory.json"]; !ok {
					t.Error("package is missing inventory.json")
				}
			})
		}
	}
}

func TestAssembleDeterministic(t *testing.T) {
	build := func() []byte {
		submission := testSubmission(
			memFile("article.pdf", deposit.RoleManuscript, "identical bytes", true),
			memFile("data.csv", deposit.RoleSupplement, "1,2,3\n", true),
		)
		stream := assemblePackage(t, submission, Options{
			Specification: inventorySpec(t),
			Archive:       ArchiveTar,
			Compression:   CompressionGzip,
		})
		return readPackage(t, stream)
	}

	first := build()
	second := build()
	if !bytes.Equal(first, second) {
		t.Error("assembling the same submission twice produced different bytes")
	}
}

func TestAssembleEmptySubmissionRefused(t *testing.T) {
	var assembler Assembler
	_, err := assembler.Assemble(context.Background(), testSubmission(), Options{
		Specification: inventorySpec(t),
		Archive:       ArchiveTar,
	})
	if err == nil {
		t.Fatal("Assemble of empty submission: expected error, got nil")
	}
	if !IsAssemblyError(err) {
		t.Errorf("error %v is not an AssemblyError", err)
	}
	var assemblyErr *AssemblyError
	if errors.As(err, &assemblyErr) && assemblyErr.SubmissionID != "submission:test" {
		t.Errorf("SubmissionID = %q, want submission:test", assemblyErr.SubmissionID)
	}
}

func TestAssembleUnknownSizeSpools(t *testing.T) {
	content := strings.Repeat("unsized content block ", 100)
	submission := testSubmission(memFile("blob.bin", deposit.RoleUnspecified, content, false))

	stream := assemblePackage(t, submission, Options{
		Specification: inventorySpec(t),
		Archive:       ArchiveTar,
		Compression:   CompressionNone,
	})

	entries := extractPackage(t, readPackage(t, stream), stream.Metadata())
	if got := string(entries["blob.bin"]); got != content {
		t.Errorf("blob.bin round trip changed content (len %d, want %d)", len(got), len(content))
	}

	resource := stream.Metadata().Resources[0]
	if resource.Size != int64(len(content)) {
		t.Errorf("resource size = %d, want %d", resource.Size, len(content))
	}
	recorded := digestByAlgorithm(t, resource.Checksums, checksum.SHA256)
	if got := hex.EncodeToString(recorded.Sum); got != sha256Hex([]byte(content)) {
		t.Errorf("spooled resource sha256 = %s, want %s", got, sha256Hex([]byte(content)))
	}
}

func TestAssembleSizeMismatch(t *testing.T) {
	lying := deposit.ContentFile{
		Name: "short.txt",
		Size: 100,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("only a few bytes")), nil
		},
	}
	var assembler Assembler
	_, err := assembler.Assemble(context.Background(), testSubmission(lying), Options{
		Specification: inventorySpec(t),
		Archive:       ArchiveTar,
		Dir:           t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for size hint mismatch, got nil")
	}
	var assemblyErr *AssemblyError
	if !errors.As(err, &assemblyErr) {
		t.Fatalf("error %v is not an AssemblyError", err)
	}
	if assemblyErr.File != "short.txt" {
		t.Errorf("AssemblyError.File = %q, want short.txt", assemblyErr.File)
	}
}

func TestAssembleFailureLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	broken := deposit.ContentFile{
		Name: "missing.dat",
		Size: -1,
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("source is gone")
		},
	}

	var assembler Assembler
	_, err := assembler.Assemble(context.Background(), testSubmission(
		memFile("first.txt", deposit.RoleManuscript, "fine", true),
		broken,
	), Options{
		Specification: inventorySpec(t),
		Archive:       ArchiveTar,
		Compression:   CompressionGzip,
		Dir:           dir,
	})
	if err == nil {
		t.Fatal("expected error from broken content file, got nil")
	}

	leftovers, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("ReadDir: %v", readErr)
	}
	if len(leftovers) != 0 {
		names := make([]string, len(leftovers))
		for i, entry := range leftovers {
			names[i] = entry.Name()
		}
		t.Errorf("workspace not cleaned after failure: %v", names)
	}
}

func TestAssembleArchiveNone(t *testing.T) {
	content := "a single custodial file"
	submission := testSubmission(memFile("only.txt", deposit.RoleManuscript, content, true))

	stream := assemblePackage(t, submission, Options{
		Specification: plainSpec{},
		Archive:       ArchiveNone,
		Compression:   CompressionGzip,
	})

	entries := extractPackage(t, readPackage(t, stream), stream.Metadata())
	if got := string(entries["only.txt"]); got != content {
		t.Errorf("raw package body = %q, want %q", got, content)
	}

	// Two files cannot share a raw stream.
	var assembler Assembler
	_, err := assembler.Assemble(context.Background(), testSubmission(
		memFile("a.txt", deposit.RoleUnspecified, "a", true),
		memFile("b.txt", deposit.RoleUnspecified, "b", true),
	), Options{
		Specification: plainSpec{},
		Archive:       ArchiveNone,
		Dir:           t.TempDir(),
	})
	if !IsAssemblyError(err) {
		t.Errorf("two-file archive none: err = %v, want AssemblyError", err)
	}

	// A specification with supplements cannot ride a raw stream
	// either.
	_, err = assembler.Assemble(context.Background(), testSubmission(
		memFile("a.txt", deposit.RoleUnspecified, "a", true),
	), Options{
		Specification: inventorySpec(t),
		Archive:       ArchiveNone,
		Dir:           t.TempDir(),
	})
	if !IsAssemblyError(err) {
		t.Errorf("archive none with supplements: err = %v, want AssemblyError", err)
	}
}

func TestAssembleContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var assembler Assembler
	_, err := assembler.Assemble(ctx, testSubmission(
		memFile("a.txt", deposit.RoleUnspecified, "a", true),
	), Options{
		Specification: inventorySpec(t),
		Archive:       ArchiveTar,
		Dir:           t.TempDir(),
	})
	if !IsAssemblyError(err) {
		t.Fatalf("err = %v, want AssemblyError wrapping context.Canceled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled in chain", err)
	}
}

func TestPackageStreamReopenAndClose(t *testing.T) {
	submission := testSubmission(memFile("a.txt", deposit.RoleUnspecified, "stable bytes", true))
	stream := assemblePackage(t, submission, Options{
		Specification: inventorySpec(t),
		Archive:       ArchiveZip,
		Compression:   CompressionNone,
	})

	first := readPackage(t, stream)
	second := readPackage(t, stream)
	if !bytes.Equal(first, second) {
		t.Error("reopening the stream yielded different bytes")
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("second Close: %v, want nil", err)
	}
	if _, err := stream.Open(); err == nil {
		t.Error("Open after Close: expected error, got nil")
	}
}

func TestAssembleDoesNotMutateSubmission(t *testing.T) {
	// Both files aim for the same package path; the second is
	// remediated, and the submission must still carry the original
	// names afterwards.
	files := []deposit.ContentFile{
		memFile("data.bin", deposit.RoleUnspecified, "one", true),
		memFile("data.bin2", deposit.RoleSupplement, "two", true),
	}
	submission := testSubmission(files...)

	stream := assemblePackage(t, submission, Options{
		Specification: collidingSpec{},
		Archive:       ArchiveTar,
	})

	if submission.Files[0].Name != "data.bin" || submission.Files[1].Name != "data.bin2" {
		t.Errorf("submission file names changed: %q, %q", submission.Files[0].Name, submission.Files[1].Name)
	}

	resources := stream.Metadata().Resources
	if resources[1].Path == resources[0].Path {
		t.Errorf("collision not remediated: both resources at %s", resources[0].Path)
	}
	if resources[1].Name != "data.bin2" {
		t.Errorf("resource keeps original name %q, want data.bin2", resources[1].Name)
	}
}

// collidingSpec places every file at the same path to force
// remediation.
type collidingSpec struct{}

func (collidingSpec) ID() string                                 { return "example:colliding" }
func (collidingSpec) PlaceFile(string, deposit.Role) string      { return "data.bin" }
func (collidingSpec) Reserves(string) bool                       { return false }
func (collidingSpec) Supplements(*deposit.Submission, []Resource) ([]Supplement, error) {
	return nil, nil
}
