// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/lib/checksum"
)

// defaultAlgorithms is the digest set applied when options name none:
// one strong digest plus MD5, which several repository platforms
// still verify uploads against.
var defaultAlgorithms = []checksum.Algorithm{checksum.SHA256, checksum.MD5}

// Options selects the package layers and the digest algorithms for
// one assembly.
type Options struct {
	// Specification decides in-package placement and supplements.
	// Required.
	Specification Specification

	// Archive is the archive layer. ArchiveNone is only legal for a
	// submission yielding exactly one resource under a specification
	// that emits no supplements.
	Archive ArchiveFormat

	// Compression is the compression layer wrapped around the
	// archive stream.
	Compression Compression

	// Algorithms are the checksum algorithms recorded per resource
	// and for the package. Defaults to SHA-256 plus MD5.
	Algorithms []checksum.Algorithm

	// Dir is the directory for the package cache and spool files.
	// Defaults to the system temp directory. Assembly creates the
	// cache here and removes it on failure; on success the cache
	// lives until the returned PackageStream is closed.
	Dir string
}

// Assembler composes packages. The zero value is ready to use;
// concurrent Assemble calls for independent submissions are safe
// because the engine keeps no per-call state on the struct.
type Assembler struct {
	// Logger receives assembly progress. nil discards.
	Logger *slog.Logger
}

// Assemble builds a package from the submission according to opts.
// The submission is read, never mutated; remediated in-package paths
// are visible on the returned metadata's resources only. Every
// failure is reported as an *AssemblyError carrying the submission ID
// and, when the failure is tied to one file, that file's name. On
// failure no temporary state is left behind.
func (a *Assembler) Assemble(ctx context.Context, submission *deposit.Submission, opts Options) (*PackageStream, error) {
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if submission == nil {
		return nil, &AssemblyError{Err: errors.New("nil submission")}
	}
	fail := func(file string, err error) error {
		return &AssemblyError{SubmissionID: submission.ID, File: file, Err: err}
	}

	if len(submission.Files) == 0 {
		return nil, fail("", errors.New("refusing to assemble an empty package"))
	}
	if opts.Specification == nil {
		return nil, fail("", errors.New("no packaging specification selected"))
	}
	if opts.Archive == ArchiveNone && len(submission.Files) > 1 {
		return nil, fail("", fmt.Errorf("archive format none cannot package %d files", len(submission.Files)))
	}
	algorithms := opts.Algorithms
	if len(algorithms) == 0 {
		algorithms = defaultAlgorithms
	}

	plan, err := planPlacement(opts.Specification, submission.Files)
	if err != nil {
		return nil, fail("", err)
	}

	dir := opts.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	cache, err := os.CreateTemp(dir, "package-*.tmp")
	if err != nil {
		return nil, fail("", fmt.Errorf("creating package cache: %w", err))
	}
	cachePath := cache.Name()

	// Remove the cache on every failure path below.
	success := false
	defer func() {
		if !success {
			cache.Close()
			os.Remove(cachePath)
		}
	}()

	// Composition pipeline, innermost sink first: the cache file and
	// the package-level digests see the final bytes; the compression
	// writer feeds them; the archive writer feeds the compressor.
	meta := newMetadataBuilder(opts.Specification.ID(), opts.Archive, opts.Compression, algorithms)
	counted := &countingWriter{w: io.MultiWriter(cache, meta.digests)}
	compressor, err := newCompressionWriter(counted, opts.Compression)
	if err != nil {
		return nil, fail("", err)
	}
	archive, err := newArchiveWriter(compressor, opts.Archive)
	if err != nil {
		return nil, fail("", err)
	}

	for _, file := range submission.Files {
		if err := ctx.Err(); err != nil {
			return nil, fail(file.Name, err)
		}
		resource, err := writeResource(archive, plan, file, algorithms, dir)
		if err != nil {
			return nil, fail(file.Name, err)
		}
		meta.addResource(resource)
		logger.Debug("resource packaged",
			"submission", submission.ID,
			"file", file.Name,
			"path", resource.Path,
			"bytes", resource.Size,
		)
	}

	supplements, err := opts.Specification.Supplements(submission, meta.resources)
	if err != nil {
		return nil, fail("", fmt.Errorf("generating supplements: %w", err))
	}
	if len(supplements) > 0 && opts.Archive == ArchiveNone {
		return nil, fail("", fmt.Errorf("specification %s emits supplements, which archive format none cannot carry", opts.Specification.ID()))
	}
	for _, supplement := range supplements {
		path, err := normalizePackagePath(supplement.Path)
		if err != nil {
			return nil, fail("", fmt.Errorf("supplement: %w", err))
		}
		if plan.occupied(path) {
			return nil, fail("", fmt.Errorf("supplement path %s collides with a custodial resource", path))
		}
		if err := archive.add(path, int64(len(supplement.Body)), bytes.NewReader(supplement.Body)); err != nil {
			return nil, fail("", err)
		}
	}

	if err := archive.close(); err != nil {
		return nil, fail("", err)
	}
	if err := compressor.Close(); err != nil {
		return nil, fail("", fmt.Errorf("finalizing compression: %w", err))
	}
	if err := cache.Close(); err != nil {
		return nil, fail("", fmt.Errorf("closing package cache: %w", err))
	}

	metadata := meta.build(counted.count)
	logger.Info("package assembled",
		"submission", submission.ID,
		"specification", metadata.Specification,
		"archive", metadata.Archive.String(),
		"compression", metadata.Compression.String(),
		"files", len(metadata.Resources),
		"bytes", metadata.Size,
	)

	success = true
	return &PackageStream{metadata: metadata, path: cachePath}, nil
}

// writeResource streams one content file into the archive. The
// source is read exactly once: the archive copy is teed through the
// resource builder, which accumulates digests, the MIME sniff
// prefix, and the byte count. When the archive format needs entry
// sizes up front and the file carries no size hint, the teed read
// goes to a spool file first and the archive entry is fed from the
// spool; the source is still read only once.
func writeResource(archive archiveWriter, plan *placementPlan, file deposit.ContentFile, algorithms []checksum.Algorithm, spoolDir string) (Resource, error) {
	packagePath := plan.pathFor(file.Name)
	builder := newResourceBuilder(file, packagePath, algorithms)

	if file.Open == nil {
		return Resource{}, errors.New("content file has no byte source")
	}
	source, err := file.Open()
	if err != nil {
		return Resource{}, fmt.Errorf("opening content: %w", err)
	}
	defer source.Close()

	observed := io.TeeReader(source, builder)

	switch {
	case file.Size < 0 && archive.requiresLength():
		spool, err := os.CreateTemp(spoolDir, "spool-*.tmp")
		if err != nil {
			return Resource{}, fmt.Errorf("creating spool: %w", err)
		}
		defer func() {
			spool.Close()
			os.Remove(spool.Name())
		}()

		size, err := io.Copy(spool, observed)
		if err != nil {
			return Resource{}, fmt.Errorf("spooling content: %w", err)
		}
		if _, err := spool.Seek(0, io.SeekStart); err != nil {
			return Resource{}, fmt.Errorf("rewinding spool: %w", err)
		}
		if err := archive.add(packagePath, size, spool); err != nil {
			return Resource{}, err
		}

	default:
		if err := archive.add(packagePath, file.Size, observed); err != nil {
			return Resource{}, err
		}
	}

	return builder.build(), nil
}

// countingWriter counts the bytes passed through to the wrapped
// writer. The count is the package's total size.
type countingWriter struct {
	w     io.Writer
	count int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += int64(n)
	return n, err
}
