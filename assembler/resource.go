// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"mime"
	"net/http"
	"path"

	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/lib/checksum"
)

// Resource describes one custodial file as it exists inside a
// produced package. Path is the final in-package location: when
// placement collided it differs from Name, and the rename is visible
// only here, never on the submission's ContentFile.
type Resource struct {
	// Name is the file's original name within the submission.
	Name string `json:"name"`
	// Path is the in-package path, possibly remediated.
	Path string `json:"path"`
	// Role is the file's role carried over from the submission.
	Role deposit.Role `json:"role,omitempty"`
	// Size is the content length in bytes, measured during assembly.
	Size int64 `json:"size"`
	// MediaType is the detected media type of the content.
	MediaType string `json:"type"`
	// Checksums holds one digest per configured algorithm, computed
	// over the file's bytes in the same pass that wrote the archive
	// entry.
	Checksums []checksum.Digest `json:"checksums"`
}

// resourceBuilder accumulates the facts about one custodial file
// while its bytes stream through the archive writer. It sits on the
// tee side of the single read pass: every byte of the source is
// written through it exactly once, feeding the checksum accumulators,
// the MIME sniff buffer, and the size count. build is called once,
// after the file has been fully consumed.
type resourceBuilder struct {
	name        string
	packagePath string
	role        deposit.Role
	size        int64
	digests     *checksum.Set
	sniff       sniffer
}

func newResourceBuilder(file deposit.ContentFile, packagePath string, algorithms []checksum.Algorithm) *resourceBuilder {
	return &resourceBuilder{
		name:        file.Name,
		packagePath: packagePath,
		role:        file.Role,
		digests:     checksum.NewSet(algorithms...),
	}
}

// Write observes one slice of the file's bytes. Never fails, so it
// cannot disturb the archive copy it is teed against.
func (b *resourceBuilder) Write(p []byte) (int, error) {
	b.digests.Write(p)
	b.sniff.Write(p)
	b.size += int64(len(p))
	return len(p), nil
}

func (b *resourceBuilder) build() Resource {
	return Resource{
		Name:      b.name,
		Path:      b.packagePath,
		Role:      b.role,
		Size:      b.size,
		MediaType: detectMediaType(b.name, b.sniff.prefix()),
		Checksums: b.digests.Sums(),
	}
}

// detectMediaType resolves a file's media type from its extension,
// falling back to content sniffing over the first bytes when the
// extension is unknown.
func detectMediaType(name string, prefix []byte) string {
	if byExtension := mime.TypeByExtension(path.Ext(name)); byExtension != "" {
		return byExtension
	}
	if len(prefix) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(prefix)
}

// sniffLen matches the amount http.DetectContentType considers.
const sniffLen = 512

// sniffer retains the first bytes written through it so the media
// type can be detected without a second read of the source.
type sniffer struct {
	buf []byte
}

func (s *sniffer) Write(p []byte) (int, error) {
	if remaining := sniffLen - len(s.buf); remaining > 0 {
		if len(p) < remaining {
			remaining = len(p)
		}
		s.buf = append(s.buf, p[:remaining]...)
	}
	return len(p), nil
}

func (s *sniffer) prefix() []byte {
	return s.buf
}
