// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	"github.com/birkland/deposit-services/lib/checksum"
)

// Metadata describes a fully composed package. It is finalized only
// after the byte stream has been produced once: total size and
// package-level checksums depend on the compressed output and cannot
// be known in advance.
type Metadata struct {
	// Specification is the ID of the packaging specification the
	// package conforms to.
	Specification string `json:"specification"`
	// Archive is the package's archive layer.
	Archive ArchiveFormat `json:"archive"`
	// Compression is the package's compression layer.
	Compression Compression `json:"compression"`
	// MediaType is the media type of the package bytes (the
	// outermost layer).
	MediaType string `json:"type"`
	// Size is the total size of the produced package in bytes.
	Size int64 `json:"size"`
	// Checksums holds the package-level digests, computed over the
	// final bytes as they were written.
	Checksums []checksum.Digest `json:"checksums"`
	// Resources lists every custodial file in placement order.
	// Supplementary files generated by the specification are part of
	// the archive but are not custodial resources and do not appear
	// here.
	Resources []Resource `json:"resources"`
}

// metadataBuilder accumulates package-level facts during composition.
type metadataBuilder struct {
	specification string
	archive       ArchiveFormat
	compression   Compression
	digests       *checksum.Set
	resources     []Resource
}

func newMetadataBuilder(specification string, archive ArchiveFormat, compression Compression, algorithms []checksum.Algorithm) *metadataBuilder {
	return &metadataBuilder{
		specification: specification,
		archive:       archive,
		compression:   compression,
		digests:       checksum.NewSet(algorithms...),
	}
}

func (b *metadataBuilder) addResource(r Resource) {
	b.resources = append(b.resources, r)
}

func (b *metadataBuilder) build(size int64) Metadata {
	return Metadata{
		Specification: b.specification,
		Archive:       b.archive,
		Compression:   b.compression,
		MediaType:     MediaType(b.archive, b.compression),
		Size:          size,
		Checksums:     b.digests.Sums(),
		Resources:     b.resources,
	}
}
