// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package assembler

import (
	stdbzip2 "compress/bzip2"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// newCompressionWriter wraps w in the streaming encoder for the
// compression layer. The returned writer must be closed to flush the
// codec's trailer; closing it does not close w. CompressionNone
// returns a pass-through writer.
//
// Encoders are configured for reproducible output: the zstd encoder
// runs single-threaded because concurrent encoding can split frames
// differently between runs, and the gzip header carries no name or
// modification time.
func newCompressionWriter(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone:
		return nopWriteCloser{w}, nil

	case CompressionGzip:
		return gzip.NewWriter(w), nil

	case CompressionBzip2:
		writer, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		if err != nil {
			return nil, fmt.Errorf("bzip2 encoder: %w", err)
		}
		return writer, nil

	case CompressionZstd:
		writer, err := zstd.NewWriter(w,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		return writer, nil

	case CompressionLZ4:
		return lz4.NewWriter(w), nil

	default:
		return nil, fmt.Errorf("unsupported compression %v", compression)
	}
}

// newCompressionReader wraps r in the streaming decoder for the
// compression layer. Used by round-trip tests and by tooling that
// needs to look inside a produced package. BZIP2 decoding comes from
// the standard library; only the encoder needs a third-party module.
func newCompressionReader(r io.Reader, compression Compression) (io.ReadCloser, error) {
	switch compression {
	case CompressionNone:
		return io.NopCloser(r), nil

	case CompressionGzip:
		reader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip decoder: %w", err)
		}
		return reader, nil

	case CompressionBzip2:
		return io.NopCloser(stdbzip2.NewReader(r)), nil

	case CompressionZstd:
		reader, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		return reader.IOReadCloser(), nil

	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil

	default:
		return nil, fmt.Errorf("unsupported compression %v", compression)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
