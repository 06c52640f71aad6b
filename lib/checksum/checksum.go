// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm identifies a supported digest algorithm.
type Algorithm uint8

const (
	MD5 Algorithm = iota
	SHA1
	SHA256
	SHA512
	BLAKE3
)

// String returns the lowercase algorithm name used in the canonical
// digest notation and in configuration files.
func (a Algorithm) String() string {
	switch a {
	case MD5:
		return "md5"
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	case BLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// ParseAlgorithm converts an algorithm name from configuration.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "md5":
		return MD5, nil
	case "sha1":
		return SHA1, nil
	case "sha256":
		return SHA256, nil
	case "sha512":
		return SHA512, nil
	case "blake3":
		return BLAKE3, nil
	}
	return 0, fmt.Errorf("unknown checksum algorithm %q", s)
}

// New returns a fresh hash state for the algorithm.
func (a Algorithm) New() hash.Hash {
	switch a {
	case MD5:
		return md5.New()
	case SHA1:
		return sha1.New()
	case SHA256:
		return sha256.New()
	case SHA512:
		return sha512.New()
	case BLAKE3:
		return blake3.New()
	default:
		panic(fmt.Sprintf("checksum: no hash constructor for %v", a))
	}
}

// Digest is a finished checksum: the algorithm that produced it and
// the raw digest bytes.
type Digest struct {
	Algorithm Algorithm
	Sum       []byte
}

// String returns the canonical "algorithm:hex" notation.
func (d Digest) String() string {
	return d.Algorithm.String() + ":" + hex.EncodeToString(d.Sum)
}

// MarshalText encodes the digest in canonical notation, so digests
// appear as "algorithm:hex" strings in JSON documents.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses the canonical notation.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDigest parses the canonical "algorithm:hex" notation produced
// by [Digest.String].
func ParseDigest(s string) (Digest, error) {
	name, hexSum, ok := strings.Cut(s, ":")
	if !ok {
		return Digest{}, fmt.Errorf("digest %q: missing algorithm prefix", s)
	}
	algorithm, err := ParseAlgorithm(name)
	if err != nil {
		return Digest{}, fmt.Errorf("digest %q: %w", s, err)
	}
	sum, err := hex.DecodeString(hexSum)
	if err != nil {
		return Digest{}, fmt.Errorf("digest %q: %w", s, err)
	}
	if len(sum) != algorithm.size() {
		return Digest{}, fmt.Errorf("digest %q: sum is %d bytes, want %d", s, len(sum), algorithm.size())
	}
	return Digest{Algorithm: algorithm, Sum: sum}, nil
}

func (a Algorithm) size() int {
	switch a {
	case MD5:
		return md5.Size
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	case BLAKE3:
		return 32
	default:
		return 0
	}
}

// Set accumulates digests for a fixed list of algorithms from one
// stream of writes. The zero value is unusable; construct with
// [NewSet]. A Set is not safe for concurrent writes.
type Set struct {
	algorithms []Algorithm
	hashes     []hash.Hash
}

// NewSet returns a Set computing every listed algorithm. Duplicate
// algorithms are collapsed; order is preserved otherwise.
func NewSet(algorithms ...Algorithm) *Set {
	set := &Set{}
	seen := make(map[Algorithm]bool, len(algorithms))
	for _, algorithm := range algorithms {
		if seen[algorithm] {
			continue
		}
		seen[algorithm] = true
		set.algorithms = append(set.algorithms, algorithm)
		set.hashes = append(set.hashes, algorithm.New())
	}
	return set
}

// Write feeds p to every hash in the set. Never returns an error.
func (s *Set) Write(p []byte) (int, error) {
	for _, h := range s.hashes {
		h.Write(p)
	}
	return len(p), nil
}

// Sums returns the accumulated digests in the set's algorithm order.
// The set remains usable for further writes; Sums reflects the bytes
// written so far.
func (s *Set) Sums() []Digest {
	digests := make([]Digest, len(s.hashes))
	for i, h := range s.hashes {
		digests[i] = Digest{Algorithm: s.algorithms[i], Sum: h.Sum(nil)}
	}
	return digests
}
