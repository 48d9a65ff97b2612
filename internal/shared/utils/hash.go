package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm names a supported digest.
type HashAlgorithm string

const (
	SHA256  HashAlgorithm = "sha256"
	BLAKE2b HashAlgorithm = "blake2b"
)

// Hasher computes content fingerprints for change detection and emission
// dedup.
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a hasher with the specified algorithm.
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// DefaultHasher returns a BLAKE2b-256 hasher.
func DefaultHasher() *Hasher {
	return NewHasher(BLAKE2b)
}

// Hash returns the hex digest of data. Unknown algorithms fall back to
// SHA-256.
func (h *Hasher) Hash(data []byte) string {
	var sum [32]byte
	switch h.algorithm {
	case BLAKE2b:
		sum = blake2b.Sum256(data)
	default:
		sum = sha256.Sum256(data)
	}
	return hex.EncodeToString(sum[:])
}

// HashString returns the hex digest of s.
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashFields hashes fields independent of their order.
func (h *Hasher) HashFields(fields ...string) string {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return h.HashString(strings.Join(sorted, "|"))
}

// Short truncates a digest for log fields.
func Short(digest string) string {
	if len(digest) < 8 {
		return digest
	}
	return digest[:8]
}
