// Package id generates the identifiers used across the reader.
//
// Every ID is a ULID, optionally prefixed with its kind (sf_*, layer_*,
// sess_*, req_*) so logs stay readable. ULIDs are k-sortable, so surface
// keys created later compare greater.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SurfaceKey identifies a rendering surface entry in a pool
type SurfaceKey string

// LayerID identifies a navigation layer
type LayerID string

// SessionID identifies a presentation client session
type SessionID string

// RequestID identifies an API request
type RequestID string

const (
	SurfacePrefix = "sf"
	LayerPrefix   = "layer"
	SessionPrefix = "sess"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with monotonic, cryptographically
// seeded entropy.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewSurfaceKey generates a new surface key
func NewSurfaceKey() SurfaceKey {
	return SurfaceKey(Default().GenerateWithPrefix(SurfacePrefix))
}

// NewLayerID generates a new layer ID
func NewLayerID() LayerID {
	return LayerID(Default().GenerateWithPrefix(LayerPrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id SurfaceKey) String() string { return string(id) }
func (id LayerID) String() string    { return string(id) }
func (id SessionID) String() string  { return string(id) }
func (id RequestID) String() string  { return string(id) }

// Split separates a prefixed id into its prefix and ULID. An unprefixed ULID
// has an empty prefix.
func Split(s string) (prefix string, u ulid.ULID, err error) {
	raw := s
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		prefix, raw = s[:i], s[i+1:]
	}
	u, err = ulid.Parse(raw)
	return prefix, u, err
}

// IsValid reports whether s is a ULID, with or without a kind prefix.
func IsValid(s string) bool {
	_, _, err := Split(s)
	return err == nil
}

// HasKind reports whether s is a valid id of the given kind.
func HasKind(s, prefix string) bool {
	p, _, err := Split(s)
	return err == nil && p == prefix
}

// Timestamp returns the creation time encoded in an id.
func Timestamp(s string) (time.Time, error) {
	_, u, err := Split(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
