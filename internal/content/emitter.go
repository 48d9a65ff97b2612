package content

import (
	"fmt"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/swipereader/internal/shared/types"
	"github.com/GriffinCanCode/swipereader/internal/shared/utils"
)

// Poster hands one encoded envelope to the host transport.
type Poster func(envelope []byte)

// Emitter serializes extraction results into envelopes, registers their
// capabilities and suppresses content-identical repeats per kind.
type Emitter struct {
	mu           sync.Mutex
	post         Poster
	registry     *Registry
	hasher       *utils.Hasher
	last         map[string]string
	onSuppressed func(kind string)
}

// NewEmitter creates an emitter posting through post.
func NewEmitter(post Poster, registry *Registry, onSuppressed func(kind string)) *Emitter {
	return &Emitter{
		post:         post,
		registry:     registry,
		hasher:       utils.DefaultHasher(),
		last:         make(map[string]string),
		onSuppressed: onSuppressed,
	}
}

// Emit posts v under kind unless its encoding equals the last one posted for
// that kind. It reports whether an envelope was posted.
func (e *Emitter) Emit(kind string, v any) (bool, error) {
	e.bindCapabilities(v)

	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", kind, err)
	}

	sum := e.hasher.Hash(data)
	e.mu.Lock()
	if e.last[kind] == sum {
		e.mu.Unlock()
		if e.onSuppressed != nil {
			e.onSuppressed(kind)
		}
		return false, nil
	}
	e.last[kind] = sum
	e.mu.Unlock()

	if err := e.send(kind, data); err != nil {
		return false, err
	}
	return true, nil
}

// Diagnostic posts a diagnostic envelope. Diagnostics are never deduplicated.
func (e *Emitter) Diagnostic(level, module, message string) error {
	data, err := sonic.ConfigStd.Marshal(types.Diagnostic{Level: level, Module: module, Message: message})
	if err != nil {
		return fmt.Errorf("encode diagnostic: %w", err)
	}
	return e.send(types.KindDiagnostic, data)
}

// Reset starts a new page-context lifetime: capabilities bind to registry
// from now on, and the next emission of every kind always posts.
func (e *Emitter) Reset(registry *Registry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry = registry
	clear(e.last)
}

func (e *Emitter) send(kind string, data []byte) error {
	envelope, err := sonic.ConfigStd.Marshal(types.Envelope{Kind: kind, Data: data})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	e.post(envelope)
	return nil
}

// bindCapabilities registers every closure in v and stamps the registered
// name back onto its capability so it serializes as a token.
func (e *Emitter) bindCapabilities(v any) {
	e.mu.Lock()
	registry := e.registry
	e.mu.Unlock()

	types.WalkCapabilities(v, func(c *types.Capability) {
		if c.Func() == nil {
			return
		}
		c.SetName(registry.Register(c.Name(), c.Func()))
	})
}
