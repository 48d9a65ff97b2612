package content

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

// Registry maps capability names to closures for one page-context lifetime.
type Registry struct {
	mu     sync.Mutex
	funcs  map[string]types.Func
	suffix string
	seq    int
	closed bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]types.Func)}
}

// newLifetimeRegistry creates the registry of a later lifetime of the same
// page context. Its names carry "@<lifetime>" so handles minted by earlier
// lifetimes never resolve here, even for the same action.
func newLifetimeRegistry(lifetime int) *Registry {
	r := NewRegistry()
	if lifetime > 0 {
		r.suffix = "@" + strconv.Itoa(lifetime)
	}
	return r
}

// Register stores fn under name and returns the name used. An empty name
// gets a generated one unique within this registry. Registering an existing
// name replaces its closure.
func (r *Registry) Register(name string, fn types.Func) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		r.seq++
		name = "fn_" + strconv.Itoa(r.seq)
	}
	if r.suffix != "" && !strings.HasSuffix(name, r.suffix) {
		name += r.suffix
	}
	if !r.closed {
		r.funcs[name] = fn
	}
	return name
}

// Execute runs the closure registered under name with the elements of the
// JSON array argsJSON. Unknown names and a closed registry are silent no-ops,
// which covers handles that outlived a navigation or reload.
func (r *Registry) Execute(name string, argsJSON string) error {
	r.mu.Lock()
	fn, ok := r.funcs[name]
	closed := r.closed
	r.mu.Unlock()

	if !ok || closed || fn == nil {
		return nil
	}

	var args []json.RawMessage
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return fmt.Errorf("decode args for %s: %w", name, err)
		}
	}
	return fn(args)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.funcs[name]
	return ok
}

// Len returns the number of registered closures.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.funcs)
}

// Close ends the lifetime; every later Execute is a no-op.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.funcs = make(map[string]types.Func)
}
