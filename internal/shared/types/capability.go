package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// CapabilityPrefix marks a string as a capability token on the wire.
	CapabilityPrefix = "__swipe_fn__"

	// DispatcherGlobal is the page-side object receiving host calls.
	DispatcherGlobal = "__swipe"
)

var (
	ErrUnnamedCapability = errors.New("capability has no name")
	ErrUnboundCapability = errors.New("capability is not bound to a surface")
	ErrNotCapability     = errors.New("value is not a capability token")
)

// Func is a page-side closure reachable through a capability token.
// Arguments arrive as the elements of a JSON array.
type Func func(args []json.RawMessage) error

// Injector delivers a single dispatcher statement into a page context.
type Injector interface {
	Inject(ctx context.Context, statement string) error
}

// Capability stands in for a closure that cannot cross the bridge.
//
// On the page side it carries the closure; serialization registers the
// closure and replaces the value with a token. On the host side it is
// decoded from the token and bound to the originating surface, after which
// Invoke re-enters that page context.
type Capability struct {
	name     string
	fn       Func
	injector Injector
}

// NewFunc creates a page-side capability. The name should be stable for the
// action it performs so that re-extracted identical content serializes
// identically; an empty name is assigned at serialization time.
func NewFunc(name string, fn Func) *Capability {
	return &Capability{name: name, fn: fn}
}

// NewRef creates a host-side capability for a known token name.
func NewRef(name string, injector Injector) *Capability {
	return &Capability{name: name, injector: injector}
}

// Name returns the registered name.
func (c *Capability) Name() string { return c.name }

// Func returns the page-side closure, nil on the host side.
func (c *Capability) Func() Func { return c.fn }

// SetName assigns the registered name.
func (c *Capability) SetName(name string) { c.name = name }

// Bind attaches the host-side injector.
func (c *Capability) Bind(injector Injector) { c.injector = injector }

// Bound reports whether Invoke can reach a page context.
func (c *Capability) Bound() bool { return c.injector != nil }

// Token returns the wire form.
func (c *Capability) Token() string {
	return CapabilityPrefix + " " + c.name
}

// Invoke asks the owning page context to run the named closure with args.
// An owning context that has ended ignores the call.
func (c *Capability) Invoke(ctx context.Context, args ...any) error {
	if c.injector == nil {
		return ErrUnboundCapability
	}
	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode capability args: %w", err)
	}
	stmt, err := DispatchStatement(c.name, payload)
	if err != nil {
		return err
	}
	return c.injector.Inject(ctx, stmt)
}

// MarshalJSON encodes the capability as its token string.
func (c *Capability) MarshalJSON() ([]byte, error) {
	if c.name == "" {
		return nil, ErrUnnamedCapability
	}
	return json.Marshal(c.Token())
}

// UnmarshalJSON decodes a token string.
func (c *Capability) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrNotCapability, string(data))
	}
	name, ok := ParseToken(s)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotCapability, s)
	}
	c.name = name
	return nil
}

// ParseToken extracts the registered name from a token string.
func ParseToken(s string) (string, bool) {
	rest, ok := strings.CutPrefix(s, CapabilityPrefix+" ")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// DispatchStatement builds the host→page statement that executes name with
// the JSON-encoded argument array argsJSON.
func DispatchStatement(name string, argsJSON []byte) (string, error) {
	quotedName, err := json.Marshal(name)
	if err != nil {
		return "", err
	}
	quotedArgs, err := json.Marshal(string(argsJSON))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.execute(%s, %s);", DispatcherGlobal, quotedName, quotedArgs), nil
}
