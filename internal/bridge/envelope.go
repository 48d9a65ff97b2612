package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrUnknownKind       = errors.New("unknown envelope kind")
)

// Kind discriminates envelope payloads.
type Kind int

const (
	KindDiagnostic Kind = iota
	KindListing
	KindDetail
	KindCommentTree
	KindSubscriptionList
)

var kindNames = [...]string{
	KindDiagnostic:       types.KindDiagnostic,
	KindListing:          types.KindListing,
	KindDetail:           types.KindDetail,
	KindCommentTree:      types.KindCommentTree,
	KindSubscriptionList: types.KindSubscriptionList,
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ContentKinds lists every kind that carries extracted page content.
func ContentKinds() []Kind {
	return []Kind{KindListing, KindDetail, KindCommentTree, KindSubscriptionList}
}

// ParseKind maps a wire name to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Message is one parsed envelope. The set of implementations is closed.
type Message interface {
	Kind() Kind
	message()
}

// Diagnostic is forwarded verbatim in Raw; the decoded fields are best effort.
type Diagnostic struct {
	Raw json.RawMessage
	types.Diagnostic
}

type Listing struct{ types.Listing }
type Detail struct{ types.Detail }
type CommentTree struct{ types.CommentTree }
type SubscriptionList struct{ types.SubscriptionList }

func (*Diagnostic) Kind() Kind       { return KindDiagnostic }
func (*Listing) Kind() Kind          { return KindListing }
func (*Detail) Kind() Kind           { return KindDetail }
func (*CommentTree) Kind() Kind      { return KindCommentTree }
func (*SubscriptionList) Kind() Kind { return KindSubscriptionList }

func (*Diagnostic) message()       {}
func (*Listing) message()          {}
func (*Detail) message()           {}
func (*CommentTree) message()      {}
func (*SubscriptionList) message() {}

// Parse decodes an envelope and binds every capability in it to injector.
func Parse(raw []byte, injector types.Injector) (Message, error) {
	var env types.Envelope
	if err := sonic.ConfigStd.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Kind == "" || len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing kind or data", ErrMalformedEnvelope)
	}

	kind, err := ParseKind(env.Kind)
	if err != nil {
		return nil, err
	}

	var msg Message
	switch kind {
	case KindDiagnostic:
		d := &Diagnostic{Raw: env.Data}
		if sonic.ConfigStd.Unmarshal(env.Data, &d.Diagnostic) != nil {
			d.Message = string(env.Data)
		}
		return d, nil
	case KindListing:
		msg = &Listing{}
	case KindDetail:
		msg = &Detail{}
	case KindCommentTree:
		msg = &CommentTree{}
	case KindSubscriptionList:
		msg = &SubscriptionList{}
	}

	if err := sonic.ConfigStd.Unmarshal(env.Data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedEnvelope, kind, err)
	}
	hydrate(msg, injector)
	return msg, nil
}

// hydrate binds every decoded capability placeholder to injector.
func hydrate(msg Message, injector types.Injector) {
	types.WalkCapabilities(msg, func(c *types.Capability) {
		c.Bind(injector)
	})
}
