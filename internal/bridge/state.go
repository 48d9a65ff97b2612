package bridge

import (
	"sync"

	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

// DiagnosticsLimit bounds the diagnostics kept per surface.
const DiagnosticsLimit = 50

// Snapshot is a point-in-time copy of a State.
type Snapshot struct {
	Key              string                  `json:"key"`
	Version          uint64                  `json:"version"`
	Loading          map[string]bool         `json:"loading"`
	Listing          *types.Listing          `json:"listing,omitempty"`
	Detail           *types.Detail           `json:"detail,omitempty"`
	CommentTree      *types.CommentTree      `json:"comment_tree,omitempty"`
	SubscriptionList *types.SubscriptionList `json:"subscription_list,omitempty"`
	Diagnostics      []types.Diagnostic      `json:"diagnostics"`
}

// State is the per-surface observer holding the latest record of each kind.
// A kind stays loading until its first message arrives; there is no failed
// state.
type State struct {
	mu          sync.RWMutex
	key         string
	version     uint64
	listing     *types.Listing
	detail      *types.Detail
	comments    *types.CommentTree
	subs        *types.SubscriptionList
	diagnostics []types.Diagnostic

	listeners map[int]func(Snapshot)
	seq       int
}

// NewState creates an empty state for surface key.
func NewState(key string) *State {
	return &State{key: key, listeners: make(map[int]func(Snapshot))}
}

// Observe implements Observer. Messages for other keys are ignored.
func (s *State) Observe(key string, msg Message) {
	if key != s.key {
		return
	}

	s.mu.Lock()
	switch m := msg.(type) {
	case *Diagnostic:
		s.diagnostics = append(s.diagnostics, m.Diagnostic)
		if over := len(s.diagnostics) - DiagnosticsLimit; over > 0 {
			s.diagnostics = append([]types.Diagnostic(nil), s.diagnostics[over:]...)
		}
	case *Listing:
		s.listing = &m.Listing
	case *Detail:
		s.detail = &m.Detail
	case *CommentTree:
		s.comments = &m.CommentTree
	case *SubscriptionList:
		s.subs = &m.SubscriptionList
	default:
		s.mu.Unlock()
		return
	}
	s.version++
	snap := s.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Listen registers fn for every change.
func (s *State) Listen(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := s.seq
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Key returns the surface key this state belongs to.
func (s *State) Key() string { return s.key }

// Loading reports whether no message of kind has arrived yet.
func (s *State) Loading(kind Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadingLocked(kind)
}

func (s *State) loadingLocked(kind Kind) bool {
	switch kind {
	case KindListing:
		return s.listing == nil
	case KindDetail:
		return s.detail == nil
	case KindCommentTree:
		return s.comments == nil
	case KindSubscriptionList:
		return s.subs == nil
	default:
		return false
	}
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	loading := make(map[string]bool, 4)
	for _, k := range ContentKinds() {
		loading[k.String()] = s.loadingLocked(k)
	}
	return Snapshot{
		Key:              s.key,
		Version:          s.version,
		Loading:          loading,
		Listing:          s.listing,
		Detail:           s.detail,
		CommentTree:      s.comments,
		SubscriptionList: s.subs,
		Diagnostics:      append([]types.Diagnostic{}, s.diagnostics...),
	}
}
