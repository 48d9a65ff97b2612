// Package navigation implements the two-list history stack behind the
// swipe navigator.
//
// past holds layers oldest to newest with the visible layer last; future
// holds backed-out layers with the most recent first. A Stack is not safe
// for concurrent use: the owning session serializes access.
package navigation

import (
	"strings"

	"github.com/GriffinCanCode/swipereader/internal/shared/id"
)

// Layer is one page in the history. Its surface key names the pool entry
// rendering it.
type Layer struct {
	ID          id.LayerID `json:"id"`
	SurfaceKey  string     `json:"surface_key"`
	Path        string     `json:"path"`
	DisplayName string     `json:"display_name"`
}

// KeyFunc mints surface keys for new layers.
type KeyFunc func() string

// Stack is the navigation history.
type Stack struct {
	past   []*Layer
	future []*Layer
	newKey KeyFunc
}

// New creates a stack whose only layer shows rootPath.
func New(rootPath string, newKey KeyFunc) *Stack {
	if newKey == nil {
		newKey = func() string { return id.NewSurfaceKey().String() }
	}
	s := &Stack{newKey: newKey}
	s.past = []*Layer{s.layer(rootPath, "")}
	return s
}

func (s *Stack) layer(path, surfaceKey string) *Layer {
	if surfaceKey == "" {
		surfaceKey = s.newKey()
	}
	return &Layer{
		ID:          id.NewLayerID(),
		SurfaceKey:  surfaceKey,
		Path:        path,
		DisplayName: DisplayName(path),
	}
}

// PushPath appends a layer for path and clears the future. A non-empty
// reuseSurface binds the layer to that existing surface key instead of a
// fresh one.
func (s *Stack) PushPath(path, reuseSurface string) *Layer {
	l := s.layer(path, reuseSurface)
	s.past = append(s.past, l)
	s.future = nil
	return l
}

// Reload recreates the top layer with a fresh surface for the same path.
// The old surface key becomes unreferenced.
func (s *Stack) Reload() *Layer {
	top := s.Top()
	l := s.layer(top.Path, "")
	s.past[len(s.past)-1] = l
	return l
}

// Replace swaps the top layer for a new one showing path, keeping depth.
// Like a push, it clears the future.
func (s *Stack) Replace(path string) *Layer {
	l := s.layer(path, "")
	s.past[len(s.past)-1] = l
	s.future = nil
	return l
}

// Forward moves the most recently backed-out layer back on top and returns
// it. It is a no-op when the future is empty.
func (s *Stack) Forward() (*Layer, bool) {
	if len(s.future) == 0 {
		return nil, false
	}
	l := s.future[0]
	s.future = s.future[1:]
	s.past = append(s.past, l)
	return l, true
}

// Backward moves the top layer to the front of the future and returns it.
// It is a no-op when only one layer remains.
func (s *Stack) Backward() (*Layer, bool) {
	if len(s.past) <= 1 {
		return nil, false
	}
	l := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append([]*Layer{l}, s.future...)
	return l, true
}

// Top returns the visible layer.
func (s *Stack) Top() *Layer { return s.past[len(s.past)-1] }

// Past returns a copy of the past list, oldest first.
func (s *Stack) Past() []*Layer { return append([]*Layer(nil), s.past...) }

// Future returns a copy of the future list, most recently backed-out first.
func (s *Stack) Future() []*Layer { return append([]*Layer(nil), s.future...) }

// CanBack reports whether Backward would move a layer.
func (s *Stack) CanBack() bool { return len(s.past) > 1 }

// CanForward reports whether Forward would move a layer.
func (s *Stack) CanForward() bool { return len(s.future) > 0 }

// LiveKeys returns every surface key referenced from past or future,
// deduplicated, in stack order.
func (s *Stack) LiveKeys() []string {
	seen := make(map[string]struct{}, len(s.past)+len(s.future))
	keys := make([]string, 0, len(s.past)+len(s.future))
	for _, list := range [][]*Layer{s.past, s.future} {
		for _, l := range list {
			if _, ok := seen[l.SurfaceKey]; ok {
				continue
			}
			seen[l.SurfaceKey] = struct{}{}
			keys = append(keys, l.SurfaceKey)
		}
	}
	return keys
}

// DisplayName derives a short title from a site path.
func DisplayName(path string) string {
	path, _, _ = strings.Cut(path, "?")
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}

	switch {
	case len(segs) == 0:
		return "Home"
	case len(segs) >= 4 && segs[0] == "r" && segs[2] == "comments":
		return "r/" + segs[1] + " · comments"
	case len(segs) >= 2 && segs[0] == "r":
		return "r/" + segs[1]
	case len(segs) >= 2 && (segs[0] == "user" || segs[0] == "u"):
		return "u/" + segs[1]
	default:
		return segs[len(segs)-1]
	}
}
