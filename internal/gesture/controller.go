// Package gesture recognizes edge swipes and resolves them into committed
// or cancelled history transitions.
//
// The controller is a plain state machine fed with touch samples, so it can
// be driven by any UI layer and tested without synthesized events. It is not
// safe for concurrent use.
package gesture

import (
	"time"
)

// Direction is a history direction.
type Direction int

const (
	None Direction = iota
	Backward
	Forward
)

func (d Direction) String() string {
	switch d {
	case Backward:
		return "backward"
	case Forward:
		return "forward"
	default:
		return "none"
	}
}

// Phase is the recognizer state.
type Phase int

const (
	Idle Phase = iota
	Armed
	Tracking
	Resolving
)

func (p Phase) String() string {
	switch p {
	case Armed:
		return "armed"
	case Tracking:
		return "tracking"
	case Resolving:
		return "resolving"
	default:
		return "idle"
	}
}

// Point is a screen position in points.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config holds recognizer thresholds.
type Config struct {
	EdgeWidth         float64
	DragThreshold     float64
	VelocityThreshold float64 // points per second
	ScreenWidth       float64
	SampleWindow      time.Duration
}

// DefaultConfig returns thresholds tuned for a phone-sized screen.
func DefaultConfig() Config {
	return Config{
		EdgeWidth:         24,
		DragThreshold:     10,
		VelocityThreshold: 300,
		ScreenWidth:       390,
		SampleWindow:      DefaultSampleWindow,
	}
}

// Bounds describes what the history allows when a touch begins.
type Bounds struct {
	CanBack    bool
	CanForward bool
	Layer      string
}

// Resolution is the outcome of a released gesture.
type Resolution struct {
	Armed     Direction `json:"armed"`
	Direction Direction `json:"direction"`
	Commit    bool      `json:"commit"`
	Momentum  float64   `json:"momentum"`
	Offset    float64   `json:"offset"`
	Layer     string    `json:"layer"`
}

// State is a read-only view of the controller.
type State struct {
	Phase    Phase     `json:"phase"`
	Armed    Direction `json:"armed"`
	Start    Point     `json:"start"`
	Last     Point     `json:"last"`
	Offset   float64   `json:"offset"`
	Momentum float64   `json:"momentum"`
	Layer    string    `json:"layer"`
}

// Controller is the edge-swipe recognizer.
type Controller struct {
	cfg      Config
	phase    Phase
	armed    Direction
	touch    int
	start    Point
	last     Point
	offset   float64
	layer    string
	momentum *Momentum
	result   Resolution
}

// NewController creates an idle controller.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg, momentum: NewMomentum(cfg.SampleWindow)}
}

// Down arms the controller when a touch starts within an edge and the
// history supports that direction. It reports whether it armed. Touches
// while a gesture is in progress are ignored.
func (c *Controller) Down(touch int, p Point, t time.Duration, b Bounds) bool {
	if c.phase != Idle {
		return false
	}

	var side Direction
	switch {
	case p.X <= c.cfg.EdgeWidth && b.CanBack:
		side = Backward
	case p.X >= c.cfg.ScreenWidth-c.cfg.EdgeWidth && b.CanForward:
		side = Forward
	default:
		return false
	}

	c.phase = Armed
	c.armed = side
	c.touch = touch
	c.start, c.last = p, p
	c.offset = 0
	c.layer = b.Layer
	c.momentum.Reset()
	c.momentum.Add(t, p.X)
	return true
}

// Move feeds a sample from the driving touch and returns the visible offset.
func (c *Controller) Move(touch int, p Point, t time.Duration) float64 {
	if touch != c.touch || (c.phase != Armed && c.phase != Tracking) {
		return c.offset
	}
	c.last = p
	c.momentum.Add(t, p.X)

	dx := p.X - c.start.X
	if c.phase == Armed {
		if abs(dx) < c.cfg.DragThreshold {
			return 0
		}
		c.phase = Tracking
	}
	c.offset = dx
	return c.offset
}

// Up releases the driving touch. A tracked gesture enters Resolving and the
// resolution is returned; an armed gesture that never passed the drag
// threshold returns to Idle. ok is false when the touch is ignored.
func (c *Controller) Up(touch int, p Point, t time.Duration) (Resolution, bool) {
	if touch != c.touch {
		return Resolution{}, false
	}
	switch c.phase {
	case Armed:
		c.reset()
		return Resolution{}, false
	case Tracking:
	default:
		return Resolution{}, false
	}

	c.last = p
	c.momentum.Add(t, p.X)
	c.offset = p.X - c.start.X

	v := c.momentum.Velocity()
	dir := c.resolve(p.X, v)
	c.result = Resolution{
		Armed:     c.armed,
		Direction: dir,
		Commit:    dir == c.armed,
		Momentum:  v,
		Offset:    c.offset,
		Layer:     c.layer,
	}
	c.phase = Resolving
	return c.result, true
}

// resolve picks a direction from momentum, or from the release half of the
// screen when momentum is weak. Rightward motion reveals the previous layer.
func (c *Controller) resolve(x, v float64) Direction {
	if abs(v) > c.cfg.VelocityThreshold {
		if v > 0 {
			return Backward
		}
		return Forward
	}
	if x > c.cfg.ScreenWidth/2 {
		return Backward
	}
	return Forward
}

// Settle finishes the transition animation and returns the pending
// resolution. The caller mutates history only when Commit is set.
func (c *Controller) Settle() (Resolution, bool) {
	if c.phase != Resolving {
		return Resolution{}, false
	}
	r := c.result
	c.reset()
	return r, true
}

// Cancel abandons any gesture without committing.
func (c *Controller) Cancel() {
	c.reset()
}

// State returns a snapshot of the recognizer.
func (c *Controller) State() State {
	return State{
		Phase:    c.phase,
		Armed:    c.armed,
		Start:    c.start,
		Last:     c.last,
		Offset:   c.offset,
		Momentum: c.momentum.Velocity(),
		Layer:    c.layer,
	}
}

// Phase returns the current recognizer state.
func (c *Controller) Phase() Phase { return c.phase }

func (c *Controller) reset() {
	c.phase = Idle
	c.armed = None
	c.offset = 0
	c.layer = ""
	c.result = Resolution{}
	c.momentum.Reset()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
