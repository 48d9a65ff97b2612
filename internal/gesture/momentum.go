package gesture

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultSampleWindow bounds how far back velocity is estimated from.
const DefaultSampleWindow = 100 * time.Millisecond

type sample struct {
	t time.Duration
	x float64
}

// Momentum estimates horizontal velocity from recent touch samples with a
// least-squares fit of position over time.
type Momentum struct {
	window  time.Duration
	samples []sample
}

// NewMomentum creates a tracker keeping samples newer than window relative
// to the latest one.
func NewMomentum(window time.Duration) *Momentum {
	if window <= 0 {
		window = DefaultSampleWindow
	}
	return &Momentum{window: window}
}

// Add records position x at time t. Samples older than the window are
// dropped, but the previous sample is always kept so a slow final move still
// yields an estimate.
func (m *Momentum) Add(t time.Duration, x float64) {
	m.samples = append(m.samples, sample{t: t, x: x})
	cut := 0
	for cut < len(m.samples)-2 && t-m.samples[cut].t > m.window {
		cut++
	}
	if cut > 0 {
		m.samples = append(m.samples[:0], m.samples[cut:]...)
	}
}

// Velocity returns the fitted velocity in points per second. Positive is
// rightward. Fewer than two distinct timestamps yields zero.
func (m *Momentum) Velocity() float64 {
	if len(m.samples) < 2 || m.samples[0].t == m.samples[len(m.samples)-1].t {
		return 0
	}
	ts := make([]float64, len(m.samples))
	xs := make([]float64, len(m.samples))
	for i, s := range m.samples {
		ts[i] = s.t.Seconds()
		xs[i] = s.x
	}
	_, beta := stat.LinearRegression(ts, xs, nil, false)
	return beta
}

// Reset forgets every sample.
func (m *Momentum) Reset() { m.samples = m.samples[:0] }
