package metrics

import (
	"math"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
)

// ClampTime is the fraction of observed steps in which a process variable
// sat at or beyond one of its bounds. A level pinned at 0 or 100 scores 1.
type ClampTime struct {
	field   bioreactor.Field
	lo, hi  float64
	clamped int
	samples int
}

func NewClampTime(field bioreactor.Field, lo, hi float64) *ClampTime {
	return &ClampTime{field: field, lo: lo, hi: hi}
}

func (c *ClampTime) Name() string { return "clamp_time_" + string(c.field) }

func (c *ClampTime) Observe(x bioreactor.State, u bioreactor.Inputs, t float64) {
	v, ok := x.Value(c.field)
	if !ok {
		return
	}
	c.samples++
	if v <= c.lo || v >= c.hi {
		c.clamped++
	}
}

func (c *ClampTime) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.clamped) / float64(c.samples)
}

func (c *ClampTime) Reset() {
	c.clamped = 0
	c.samples = 0
}

// InBand is the fraction of observed steps in which a process variable stayed
// within target±tolerance.
type InBand struct {
	field     bioreactor.Field
	target    float64
	tolerance float64
	inside    int
	samples   int
}

func NewInBand(field bioreactor.Field, target, tolerance float64) *InBand {
	return &InBand{field: field, target: target, tolerance: tolerance}
}

func (b *InBand) Name() string { return "in_band_" + string(b.field) }

func (b *InBand) Observe(x bioreactor.State, u bioreactor.Inputs, t float64) {
	v, ok := x.Value(b.field)
	if !ok {
		return
	}
	b.samples++
	if v >= b.target-b.tolerance && v <= b.target+b.tolerance {
		b.inside++
	}
}

func (b *InBand) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return float64(b.inside) / float64(b.samples)
}

func (b *InBand) Reset() {
	b.inside = 0
	b.samples = 0
}

// IAE integrates the absolute deviation of a process variable from target
// over simulated time. Lower is tighter regulation.
type IAE struct {
	field   bioreactor.Field
	target  float64
	sum     float64
	prevT   float64
	prevErr float64
	seen    bool
}

func NewIAE(field bioreactor.Field, target float64) *IAE {
	return &IAE{field: field, target: target}
}

func (a *IAE) Name() string { return "iae_" + string(a.field) }

func (a *IAE) Observe(x bioreactor.State, u bioreactor.Inputs, t float64) {
	v, ok := x.Value(a.field)
	if !ok {
		return
	}
	if a.seen {
		a.sum += a.prevErr * (t - a.prevT)
	}
	a.prevT = t
	a.prevErr = math.Abs(v - a.target)
	a.seen = true
}

func (a *IAE) Value() float64 { return a.sum }

func (a *IAE) Reset() {
	a.sum = 0
	a.prevT = 0
	a.prevErr = 0
	a.seen = false
}
