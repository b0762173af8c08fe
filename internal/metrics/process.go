// Package metrics provides scalar summaries of a batch run. Every type here
// satisfies sim.Metric.
package metrics

import (
	"math"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
)

// Mean is the arithmetic mean of one process variable over all observed steps.
type Mean struct {
	field   bioreactor.Field
	sum     float64
	samples int
}

func NewMean(field bioreactor.Field) *Mean {
	return &Mean{field: field}
}

func (m *Mean) Name() string { return "mean_" + string(m.field) }

func (m *Mean) Observe(x bioreactor.State, u bioreactor.Inputs, t float64) {
	v, ok := x.Value(m.field)
	if !ok {
		return
	}
	m.sum += v
	m.samples++
}

func (m *Mean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Mean) Reset() {
	m.sum = 0
	m.samples = 0
}

// Range is the peak-to-peak excursion of one process variable.
type Range struct {
	field bioreactor.Field
	min   float64
	max   float64
	seen  bool
}

func NewRange(field bioreactor.Field) *Range {
	return &Range{field: field}
}

func (r *Range) Name() string { return "range_" + string(r.field) }

func (r *Range) Observe(x bioreactor.State, u bioreactor.Inputs, t float64) {
	v, ok := x.Value(r.field)
	if !ok {
		return
	}
	if !r.seen {
		r.min, r.max, r.seen = v, v, true
		return
	}
	r.min = math.Min(r.min, v)
	r.max = math.Max(r.max, v)
}

func (r *Range) Value() float64 {
	if !r.seen {
		return 0
	}
	return r.max - r.min
}

func (r *Range) Reset() {
	r.min, r.max, r.seen = 0, 0, false
}
