package control

import "math"

type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	// Reverse makes the output rise when the measurement is above target.
	Reverse bool

	lo, hi   float64
	limited  bool
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

// SetLimits clamps the output to [lo, hi]. While the output is saturated the
// integral is held.
func (p *PID) SetLimits(lo, hi float64) {
	p.lo, p.hi, p.limited = lo, hi, true
}

// Update returns the controller output for measurement pv at time t.
func (p *PID) Update(pv, t float64) float64 {
	err := p.Target - pv
	if p.Reverse {
		err = -err
	}

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.limit(p.Kp*err + p.Ki*p.integral)
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.limit(p.Kp*err + p.Ki*p.integral)
	}

	integral := p.integral + err*dt
	derivative := (err - p.prevErr) / dt

	p.prevErr = err
	p.prevT = t

	u := p.Kp*err + p.Ki*integral + p.Kd*derivative
	if p.limited && (u < p.lo || u > p.hi) {
		return p.limit(u)
	}
	p.integral = integral
	return u
}

func (p *PID) limit(u float64) float64 {
	if !p.limited {
		return u
	}
	return math.Min(math.Max(u, p.lo), p.hi)
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	}
}
