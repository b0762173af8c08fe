package bioreactor

import "math/rand"

// Engine owns one reactor session (State and Inputs), the reactor Params and
// the noise source. A reset replaces the session and re-seeds the noise.
type Engine struct {
	params Params
	seed   int64
	rng    *rand.Rand
	x      State
	u      Inputs
}

// New builds an engine with default parameters seeded with seed.
func New(seed int64) *Engine {
	return NewWithParams(DefaultParams(), seed)
}

// NewWithParams builds an engine with custom reactor constants.
func NewWithParams(p Params, seed int64) *Engine {
	e := &Engine{params: p}
	e.Reset(seed)
	return e
}

// Reset re-seeds the noise source and starts a fresh session from the
// default State and Inputs. Params are kept.
func (e *Engine) Reset(seed int64) {
	e.seed = seed
	e.rng = rand.New(rand.NewSource(seed))
	e.x = DefaultState()
	e.u = DefaultInputs()
}

// Seed returns the seed of the current session.
func (e *Engine) Seed() int64 { return e.seed }

// Params returns the reactor constants.
func (e *Engine) Params() Params { return e.params }

// State returns a copy of the current process state.
func (e *Engine) State() State { return e.x }

// Inputs returns the actuator commands of the current session. The pointer
// is invalidated by Reset.
func (e *Engine) Inputs() *Inputs { return &e.u }

// SetState overwrites the process state. It is used to start batch runs
// from non-default initial conditions.
func (e *Engine) SetState(x State) { e.x = x }

// Step advances the session by one explicit Euler step of dt seconds.
// dt must be finite and non-negative; see ValidateDt.
func (e *Engine) Step(dt float64) {
	p, x, u := &e.params, &e.x, &e.u

	// volume balance
	qin, qout := 0.0, 0.0
	if u.ValveIn {
		qin = p.QinMax
	}
	if u.ValveOut {
		qout = p.QoutMax
	}
	dL := (qin - qout) / p.Area * dt
	x.Level = clamp(x.Level+dL*LevelScale, LevelMin, LevelMax)

	// energy balance
	dT := (p.PHeat*u.Heater - p.KLoss*(x.Temp-p.TAmb)) / p.Cp * dt
	x.Temp += dT

	// oxygen transfer; saturation follows last tick's headspace pressure
	kla := p.KLa0 * (1 + 2*u.Aeration + 1.5*u.Agitation)
	ro2 := O2Uptake * x.X
	odSatEff := p.ODSat * (x.PressureKPa / p.PAtm)
	dOD := (kla*(odSatEff-x.OD) - ro2) * dt
	x.OD = clamp(x.OD+dOD, ODMin, ODMax)

	x.PH += (-PHRelaxation*(x.PH-PHSetpoint) + PHNoise*(e.rng.Float64()-0.5)) * dt
	x.PH = clamp(x.PH, PHMin, PHMax)

	// logistic growth
	x.X += GrowthRate * x.X * (1 - x.X/XMax) * dt

	x.AgitationRPM = RPMBase + RPMRange*u.Agitation

	dP := p.KPIn*u.Aeration - p.KPOut*u.Vent*(x.PressureKPa-p.PAtm) + p.KPGen*x.X
	x.PressureKPa = clamp(x.PressureKPa+dP*dt, p.PMin, p.PMax)

	// sensor noise, applied after the clamps; od is not clamped again
	x.Temp += (e.rng.Float64() - 0.5) * TempSensorNoise
	x.OD += (e.rng.Float64() - 0.5) * ODSensorNoise

	x.T += dt
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
