package metrics

import (
	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
)

// ActuatorEffort averages the sum of the continuous actuator commands
// (heater, aeration, agitation, vent) per step.
type ActuatorEffort struct {
	sum     float64
	samples int
}

func NewActuatorEffort() *ActuatorEffort {
	return &ActuatorEffort{}
}

func (a *ActuatorEffort) Name() string { return "actuator_effort" }

func (a *ActuatorEffort) Observe(x bioreactor.State, u bioreactor.Inputs, t float64) {
	a.sum += u.Heater + u.Aeration + u.Agitation + u.Vent
	a.samples++
}

func (a *ActuatorEffort) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.sum / float64(a.samples)
}

func (a *ActuatorEffort) Reset() {
	a.sum = 0
	a.samples = 0
}
