package control

import (
	"fmt"
	"strconv"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/command"
)

// Loop closes a PID around one process variable and one continuous actuator.
// The output is clamped to [0, 1] and issued as an actuator command.
type Loop struct {
	Field    bioreactor.Field
	Actuator command.Target

	pid *PID
}

func NewLoop(field bioreactor.Field, actuator command.Target, pid *PID) (*Loop, error) {
	if _, err := bioreactor.ParseField(string(field)); err != nil || field == bioreactor.FieldTime {
		return nil, fmt.Errorf("%w: %q", bioreactor.ErrUnknownField, field)
	}
	if !isContinuous(actuator) {
		return nil, fmt.Errorf("control: %q is not a continuous actuator", actuator)
	}
	pid.SetLimits(0, 1)
	return &Loop{Field: field, Actuator: actuator, pid: pid}, nil
}

func (l *Loop) PID() *PID { return l.pid }

// Compute implements sim.Controller.
func (l *Loop) Compute(x bioreactor.State, t float64) []command.Command {
	pv, _ := x.Value(l.Field)
	out := l.pid.Update(pv, t)
	return []command.Command{{
		Key:   "cmd/" + string(l.Actuator),
		Value: strconv.FormatFloat(out, 'f', -1, 64),
	}}
}

func (l *Loop) Reset() { l.pid.Reset() }

func isContinuous(t command.Target) bool {
	switch t {
	case command.TargetHeater, command.TargetAeration, command.TargetAgitation, command.TargetVent:
		return true
	}
	return false
}
