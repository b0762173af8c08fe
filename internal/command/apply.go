package command

import (
	"strings"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
)

// Target identifies what a command key addresses.
type Target string

const (
	TargetNone      Target = ""
	TargetReset     Target = "reset"
	TargetTimeScale Target = "time_scale"
	TargetValveIn   Target = "valve_in"
	TargetValveOut  Target = "valve_out"
	TargetHeater    Target = "heater"
	TargetAeration  Target = "aeration"
	TargetAgitation Target = "agitation"
	TargetVent      Target = "vent"
)

// Actuators lists the actuator targets in publication order.
var Actuators = []Target{
	TargetValveIn,
	TargetValveOut,
	TargetHeater,
	TargetAeration,
	TargetAgitation,
	TargetVent,
}

// Command is one key/value pair as delivered by a transport.
type Command struct {
	Key   string
	Value string
}

// Session is the mutable state a command may touch. Implementations are
// called with the session lock already held.
type Session interface {
	Inputs() *bioreactor.Inputs
	Reset(seed int64)
	DefaultSeed() int64
	TimeScale() float64
	SetTimeScale(ts float64)
}

// Result describes the effect of one applied command.
type Result struct {
	Target Target
	Value  float64
}

// Resolve maps a command key to its target. The legacy "cmd/reset" path is
// accepted alongside "simCmd/reset".
func Resolve(key string) Target {
	switch {
	case endsWith(key, "simCmd/reset"), endsWith(key, "cmd/reset"):
		return TargetReset
	case endsWith(key, "simCmd/time_scale"):
		return TargetTimeScale
	}
	for _, a := range Actuators {
		if endsWith(key, string(a)) {
			return a
		}
	}
	return TargetNone
}

func endsWith(key, suffix string) bool {
	return key == suffix || strings.HasSuffix(key, "/"+suffix)
}

// Apply executes c against s. Unrecognized keys leave s untouched and
// return a Result with TargetNone.
func Apply(s Session, c Command) Result {
	target := Resolve(c.Key)
	switch target {
	case TargetReset:
		seed := ParseSeed(c.Value, s.DefaultSeed())
		s.Reset(seed)
		return Result{Target: target, Value: float64(seed)}
	case TargetTimeScale:
		ts := ParseTimeScale(c.Value, s.TimeScale())
		s.SetTimeScale(ts)
		return Result{Target: target, Value: ts}
	case TargetValveIn, TargetValveOut:
		on := ParseSwitch(c.Value)
		u := s.Inputs()
		if target == TargetValveIn {
			u.ValveIn = on
		} else {
			u.ValveOut = on
		}
		if on {
			return Result{Target: target, Value: 1}
		}
		return Result{Target: target, Value: 0}
	case TargetHeater, TargetAeration, TargetAgitation, TargetVent:
		field := fraction(s.Inputs(), target)
		if f, ok := ParseFraction(c.Value); ok {
			*field = f
		}
		return Result{Target: target, Value: *field}
	}
	return Result{Target: TargetNone}
}

func fraction(u *bioreactor.Inputs, t Target) *float64 {
	switch t {
	case TargetHeater:
		return &u.Heater
	case TargetAeration:
		return &u.Aeration
	case TargetAgitation:
		return &u.Agitation
	default:
		return &u.Vent
	}
}
