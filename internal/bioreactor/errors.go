package bioreactor

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for engine operations.
var (
	// ErrInvalidDt indicates a negative or non-finite step size.
	ErrInvalidDt = errors.New("bioreactor: dt must be finite and non-negative")

	// ErrUnknownField indicates a process variable name that the model does not expose.
	ErrUnknownField = errors.New("bioreactor: unknown field")
)

// ValidateDt reports whether dt is usable by Engine.Step. Step itself does
// not check its argument.
func ValidateDt(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidDt, dt)
	}
	return nil
}

// StepError wraps an error with the simulation time at which it happened.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
