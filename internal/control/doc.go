// Package control provides feedback loops that drive the reactor's
// continuous actuators during batch runs.
//
// A [Loop] pairs a [PID] with one measured variable and one actuator and
// satisfies sim.Controller:
//
//	pid := control.NewPID(0.5, 0.02, 0, 37.0) // Kp, Ki, Kd, setpoint
//	loop, _ := control.NewLoop(bioreactor.FieldTemperature, command.TargetHeater, pid)
//	runner.AddController(loop)
//
// Loops are not safe for concurrent use; each run owns its own.
package control
