// Package command translates named actuator and simulation-control commands
// into mutations of a reactor session.
//
// Keys are hierarchical paths such as "bioreactor/cmd/heater"; only the
// trailing segments select the target. Values are raw strings as they arrive
// from the broker or the HTTP surface. Malformed values fall back to a safe
// default and unknown keys are ignored, so Apply never fails.
package command
