// Package sim runs the bioreactor engine, live or offline.
//
//   - [Simulator]: the shared session guarded by one lock, used by every
//     adapter (driver loop, broker bridge, HTTP control, dashboard)
//   - [Driver]: the fixed-cadence step-and-publish loop of the live service
//   - [Runner]: offline batch runs with scheduled commands, feedback
//     controllers and metrics
//   - [Ensemble]: the same batch run repeated over consecutive seeds
//
// # Thread Safety
//
// Simulator is safe for concurrent use. Each step, command, reset and
// read-out holds the session lock for its whole duration, so a command is
// never applied in the middle of an integration step.
package sim
