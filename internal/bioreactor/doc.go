// Package bioreactor implements the process model of a stirred, aerated
// bioreactor as a small system of coupled ODEs advanced by explicit Euler
// steps.
//
// The model tracks:
//
//   - liquid level, driven by the inlet and outlet valves
//   - broth temperature, heated by the jacket and losing heat to ambient
//   - dissolved oxygen, fed by aeration and agitation and consumed by biomass
//   - pH, relaxing toward 6.8 with a small random disturbance
//   - biomass, growing logistically toward a carrying capacity
//   - headspace pressure, raised by aeration and biomass, relieved by the vent
//
// # Example
//
//	eng := bioreactor.New(42)
//	for i := 0; i < 100; i++ {
//	    eng.Step(0.2)
//	}
//	r := eng.Readout(true)
//
// # Thread Safety
//
// Engine instances are NOT thread-safe. Callers that step and command the
// engine from several goroutines must serialize access, as sim.Simulator does.
package bioreactor
