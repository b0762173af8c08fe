// Package analysis provides post-run tools for recorded process series.
//
//   - [PowerSpectrum]: single-sided FFT magnitude of a detrended series
//   - [DominantFrequency]: strongest non-DC component, in Hz
//   - [SettlingTime]: when a series enters and stays in a band around a target
//   - [Summarize]: min, max, mean and standard deviation
//
// # Oscillation Detection
//
// A controlled loop that hunts shows up as a clear spectral peak:
//
//	f, power := analysis.DominantFrequency(temps, dt)
//	if power > threshold {
//	    // loop is oscillating with period 1/f
//	}
package analysis
