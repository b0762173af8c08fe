package analysis

import "math"

// SettlingTime returns the first time after which every value stays within
// target±tol. ok is false if the series ends outside the band.
func SettlingTime(times, values []float64, target, tol float64) (t float64, ok bool) {
	n := min(len(times), len(values))
	if n == 0 {
		return 0, false
	}

	last := -1
	for i := n - 1; i >= 0; i-- {
		if math.Abs(values[i]-target) > tol {
			last = i
			break
		}
	}

	switch {
	case last == -1:
		return times[0], true
	case last == n-1:
		return 0, false
	default:
		return times[last+1], true
	}
}

// Summary holds basic statistics of a series.
type Summary struct {
	Min, Max, Mean, StdDev float64
	N                      int
}

func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	s := Summary{Min: values[0], Max: values[0], N: len(values)}
	sum := 0.0
	for _, v := range values {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		sum += v
	}
	s.Mean = sum / float64(len(values))

	ss := 0.0
	for _, v := range values {
		d := v - s.Mean
		ss += d * d
	}
	s.StdDev = math.Sqrt(ss / float64(len(values)))

	return s
}
