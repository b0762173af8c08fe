package analysis

import (
	"math"
	"testing"
)

func TestPowerSpectrumEmpty(t *testing.T) {
	if ps := PowerSpectrum(nil); ps != nil {
		t.Errorf("expected nil, got %v", ps)
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = 37.0
	}

	ps := PowerSpectrum(data)
	if len(ps) != 33 {
		t.Fatalf("expected 33 bins, got %d", len(ps))
	}
	for i, v := range ps {
		if v > 1e-9 {
			t.Errorf("bin %d: expected zero for constant input, got %g", i, v)
		}
	}
}

func TestDominantFrequency(t *testing.T) {
	const dt = 0.5
	const freq = 0.05
	n := 200 // not a power of two

	data := make([]float64, n)
	for i := range data {
		data[i] = 30 + 2*math.Sin(2*math.Pi*freq*float64(i)*dt)
	}

	got, power := DominantFrequency(data, dt)
	if math.Abs(got-freq) > 1.0/(float64(n)*dt) {
		t.Errorf("expected ~%v Hz, got %v", freq, got)
	}
	if power <= 0 {
		t.Errorf("expected positive power, got %v", power)
	}
}

func TestDominantFrequencyDegenerate(t *testing.T) {
	if f, p := DominantFrequency([]float64{1, 2}, 0.1); f != 0 || p != 0 {
		t.Errorf("expected zeros for short series, got %v %v", f, p)
	}
	if f, _ := DominantFrequency(make([]float64, 16), 0); f != 0 {
		t.Errorf("expected zero for dt=0, got %v", f)
	}
}

func TestSettlingTime(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4, 5}

	tests := []struct {
		name   string
		values []float64
		want   float64
		ok     bool
	}{
		{"settles", []float64{30, 34, 36.8, 37.1, 36.9, 37.0}, 2, true},
		{"overshoot then settle", []float64{30, 37, 38, 37.2, 37.0, 36.9}, 3, true},
		{"always inside", []float64{37, 37, 37, 37, 37, 37}, 0, true},
		{"never settles", []float64{30, 31, 32, 33, 34, 35}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SettlingTime(times, tt.values, 37, 0.25)
			if ok != tt.ok || got != tt.want {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	if s.Min != 2 || s.Max != 9 || s.N != 8 {
		t.Errorf("unexpected summary %+v", s)
	}
	if math.Abs(s.Mean-5) > 1e-12 {
		t.Errorf("expected mean 5, got %v", s.Mean)
	}
	if math.Abs(s.StdDev-2) > 1e-12 {
		t.Errorf("expected stddev 2, got %v", s.StdDev)
	}

	if (Summarize(nil) != Summary{}) {
		t.Error("expected zero summary for empty input")
	}
}
