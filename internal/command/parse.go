package command

import (
	"math"
	"strconv"
	"strings"
)

// MaxTimeScale is the upper bound of the simulation speed multiplier.
const MaxTimeScale = 50.0

var (
	truthy = map[string]bool{"1": true, "on": true, "true": true, "yes": true}
	falsy  = map[string]bool{"off": true, "false": true, "no": true}
)

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// ParseSwitch reports whether v turns a valve on. Only "1", "on", "true"
// and "yes" do; everything else closes it.
func ParseSwitch(v string) bool {
	return truthy[normalize(v)]
}

// ParseFraction parses a continuous actuator command into [0,1]. The word
// forms map to the ends of the range; ok is false when v is not a number.
func ParseFraction(v string) (f float64, ok bool) {
	n := normalize(v)
	switch {
	case n == "on" || n == "true" || n == "yes":
		return 1.0, true
	case falsy[n]:
		return 0.0, true
	}
	f, ok = ParseNumber(n)
	if !ok {
		return 0.0, false
	}
	return clamp(f, 0, 1), true
}

// ParseSeed parses a reset seed, falling back to def.
func ParseSeed(v string, def int64) int64 {
	seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return def
	}
	return seed
}

// ParseTimeScale parses a time-scale value, keeping prev when v is not a
// number, and clamps the result to [0, MaxTimeScale].
func ParseTimeScale(v string, prev float64) float64 {
	ts, ok := ParseNumber(v)
	if !ok {
		ts = prev
	}
	return ClampTimeScale(ts)
}

// ClampTimeScale bounds a time-scale to [0, MaxTimeScale].
func ClampTimeScale(ts float64) float64 {
	if math.IsNaN(ts) {
		return 0
	}
	return clamp(ts, 0, MaxTimeScale)
}

// ParseNumber parses a decimal number. Infinities parse and are left for the
// caller to clamp; NaN and hexadecimal forms do not.
func ParseNumber(v string) (float64, bool) {
	n := normalize(v)
	if strings.Contains(n, "0x") {
		return 0, false
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
