// Package normalize maps provider payloads onto the stable result shapes
// returned by the API. Every default for a missing or malformed upstream
// field is decided here.
package normalize

import (
	"math"
	"strings"
	"unicode"
)

// Clamp bounds v to [lo, hi]. NaN becomes lo.
func Clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// Unit clamps a [0,1] score.
func Unit(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Percent clamps a [0,100] score.
func Percent(v float64) float64 {
	return Clamp(v, 0, 100)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// optional dereferences a provider score, reporting whether it was usable.
func optional(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Words splits text into lowercase word tokens. Combining marks stay part of
// the word so Devanagari and Gurmukhi vowel signs are not split off.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsMark(r) && r != '\''
	})
}
