// Package param maps parameter values between their natural units and the
// normalized [0, 1] range used by host automation and GUI controls.
package param

import (
	"math"
	"strconv"
)

// Mapping converts between plain and normalized values.
type Mapping interface {
	Normalize(plain float64) float64
	Denormalize(normalized float64) float64
}

// LinearRange maps [Min, Max] linearly.
type LinearRange struct {
	Min, Max float64
}

func (l LinearRange) Normalize(plain float64) float64 {
	if l.Max <= l.Min {
		return 0
	}
	return clamp01((plain - l.Min) / (l.Max - l.Min))
}

func (l LinearRange) Denormalize(normalized float64) float64 {
	return l.Min + clamp01(normalized)*(l.Max-l.Min)
}

// LinearisedRange is a power-law skewed range whose centre maps to a
// chosen middle value.
type LinearisedRange struct {
	Min, Max float64
	Skew     float64
}

// NewLinearised derives the skew so that Denormalize(0.5) == mid.
func NewLinearised(lo, hi, mid float64) LinearisedRange {
	skew := 1.0
	if hi > lo && mid > lo && mid < hi {
		skew = math.Log(0.5) / math.Log((mid-lo)/(hi-lo))
	}
	return LinearisedRange{Min: lo, Max: hi, Skew: skew}
}

func (l LinearisedRange) Normalize(plain float64) float64 {
	if l.Max <= l.Min {
		return 0
	}
	proportion := clamp01((plain - l.Min) / (l.Max - l.Min))
	return math.Pow(proportion, l.Skew)
}

func (l LinearisedRange) Denormalize(normalized float64) float64 {
	normalized = clamp01(normalized)
	if normalized == 0 {
		return l.Min
	}
	return l.Min + (l.Max-l.Min)*math.Exp(math.Log(normalized)/l.Skew)
}

// Enumerated maps Count discrete indices onto [0, 1].
type Enumerated struct {
	Count int
}

func (e Enumerated) Normalize(plain float64) float64 {
	if e.Count < 2 {
		return 0
	}
	return clamp01(math.Round(plain) / float64(e.Count-1))
}

func (e Enumerated) Denormalize(normalized float64) float64 {
	if e.Count < 2 {
		return 0
	}
	return math.Round(clamp01(normalized) * float64(e.Count-1))
}

// Toggle is a two-state Enumerated.
var Toggle = Enumerated{Count: 2}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Encoding names the representation a value is expressed in.
type Encoding int

const (
	// NormalisedLinear is (plain-min)/(max-min), ignoring any skew.
	NormalisedLinear Encoding = iota
	// Linear is the plain value in natural units.
	Linear
	// Unchanged passes values through untouched.
	Unchanged
	// Internal is the normalized automation value, skew included.
	Internal
)

func (e Encoding) String() string {
	switch e {
	case NormalisedLinear:
		return "normalised-linear"
	case Linear:
		return "linear"
	case Unchanged:
		return "unchanged"
	case Internal:
		return "internal"
	}
	return "Encoding(" + strconv.Itoa(int(e)) + ")"
}
