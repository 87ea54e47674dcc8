package lfo

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Raw generator output range, remapped by the oscillator into its bounds.
const (
	MinimumValue = 0.0
	MaximumValue = 1.0
)

// Waveform selects the generator of an oscillator.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Sawtooth
	ReverseSawtooth
	Square
	Exponent
	RandomHold
	RandomSlide
	Whacko
	Dirac
	ReverseDirac

	NumWaveforms = int(ReverseDirac) + 1
)

// WaveformNames is the display table indexed by Waveform.
var WaveformNames = [NumWaveforms]string{
	"Sine",
	"Triangle",
	"Sawtooth",
	"Reverse sawtooth",
	"Square",
	"Exponent",
	"Random hold",
	"Random slide",
	"Whacko",
	"Dirac",
	"Reverse Dirac",
}

func (w Waveform) String() string {
	if !w.Valid() {
		return "Waveform(" + strconv.Itoa(int(w)) + ")"
	}
	return WaveformNames[w]
}

func (w Waveform) Valid() bool { return w >= 0 && int(w) < NumWaveforms }

// State is the per-oscillator scratch space of the stateful generators.
//
//	RandomHold:  [0] held value
//	RandomSlide: [0] target of the current period, [1] value the period started from
type State [2]float64

// generator maps a position in [0, 1) to a raw value in
// [MinimumValue, MaximumValue].
type generator func(pos float64, st *State, newPeriod bool, rng *rand.Rand) float64

var generators = [NumWaveforms]generator{
	Sine:            sine,
	Triangle:        triangle,
	Sawtooth:        sawtooth,
	ReverseSawtooth: reverseSawtooth,
	Square:          square,
	Exponent:        exponent,
	RandomHold:      randomHold,
	RandomSlide:     randomSlide,
	Whacko:          whacko,
	Dirac:           dirac,
	ReverseDirac:    reverseDirac,
}

// Generate evaluates waveform w. newPeriod must be computed by the caller
// from the previous and current position; a position of exactly zero is
// not a reliable signal with block-based processing.
func Generate(w Waveform, pos float64, st *State, newPeriod bool, rng *rand.Rand) float64 {
	return generators[w](pos, st, newPeriod, rng)
}

func scale(unit float64) float64 {
	return MinimumValue + unit*(MaximumValue-MinimumValue)
}

func sine(pos float64, _ *State, _ bool, _ *rand.Rand) float64 {
	return scale((1 - math.Cos(2*math.Pi*pos)) / 2)
}

// triangleUnit rises over the first half period and falls over the second.
func triangleUnit(pos float64) float64 {
	if pos < 0.5 {
		return 2 * pos
	}
	return 2 - 2*pos
}

func triangle(pos float64, _ *State, _ bool, _ *rand.Rand) float64 {
	return scale(triangleUnit(pos))
}

func sawtooth(pos float64, _ *State, _ bool, _ *rand.Rand) float64 {
	return scale(pos)
}

func reverseSawtooth(pos float64, _ *State, _ bool, _ *rand.Rand) float64 {
	return scale(1 - pos)
}

func square(pos float64, _ *State, _ bool, _ *rand.Rand) float64 {
	if pos > 0.5 {
		return MaximumValue
	}
	return MinimumValue
}

// exponent follows the triangle through exp, rescaled from [1, e].
func exponent(pos float64, _ *State, _ bool, _ *rand.Rand) float64 {
	return scale(math.Min((math.Exp(triangleUnit(pos))-1)/(math.E-1), 1))
}

func randomHold(_ float64, st *State, newPeriod bool, rng *rand.Rand) float64 {
	if newPeriod {
		st[0] = scale(rng.Float64())
	}
	return st[0]
}

func randomSlide(pos float64, st *State, newPeriod bool, rng *rand.Rand) float64 {
	if newPeriod {
		st[1] = st[0]
		st[0] = scale(rng.Float64())
	}
	return st[1] + (st[0]-st[1])*pos
}

func whacko(_ float64, _ *State, _ bool, rng *rand.Rand) float64 {
	return scale(rng.Float64())
}

func dirac(pos float64, _ *State, newPeriod bool, _ *rand.Rand) float64 {
	if newPeriod || pos == 0 {
		return MaximumValue
	}
	return MinimumValue
}

func reverseDirac(pos float64, _ *State, newPeriod bool, _ *rand.Rand) float64 {
	if newPeriod || pos == 0 {
		return MinimumValue
	}
	return MaximumValue
}

// ParseWaveform resolves a display name or its compact form
// ("reversesawtooth", "random_hold").
func ParseWaveform(name string) (Waveform, bool) {
	key := compact(name)
	for i, n := range WaveformNames {
		if compact(n) == key {
			return Waveform(i), true
		}
	}
	return 0, false
}

var compactReplacer = strings.NewReplacer(" ", "", "_", "", "-", "")

func compact(s string) string {
	return compactReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}
