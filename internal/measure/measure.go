// Package measure estimates the rate of a rendered modulation curve from
// its spectrum.
package measure

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
)

const (
	minimumLength = 8
	// zero padding factor applied before the transform
	padFactor = 4
	// peaks below this magnitude are treated as silence
	silenceFloor = 1e-9
)

var (
	ErrSignalTooShort = errors.New("measure: signal too short")
	ErrNoModulation   = errors.New("measure: signal has no modulation")
)

// Estimate is the dominant modulation component of a curve.
type Estimate struct {
	FrequencyHz   float64
	PeriodSeconds float64
	// Magnitude of the peak bin, normalised by the window sum.
	Magnitude float64
}

// PeriodInBars converts the estimate into bars at the given bar duration.
func (e Estimate) PeriodInBars(barDuration float64) float64 {
	return e.PeriodSeconds / barDuration
}

// ModulationPeriod finds the strongest non-DC component of curve, which is
// sampled at sampleRate values per second. The mean is removed and a Hann
// window applied; the peak is refined with parabolic interpolation.
func ModulationPeriod(curve []float64, sampleRate float64) (Estimate, error) {
	n := len(curve)
	if n < minimumLength {
		return Estimate{}, fmt.Errorf("%w: %d values, need %d", ErrSignalTooShort, n, minimumLength)
	}
	if !(sampleRate > 0) {
		return Estimate{}, fmt.Errorf("measure: invalid sample rate %v", sampleRate)
	}

	x := make([]float64, n)
	var mean float64
	for _, v := range curve {
		mean += v
	}
	mean /= float64(n)
	for i, v := range curve {
		x[i] = v - mean
	}
	w := hann(n)
	vecmath.MulBlockInPlace(x, w)
	var wsum float64
	for _, c := range w {
		wsum += c
	}

	size := nextPowerOfTwo(n * padFactor)
	in := make([]complex128, size)
	for i, v := range x {
		in[i] = complex(v, 0)
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return Estimate{}, fmt.Errorf("measure: failed to plan %d-point transform: %w", size, err)
	}
	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return Estimate{}, fmt.Errorf("measure: transform failed: %w", err)
	}

	half := size/2 + 1
	re := make([]float64, half)
	im := make([]float64, half)
	for i := range half {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}
	mag := make([]float64, half)
	vecmath.Magnitude(mag, re, im)

	peak := 1
	for i := 2; i < half; i++ {
		if mag[i] > mag[peak] {
			peak = i
		}
	}
	if mag[peak] < silenceFloor {
		return Estimate{}, ErrNoModulation
	}
	bin := float64(peak)
	if peak > 1 && peak < half-1 {
		bin += parabolicOffset(mag[peak-1], mag[peak], mag[peak+1])
	}
	freq := bin * sampleRate / float64(size)
	return Estimate{
		FrequencyHz:   freq,
		PeriodSeconds: 1 / freq,
		Magnitude:     2 * mag[peak] / wsum,
	}, nil
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func parabolicOffset(a, b, c float64) float64 {
	d := a - 2*b + c
	if d == 0 {
		return 0
	}
	return 0.5 * (a - c) / d
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
