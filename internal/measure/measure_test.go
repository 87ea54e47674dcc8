package measure

import (
	"errors"
	"math"
	"testing"
)

func sine(n int, rate, freq float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 + 0.5*math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	return out
}

func TestModulationPeriodOfSine(t *testing.T) {
	est, err := ModulationPeriod(sine(4000, 1000, 2), 1000)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if math.Abs(est.FrequencyHz-2) > 0.04 {
		t.Fatalf("frequency = %v, want 2 Hz", est.FrequencyHz)
	}
	if math.Abs(est.PeriodInBars(2)-0.25) > 0.005 {
		t.Fatalf("period = %v bars, want 0.25", est.PeriodInBars(2))
	}
}

func TestModulationPeriodOfSawtooth(t *testing.T) {
	curve := make([]float64, 6000)
	for i := range curve {
		p := float64(i) / 1000 * 1.5
		curve[i] = p - math.Floor(p)
	}
	est, err := ModulationPeriod(curve, 1000)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if math.Abs(est.FrequencyHz-1.5) > 0.05 {
		t.Fatalf("frequency = %v, want the 1.5 Hz fundamental", est.FrequencyHz)
	}
}

func TestModulationPeriodErrors(t *testing.T) {
	if _, err := ModulationPeriod(make([]float64, 3), 100); !errors.Is(err, ErrSignalTooShort) {
		t.Fatalf("short err = %v", err)
	}
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 0.7
	}
	if _, err := ModulationPeriod(flat, 100); !errors.Is(err, ErrNoModulation) {
		t.Fatalf("flat err = %v", err)
	}
	if _, err := ModulationPeriod(sine(64, 100, 5), 0); err == nil {
		t.Fatalf("expected sample rate error")
	}
}
