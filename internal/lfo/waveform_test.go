package lfo

import (
	"math"
	"math/rand/v2"
	"testing"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestGeneratorsStayInRange(t *testing.T) {
	rng := testRNG()
	for w := Waveform(0); int(w) < NumWaveforms; w++ {
		st := State{MinimumValue, 0}
		for i := 0; i <= 1000; i++ {
			pos := float64(i) / 1000
			if pos == 1 {
				pos = math.Nextafter(1, 0)
			}
			v := Generate(w, pos, &st, i%97 == 0, rng)
			if v < MinimumValue || v > MaximumValue || math.IsNaN(v) {
				t.Fatalf("%s(%v) = %v, outside [%v, %v]", w, pos, v, MinimumValue, MaximumValue)
			}
		}
	}
}

func TestDeterministicShapes(t *testing.T) {
	cases := []struct {
		w    Waveform
		pos  float64
		want float64
	}{
		{Square, 0.6, MaximumValue},
		{Square, 0.3, MinimumValue},
		{Sawtooth, 0.25, 0.25},
		{ReverseSawtooth, 0.25, 0.75},
		{Sine, 0, MinimumValue},
		{Sine, 0.5, MaximumValue},
		{Sine, 0.25, 0.5},
		{Triangle, 0.25, 0.5},
		{Triangle, 0.5, MaximumValue},
		{Triangle, 0.75, 0.5},
		{Exponent, 0, MinimumValue},
		{Exponent, 0.5, MaximumValue},
		{Dirac, 0, MaximumValue},
		{Dirac, 0.4, MinimumValue},
		{ReverseDirac, 0, MinimumValue},
		{ReverseDirac, 0.4, MaximumValue},
	}
	for _, tc := range cases {
		var st State
		got := Generate(tc.w, tc.pos, &st, false, testRNG())
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("%s(%v) = %v, want %v", tc.w, tc.pos, got, tc.want)
		}
	}
}

func TestExponentIsBelowTriangle(t *testing.T) {
	var st State
	for _, pos := range []float64{0.1, 0.2, 0.3, 0.4, 0.6, 0.8} {
		e := Generate(Exponent, pos, &st, false, nil)
		tri := Generate(Triangle, pos, &st, false, nil)
		if e >= tri {
			t.Fatalf("exponent(%v) = %v should stay below triangle %v", pos, e, tri)
		}
	}
}

func TestDiracFiresOnNewPeriod(t *testing.T) {
	var st State
	if got := Generate(Dirac, 0.03, &st, true, nil); got != MaximumValue {
		t.Fatalf("dirac at period start = %v, want max", got)
	}
	if got := Generate(ReverseDirac, 0.03, &st, true, nil); got != MinimumValue {
		t.Fatalf("reverse dirac at period start = %v, want min", got)
	}
}

func TestRandomHoldOnlyChangesOnNewPeriod(t *testing.T) {
	rng := testRNG()
	st := State{MinimumValue, 0}
	first := Generate(RandomHold, 0.1, &st, true, rng)
	for i := 0; i < 50; i++ {
		if got := Generate(RandomHold, float64(i)/50, &st, false, rng); got != first {
			t.Fatalf("held value changed mid-period: %v != %v", got, first)
		}
	}
	second := Generate(RandomHold, 0.01, &st, true, rng)
	if second == first {
		t.Fatalf("expected a fresh value at the next period")
	}
}

func TestRandomSlideIsContinuousAcrossPeriods(t *testing.T) {
	rng := testRNG()
	st := State{MinimumValue, 0}
	Generate(RandomSlide, 0, &st, true, rng)
	end := Generate(RandomSlide, math.Nextafter(1, 0), &st, false, rng)
	start := Generate(RandomSlide, 0, &st, true, rng)
	if math.Abs(end-start) > 1e-9 {
		t.Fatalf("slide jumped across period boundary: %v -> %v", end, start)
	}
}

func TestWhackoVariesPerQuery(t *testing.T) {
	rng := testRNG()
	var st State
	seen := map[float64]bool{}
	for i := 0; i < 16; i++ {
		seen[Generate(Whacko, 0.5, &st, false, rng)] = true
	}
	if len(seen) < 2 {
		t.Fatalf("whacko should draw a new value per query")
	}
}

func TestWaveformNamesRoundTrip(t *testing.T) {
	for w := Waveform(0); int(w) < NumWaveforms; w++ {
		got, ok := ParseWaveform(w.String())
		if !ok || got != w {
			t.Fatalf("ParseWaveform(%q) = %v, %v", w.String(), got, ok)
		}
	}
	if got, ok := ParseWaveform("random_slide"); !ok || got != RandomSlide {
		t.Fatalf("compact name not accepted: %v %v", got, ok)
	}
	if _, ok := ParseWaveform("noise"); ok {
		t.Fatalf("unknown waveform accepted")
	}
	if s := Waveform(42).String(); s != "Waveform(42)" {
		t.Fatalf("invalid waveform string = %q", s)
	}
}
