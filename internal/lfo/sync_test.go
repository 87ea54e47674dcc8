package lfo

import (
	"math"
	"testing"
)

func TestQuarterSnapPicksNearestBeat(t *testing.T) {
	got, kind := SnapSyncedPeriodScale(0.37, Quarter, 4)
	if got != 0.25 || kind != Quarter {
		t.Fatalf("snap(0.37) = %v (%s), want 0.25 (Quarter)", got, kind)
	}
}

func TestSnapCases(t *testing.T) {
	cases := []struct {
		name      string
		in        float64
		sync      SyncTypes
		numerator uint8
		want      float64
		kind      SyncTypes
	}{
		{"half bar", 0.55, Quarter, 4, 0.5, Quarter},
		{"whole bar", 0.9, Quarter, 4, 1, Quarter},
		{"three beats is not a divisor of 4", 0.74, Quarter, 4, 0.5, Quarter},
		{"three beats divides 6", 0.5, Quarter, 6, 0.5, Quarter},
		{"power of two bars", 3.2, Quarter, 4, 4, Quarter},
		{"bars clamp to max", 100, Quarter, 4, MaximumPeriodInBars, Quarter},
		{"eighth note", 0.13, Quarter, 4, 0.125, Quarter},
		{"shortest subdivision", 0.0001, Quarter, 4, 1.0 / 32, Quarter},
		{"triplet quarter", 1.0 / 6, Triplet, 4, 1.0 / 6, Triplet},
		{"dotted quarter", 0.375, Dotted, 4, 0.375, Dotted},
		{"closest type wins", 0.375, AllSyncs, 4, 0.375, Dotted},
		{"free clamps high", 1000, Free, 4, PeriodScaleMaximum(), Free},
		{"free clamps low", 0, Free, 4, PeriodScaleMinimum(4), Free},
		{"free passes through", 0.7, Free, 4, 0.7, Free},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, kind := SnapSyncedPeriodScale(tc.in, tc.sync, tc.numerator)
			if math.Abs(got-tc.want) > 1e-12 || kind != tc.kind {
				t.Fatalf("snap(%v, %s, %d) = %v (%s), want %v (%s)", tc.in, tc.sync, tc.numerator, got, kind, tc.want, tc.kind)
			}
		})
	}
}

func TestDivisorTieResolvesToSmaller(t *testing.T) {
	// 1.5 beats in 4/4 is equidistant from 1 and 2.
	if got := closestDivisor(1.5, 4); got != 1 {
		t.Fatalf("closestDivisor(1.5, 4) = %v, want 1", got)
	}
	// 3 beats in 4/4 is equidistant from 2 and 4.
	if got := closestDivisor(3, 4); got != 2 {
		t.Fatalf("closestDivisor(3, 4) = %v, want 2", got)
	}
}

func TestSnapIsIdempotent(t *testing.T) {
	syncs := []SyncTypes{Quarter, Triplet, Dotted, Quarter | Triplet, Quarter | Dotted, Triplet | Dotted, AllSyncs}
	for _, numerator := range []uint8{2, 3, 4, 5, 6, 7, 12} {
		for _, s := range syncs {
			for p := PeriodScaleMinimum(numerator); p <= PeriodScaleMaximum(); p *= 1.07 {
				once, _ := SnapSyncedPeriodScale(p, s, numerator)
				twice, _ := SnapSyncedPeriodScale(once, s, numerator)
				if math.Abs(once-twice) > 1e-9 {
					t.Fatalf("snap not idempotent for %v %s %d/4: %v -> %v", p, s, numerator, once, twice)
				}
				if once < PeriodScaleMinimum(numerator)-1e-12 || once > PeriodScaleMaximum()+1e-12 {
					t.Fatalf("snapped %v outside limits", once)
				}
			}
		}
	}
}

func TestClampFreeIsIdempotent(t *testing.T) {
	for _, x := range []float64{-5, 0, 1e-6, 0.02, 0.5, 3, 23.9, 24, 1e9, math.Inf(1), math.Inf(-1), math.NaN()} {
		once := ClampFreePeriodScale(x, 4)
		if twice := ClampFreePeriodScale(once, 4); twice != once {
			t.Fatalf("clamp(clamp(%v)) = %v, want %v", x, twice, once)
		}
	}
}

func TestPeriodLimits(t *testing.T) {
	if got := PeriodScaleMaximum(); got != 24 {
		t.Fatalf("maximum = %v, want 24 bars", got)
	}
	if got, want := PeriodScaleMinimum(4), (2.0/3.0)/32; math.Abs(got-want) > 1e-15 {
		t.Fatalf("minimum = %v, want %v", got, want)
	}
}

func TestSyncTypesStringAndParse(t *testing.T) {
	for s := SyncTypes(0); s <= AllSyncs; s++ {
		got, ok := ParseSyncTypes(s.String())
		if !ok || got != s {
			t.Fatalf("ParseSyncTypes(%q) = %v, %v; want %v", s.String(), got, ok, s)
		}
	}
	if _, ok := ParseSyncTypes("swing"); ok {
		t.Fatalf("unknown sync type accepted")
	}
	if AllSyncs.With(8).Valid() {
		t.Fatalf("unknown bit should be invalid")
	}
}
