package timing

import (
	"math"
	"testing"
)

func TestNewTimerDefaults(t *testing.T) {
	tm := New()
	if tm.BarDuration() != 2.0 {
		t.Fatalf("bar duration = %v, want 2.0", tm.BarDuration())
	}
	if tm.MeasureNumerator() != 4 {
		t.Fatalf("numerator = %d, want 4", tm.MeasureNumerator())
	}
	if tm.HasTempoInformation() {
		t.Fatalf("fresh timer should not claim tempo information")
	}
}

func TestUpdateShiftsPositionsAndReportsChange(t *testing.T) {
	tm := New()
	tm.Update(0.5, 2.0, 4)
	change := tm.Update(0.75, 1.0, 3)
	if tm.PreviousTimeInBars() != 0.5 || tm.CurrentTimeInBars() != 0.75 {
		t.Fatalf("positions = (%v, %v), want (0.5, 0.75)", tm.PreviousTimeInBars(), tm.CurrentTimeInBars())
	}
	if change.BarDurationChangeRatio != 2.0 {
		t.Fatalf("ratio = %v, want 2.0", change.BarDurationChangeRatio)
	}
	if !change.MeasureNumeratorChanged {
		t.Fatalf("expected numerator change")
	}
	if !tm.HasTempoInformation() {
		t.Fatalf("host update should set tempo information")
	}
}

func TestUpdateWithSameTempoReportsNoChange(t *testing.T) {
	tm := New()
	change := tm.Update(1, DefaultBarDuration, DefaultMeasureNumerator)
	if change.BarDurationChanged() || change.MeasureNumeratorChanged {
		t.Fatalf("unexpected change %+v", change)
	}
}

func TestAdvanceUsesDefaultTempo(t *testing.T) {
	tm := New()
	tm.Update(0, 1.0, 3)
	change := tm.Advance(48000, 48000)
	if got := tm.CurrentTimeInBars(); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("position = %v, want 0.5 bars after 1s at 120 BPM", got)
	}
	if change.BarDurationChangeRatio != 0.5 || !change.MeasureNumeratorChanged {
		t.Fatalf("change = %+v", change)
	}
	if tm.HasTempoInformation() {
		t.Fatalf("fallback path should clear tempo information")
	}
}

func TestSetPositionUpdatesPreviousFirst(t *testing.T) {
	tm := New()
	tm.Update(3, 2.0, 4)
	tm.SetPosition(1.0)
	if tm.PreviousTimeInBars() != 3 {
		t.Fatalf("previous = %v, want 3", tm.PreviousTimeInBars())
	}
	if tm.CurrentTimeInBars() != 0.5 {
		t.Fatalf("current = %v, want 0.5", tm.CurrentTimeInBars())
	}
	tm.SetPositionSamples(96000, 48000)
	if tm.CurrentTimeInBars() != 1.0 || tm.PreviousTimeInBars() != 0.5 {
		t.Fatalf("positions = (%v, %v)", tm.PreviousTimeInBars(), tm.CurrentTimeInBars())
	}
}

func TestResetKeepsTempoInformationFlag(t *testing.T) {
	tm := New()
	tm.Update(5, 1.5, 6)
	tm.Reset()
	if tm.CurrentTimeInBars() != 0 || tm.PreviousTimeInBars() != 0 {
		t.Fatalf("positions not zeroed")
	}
	if tm.BarDuration() != DefaultBarDuration || tm.MeasureNumerator() != DefaultMeasureNumerator {
		t.Fatalf("tempo not restored")
	}
	if !tm.HasTempoInformation() {
		t.Fatalf("reset must not touch tempo information flag")
	}
}

func TestPreconditionViolationsPanic(t *testing.T) {
	cases := map[string]func(*Timer){
		"negative position": func(tm *Timer) { tm.Update(-1, 2, 4) },
		"zero bar duration": func(tm *Timer) { tm.Update(0, 0, 4) },
		"nan bar duration":  func(tm *Timer) { tm.Update(0, math.NaN(), 4) },
		"zero numerator":    func(tm *Timer) { tm.Update(0, 2, 0) },
		"zero sample rate":  func(tm *Timer) { tm.Advance(10, 0) },
		"negative seek":     func(tm *Timer) { tm.SetPosition(-0.1) },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			fn(New())
		})
	}
}

func TestBarDurationFor(t *testing.T) {
	if got := BarDurationFor(120, 4); got != 2 {
		t.Fatalf("120 BPM 4/4 = %v s, want 2", got)
	}
	if got := BarDurationFor(90, 3); got != 2 {
		t.Fatalf("90 BPM 3/4 = %v s, want 2", got)
	}
}
