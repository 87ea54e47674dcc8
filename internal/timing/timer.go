package timing

import (
	"fmt"
	"math"
)

// Defaults used when the host supplies no tempo: 120 BPM in 4/4.
const (
	DefaultBeatsPerMinute   = 120.0
	DefaultMeasureNumerator = 4
	DefaultBarDuration      = DefaultMeasureNumerator * 60.0 / DefaultBeatsPerMinute
)

// TimeSource is the read side of a Timer as seen by oscillators.
type TimeSource interface {
	CurrentTimeInBars() float64
	PreviousTimeInBars() float64
	BarDuration() float64
	MeasureNumerator() uint8
}

// TimingChange describes how tempo and meter moved during an update.
type TimingChange struct {
	// BarDurationChangeRatio is old bar duration / new bar duration.
	BarDurationChangeRatio  float64
	MeasureNumeratorChanged bool
}

// BarDurationChanged reports whether the tempo moved.
func (c TimingChange) BarDurationChanged() bool {
	return c.BarDurationChangeRatio != 1
}

// Timer tracks the musical position in bars together with the current
// tempo and meter. One Timer may be shared by every oscillator of a
// processing chain; it must be updated once per block before any of them
// is queried.
type Timer struct {
	currentTimeInBars   float64
	previousTimeInBars  float64
	barDuration         float64
	measureNumerator    uint8
	hasTempoInformation bool
}

func New() *Timer {
	return &Timer{
		barDuration:      DefaultBarDuration,
		measureNumerator: DefaultMeasureNumerator,
	}
}

func (t *Timer) CurrentTimeInBars() float64  { return t.currentTimeInBars }
func (t *Timer) PreviousTimeInBars() float64 { return t.previousTimeInBars }
func (t *Timer) BarDuration() float64        { return t.barDuration }
func (t *Timer) MeasureNumerator() uint8     { return t.measureNumerator }
func (t *Timer) HasTempoInformation() bool   { return t.hasTempoInformation }

// BasePeriod is the length of one bar in seconds.
func (t *Timer) BasePeriod() float64 { return t.barDuration }

// Update applies host-supplied position and tempo.
func (t *Timer) Update(positionInBars, barDuration float64, measureNumerator uint8) TimingChange {
	mustBePosition(positionInBars)
	mustBeBarDuration(barDuration)
	if measureNumerator == 0 {
		panic("timing: measure numerator must be positive")
	}
	change := t.setTempo(barDuration, measureNumerator)
	t.move(positionInBars)
	t.hasTempoInformation = true
	return change
}

// Advance moves the position by deltaSamples assuming the default tempo.
// It is the fallback for hosts that report no tempo.
func (t *Timer) Advance(deltaSamples int, sampleRate float64) TimingChange {
	if deltaSamples < 0 {
		panic(fmt.Sprintf("timing: negative sample delta %d", deltaSamples))
	}
	mustBeSampleRate(sampleRate)
	change := t.setTempo(DefaultBarDuration, DefaultMeasureNumerator)
	t.move(t.currentTimeInBars + float64(deltaSamples)/sampleRate/t.barDuration)
	t.hasTempoInformation = false
	return change
}

// SetPosition repositions the timer, e.g. after a transport seek.
func (t *Timer) SetPosition(seconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		panic(fmt.Sprintf("timing: invalid position %v s", seconds))
	}
	t.move(seconds / t.barDuration)
}

func (t *Timer) SetPositionSamples(samples int64, sampleRate float64) {
	if samples < 0 {
		panic(fmt.Sprintf("timing: negative sample position %d", samples))
	}
	mustBeSampleRate(sampleRate)
	t.SetPosition(float64(samples) / sampleRate)
}

// Reset rewinds to bar zero and restores the default tempo. Whether the
// host supplies tempo is left as is.
func (t *Timer) Reset() {
	t.currentTimeInBars = 0
	t.previousTimeInBars = 0
	t.barDuration = DefaultBarDuration
	t.measureNumerator = DefaultMeasureNumerator
}

// move keeps previous one step behind current; period boundary detection
// relies on the pair.
func (t *Timer) move(positionInBars float64) {
	t.previousTimeInBars = t.currentTimeInBars
	t.currentTimeInBars = positionInBars
}

func (t *Timer) setTempo(barDuration float64, measureNumerator uint8) TimingChange {
	change := TimingChange{
		BarDurationChangeRatio:  t.barDuration / barDuration,
		MeasureNumeratorChanged: t.measureNumerator != measureNumerator,
	}
	t.barDuration = barDuration
	t.measureNumerator = measureNumerator
	return change
}

func mustBePosition(bars float64) {
	if math.IsNaN(bars) || math.IsInf(bars, 0) || bars < 0 {
		panic(fmt.Sprintf("timing: invalid position %v bars", bars))
	}
}

func mustBeBarDuration(seconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		panic(fmt.Sprintf("timing: invalid bar duration %v s", seconds))
	}
}

func mustBeSampleRate(rate float64) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		panic(fmt.Sprintf("timing: invalid sample rate %v", rate))
	}
}

// BarDurationFor returns the bar length in seconds for a tempo in quarter
// notes per minute and a meter numerator.
func BarDurationFor(beatsPerMinute float64, measureNumerator uint8) float64 {
	return float64(measureNumerator) * 60 / beatsPerMinute
}
