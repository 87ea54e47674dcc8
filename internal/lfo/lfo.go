// Package lfo implements a tempo-synchronised low-frequency oscillator
// whose period is measured in bars of a host-supplied musical timeline.
package lfo

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cbegin/tempolfo-go/internal/timing"
)

// Defaults of a freshly constructed oscillator.
const (
	DefaultWaveform    = Sine
	DefaultPhase       = 0.0
	DefaultLowerBound  = 0.0
	DefaultUpperBound  = 1.0
	DefaultSyncTypes   = Quarter
	DefaultPeriodScale = 1.0

	MinimumPhase = -0.5
	MaximumPhase = 0.5
)

// Oscillator produces one modulation value per processing block. It is
// not safe for concurrent use; parameter writes must be serialised with
// Value by the caller.
type Oscillator struct {
	clock timing.TimeSource
	rng   *rand.Rand

	enabled     bool
	waveform    Waveform
	phase       float64
	lowerBound  float64
	upperBound  float64
	syncTypes   SyncTypes
	periodScale float64
	state       State
}

// New returns an oscillator reading musical time from clock. seed feeds
// the random waveforms so renders are reproducible.
func New(clock timing.TimeSource, seed uint64) *Oscillator {
	o := &Oscillator{
		clock: clock,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	o.Reset()
	return o
}

// Reset restores every parameter default and clears generator state.
func (o *Oscillator) Reset() {
	o.enabled = false
	o.waveform = DefaultWaveform
	o.phase = DefaultPhase
	o.lowerBound = DefaultLowerBound
	o.upperBound = DefaultUpperBound
	o.syncTypes = DefaultSyncTypes
	o.periodScale = DefaultPeriodScale
	o.ResetState()
}

func (o *Oscillator) ResetState() {
	o.state = State{MinimumValue, 0}
}

func (o *Oscillator) Clock() timing.TimeSource { return o.clock }

func (o *Oscillator) Enabled() bool           { return o.enabled }
func (o *Oscillator) Waveform() Waveform      { return o.waveform }
func (o *Oscillator) Phase() float64          { return o.phase }
func (o *Oscillator) LowerBound() float64     { return o.lowerBound }
func (o *Oscillator) UpperBound() float64     { return o.upperBound }
func (o *Oscillator) SyncTypes() SyncTypes    { return o.syncTypes }
func (o *Oscillator) PeriodScale() float64    { return o.periodScale }
func (o *Oscillator) State() State            { return o.state }
func (o *Oscillator) IsFree() bool            { return o.syncTypes.IsFree() }
func (o *Oscillator) SetEnabled(enabled bool) { o.enabled = enabled }

func (o *Oscillator) SetWaveform(w Waveform) {
	if !w.Valid() {
		panic(fmt.Sprintf("lfo: invalid waveform %d", int(w)))
	}
	o.waveform = w
}

func (o *Oscillator) SetPhase(phase float64) {
	if !(phase >= MinimumPhase && phase <= MaximumPhase) {
		panic(fmt.Sprintf("lfo: phase %v outside [%v, %v]", phase, MinimumPhase, MaximumPhase))
	}
	o.phase = phase
}

// SetLowerBound sets the lower output bound and reports whether the upper
// bound had to follow it.
func (o *Oscillator) SetLowerBound(v float64) bool {
	mustBeBound(v)
	o.lowerBound = v
	if o.upperBound < v {
		o.upperBound = v
		return true
	}
	return false
}

// SetUpperBound sets the upper output bound and reports whether the lower
// bound had to follow it.
func (o *Oscillator) SetUpperBound(v float64) bool {
	mustBeBound(v)
	o.upperBound = v
	if o.lowerBound > v {
		o.lowerBound = v
		return true
	}
	return false
}

func mustBeBound(v float64) {
	if !(v >= MinimumValue && v <= MaximumValue) {
		panic(fmt.Sprintf("lfo: bound %v outside [%v, %v]", v, MinimumValue, MaximumValue))
	}
}

// PeriodScaleMinimum is the shortest period allowed under the current meter.
func (o *Oscillator) PeriodScaleMinimum() float64 {
	return PeriodScaleMinimum(o.clock.MeasureNumerator())
}

func (o *Oscillator) PeriodScaleMaximum() float64 {
	return PeriodScaleMaximum()
}

// SetPeriodScale sets the period in bars. The value must lie within the
// current limits; synced oscillators snap it to the nearest enabled
// subdivision. The applied value is returned.
func (o *Oscillator) SetPeriodScale(v float64) float64 {
	if !(v >= o.PeriodScaleMinimum() && v <= o.PeriodScaleMaximum()) {
		panic(fmt.Sprintf("lfo: period scale %v outside [%v, %v]", v, o.PeriodScaleMinimum(), o.PeriodScaleMaximum()))
	}
	o.periodScale = v
	if !o.IsFree() {
		o.resnap()
	}
	return o.periodScale
}

// SetSyncTypes replaces the sync set and re-fits the period to it.
func (o *Oscillator) SetSyncTypes(s SyncTypes) {
	if !s.Valid() {
		panic(fmt.Sprintf("lfo: invalid sync types %#x", uint8(s)))
	}
	o.syncTypes = s
	o.resnap()
}

func (o *Oscillator) resnap() {
	o.periodScale, _ = SnapSyncedPeriodScale(o.periodScale, o.syncTypes, o.clock.MeasureNumerator())
}

// UpdateForNewTimingInformation keeps a Free oscillator's absolute period
// constant across tempo changes and keeps a synced one on the grid across
// meter changes.
func (o *Oscillator) UpdateForNewTimingInformation(change timing.TimingChange) {
	if o.IsFree() {
		if change.BarDurationChanged() {
			o.periodScale = ClampFreePeriodScale(o.periodScale*change.BarDurationChangeRatio, o.clock.MeasureNumerator())
		}
		return
	}
	if change.MeasureNumeratorChanged {
		o.resnap()
	}
}

// Value returns the modulation value for the clock's current position.
// It never allocates and always lies within [LowerBound, UpperBound].
func (o *Oscillator) Value() float64 {
	period := o.periodScale
	offset := period * o.phase
	cycle := (offset + o.clock.CurrentTimeInBars()) / period
	previousCycle := (offset + o.clock.PreviousTimeInBars()) / period

	pos := cycle - math.Floor(cycle)
	// A new period began when the current time passed the end of the
	// period the previous time was in.
	newPeriod := math.Floor(cycle) > math.Floor(previousCycle)

	raw := Generate(o.waveform, pos, &o.state, newPeriod, o.rng)
	unit := (raw - MinimumValue) / (MaximumValue - MinimumValue)
	v := o.lowerBound + unit*(o.upperBound-o.lowerBound)
	return math.Min(math.Max(v, o.lowerBound), o.upperBound)
}

// PeriodForPreset returns the period as persisted: milliseconds for Free
// oscillators so the period survives tempo differences between sessions,
// bars otherwise.
func (o *Oscillator) PeriodForPreset() float64 {
	if o.IsFree() {
		return o.periodScale * o.clock.BarDuration() * 1000
	}
	return o.periodScale
}

// SetPeriodFromPreset is the inverse of PeriodForPreset. The sync types
// must already be loaded since they decide the unit. Out-of-range values
// are clamped or snapped.
func (o *Oscillator) SetPeriodFromPreset(v float64) {
	if o.IsFree() {
		v = v / 1000 / o.clock.BarDuration()
	}
	o.periodScale, _ = SnapSyncedPeriodScale(v, o.syncTypes, o.clock.MeasureNumerator())
}
