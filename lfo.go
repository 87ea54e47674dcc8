package tempolfo

import (
	"fmt"

	"github.com/cbegin/tempolfo-go/internal/lfo"
	"github.com/cbegin/tempolfo-go/internal/param"
	"github.com/cbegin/tempolfo-go/internal/preset"
	"github.com/cbegin/tempolfo-go/internal/timing"
)

type (
	Timer        = timing.Timer
	TimingChange = timing.TimingChange
	Waveform     = lfo.Waveform
	SyncTypes    = lfo.SyncTypes
)

const (
	Sine            = lfo.Sine
	Triangle        = lfo.Triangle
	Sawtooth        = lfo.Sawtooth
	ReverseSawtooth = lfo.ReverseSawtooth
	Square          = lfo.Square
	Exponent        = lfo.Exponent
	RandomHold      = lfo.RandomHold
	RandomSlide     = lfo.RandomSlide
	Whacko          = lfo.Whacko
	Dirac           = lfo.Dirac
	ReverseDirac    = lfo.ReverseDirac

	Free    = lfo.Free
	Quarter = lfo.Quarter
	Triplet = lfo.Triplet
	Dotted  = lfo.Dotted
)

func NewTimer() *Timer { return timing.New() }

// WaveformNames lists display names indexed by Waveform.
func WaveformNames() []string { return lfo.WaveformNames[:] }

// ParseWaveform resolves a display name such as "Random hold".
func ParseWaveform(name string) (Waveform, bool) { return lfo.ParseWaveform(name) }

// LFO is the bounds-checked public face of one oscillator. Setters panic
// on out-of-range input; the period self-corrects to the sync grid.
type LFO struct {
	osc   *lfo.Oscillator
	timer *Timer
}

// NewLFO returns an LFO clocked by timer. LFOs sharing a timer stay
// phase-locked.
func NewLFO(timer *Timer, seed uint64) *LFO {
	if timer == nil {
		panic("tempolfo: nil timer")
	}
	return &LFO{osc: lfo.New(timer, seed), timer: timer}
}

func (l *LFO) Timer() *Timer { return l.timer }

func (l *LFO) Enabled() bool           { return l.osc.Enabled() }
func (l *LFO) SetEnabled(enabled bool) { l.osc.SetEnabled(enabled) }
func (l *LFO) Waveform() Waveform      { return l.osc.Waveform() }
func (l *LFO) SetWaveform(w Waveform)  { l.osc.SetWaveform(w) }
func (l *LFO) Phase() float64          { return l.osc.Phase() }
func (l *LFO) LowerBound() float64     { return l.osc.LowerBound() }
func (l *LFO) UpperBound() float64     { return l.osc.UpperBound() }
func (l *LFO) SyncTypes() SyncTypes    { return l.osc.SyncTypes() }
func (l *LFO) IsFree() bool            { return l.osc.IsFree() }
func (l *LFO) PeriodScale() float64    { return l.osc.PeriodScale() }

// SetPhase offsets the oscillator by a fraction of its period in
// [-0.5, 0.5]. Negative values lead, positive values lag.
func (l *LFO) SetPhase(phase float64) {
	if !(phase >= lfo.MinimumPhase && phase <= lfo.MaximumPhase) {
		panic(fmt.Sprintf("tempolfo: phase %v outside [%v, %v]", phase, lfo.MinimumPhase, lfo.MaximumPhase))
	}
	l.osc.SetPhase(phase)
}

// SetLowerBound reports whether the upper bound had to follow.
func (l *LFO) SetLowerBound(v float64) bool { return l.osc.SetLowerBound(v) }

// SetUpperBound reports whether the lower bound had to follow.
func (l *LFO) SetUpperBound(v float64) bool { return l.osc.SetUpperBound(v) }

func (l *LFO) SetSyncTypes(s SyncTypes) { l.osc.SetSyncTypes(s) }

// AddSyncType enables one sync type and re-fits the period.
func (l *LFO) AddSyncType(t SyncTypes) {
	mustBeSingleSyncType(t)
	l.osc.SetSyncTypes(l.osc.SyncTypes().With(t))
}

// RemoveSyncType disables one sync type and re-fits the period. Removing
// the last one switches to Free mode.
func (l *LFO) RemoveSyncType(t SyncTypes) {
	mustBeSingleSyncType(t)
	l.osc.SetSyncTypes(l.osc.SyncTypes().Without(t))
}

func mustBeSingleSyncType(t SyncTypes) {
	switch t {
	case lfo.Quarter, lfo.Triplet, lfo.Dotted:
		return
	}
	panic(fmt.Sprintf("tempolfo: %s is not a single sync type", t))
}

func (l *LFO) PeriodScaleMinimum() float64 { return l.osc.PeriodScaleMinimum() }
func (l *LFO) PeriodScaleMaximum() float64 { return l.osc.PeriodScaleMaximum() }

// SetPeriodScale sets the period in bars and returns the applied value.
func (l *LFO) SetPeriodScale(bars float64) float64 { return l.osc.SetPeriodScale(bars) }

func (l *LFO) PeriodInSeconds() float64 {
	return l.osc.PeriodScale() * l.timer.BasePeriod()
}

// SetPeriodInSeconds converts through the current bar duration. The
// result must lie within the period limits.
func (l *LFO) SetPeriodInSeconds(seconds float64) float64 {
	return l.osc.SetPeriodScale(seconds / l.timer.BasePeriod())
}

func (l *LFO) PeriodInMilliseconds() float64 {
	return l.PeriodInSeconds() * 1000
}

func (l *LFO) SetPeriodInMilliseconds(ms float64) float64 {
	return l.SetPeriodInSeconds(ms / 1000)
}

// Value is the modulation value for the timer's current block.
func (l *LFO) Value() float64 { return l.osc.Value() }

func (l *LFO) UpdateForNewTimingInformation(change TimingChange) {
	l.osc.UpdateForNewTimingInformation(change)
}

// Reset restores every parameter and the generator state to defaults.
func (l *LFO) Reset() { l.osc.Reset() }

// ResetState clears the random generators' memory only.
func (l *LFO) ResetState() { l.osc.ResetState() }

// MarshalPreset writes lfos as a named preset document.
func MarshalPreset(name string, lfos ...*LFO) ([]byte, error) {
	return preset.Marshal(name, oscillators(lfos))
}

// UnmarshalPreset loads a preset document into lfos in order and returns
// its name. LFOs without a stored element are reset.
func UnmarshalPreset(data []byte, lfos ...*LFO) (string, error) {
	return preset.Unmarshal(data, oscillators(lfos))
}

func oscillators(lfos []*LFO) []*lfo.Oscillator {
	out := make([]*lfo.Oscillator, len(lfos))
	for i, l := range lfos {
		out[i] = l.osc
	}
	return out
}

// ParamID identifies an automatable LFO parameter.
type ParamID int

const (
	ParamEnabled ParamID = iota
	ParamPeriod
	ParamPhase
	ParamLowerBound
	ParamUpperBound
	ParamSyncTypes
	ParamWaveform
	NumParams
)

// periodMiddle anchors the centre of the period knob at one bar.
const periodMiddle = 1.0

// Descriptor describes id under the current meter.
func (l *LFO) Descriptor(id ParamID) *param.Descriptor {
	switch id {
	case ParamEnabled:
		return &param.Descriptor{Name: "Enabled", Key: preset.KeyEnabled, Mapping: param.Toggle}
	case ParamPeriod:
		lo, hi := l.PeriodScaleMinimum(), l.PeriodScaleMaximum()
		return &param.Descriptor{
			Name:    "Period",
			Key:     preset.KeyPeriod,
			Unit:    "bars",
			Default: lfo.DefaultPeriodScale,
			Mapping: param.NewLinearised(lo, hi, periodMiddle),
		}
	case ParamPhase:
		return &param.Descriptor{
			Name:    "Phase",
			Key:     preset.KeyPhase,
			Mapping: param.LinearRange{Min: lfo.MinimumPhase, Max: lfo.MaximumPhase},
		}
	case ParamLowerBound:
		return &param.Descriptor{
			Name:    "Lower bound",
			Key:     preset.KeyLowerBound,
			Default: lfo.DefaultLowerBound,
			Mapping: param.LinearRange{Min: lfo.MinimumValue, Max: lfo.MaximumValue},
		}
	case ParamUpperBound:
		return &param.Descriptor{
			Name:    "Upper bound",
			Key:     preset.KeyUpperBound,
			Default: lfo.DefaultUpperBound,
			Mapping: param.LinearRange{Min: lfo.MinimumValue, Max: lfo.MaximumValue},
		}
	case ParamSyncTypes:
		d := &param.Descriptor{
			Name:    "Sync",
			Key:     preset.KeySyncTypes,
			Default: float64(lfo.DefaultSyncTypes),
			Mapping: param.Enumerated{Count: int(lfo.AllSyncs) + 1},
		}
		d.SetFormatter(func(v float64) string { return SyncTypes(v).String() }, parseSyncTypes)
		return d
	case ParamWaveform:
		d := &param.Descriptor{
			Name:    "Waveform",
			Key:     preset.KeyWaveform,
			Default: float64(lfo.DefaultWaveform),
			Mapping: param.Enumerated{Count: lfo.NumWaveforms},
		}
		d.SetFormatter(func(v float64) string { return Waveform(v).String() }, parseWaveform)
		return d
	}
	panic(fmt.Sprintf("tempolfo: unknown parameter %d", int(id)))
}

func parseSyncTypes(s string) (float64, error) {
	t, ok := lfo.ParseSyncTypes(s)
	if !ok {
		return 0, fmt.Errorf("unknown sync types %q", s)
	}
	return float64(t), nil
}

func parseWaveform(s string) (float64, error) {
	w, ok := lfo.ParseWaveform(s)
	if !ok {
		return 0, fmt.Errorf("unknown waveform %q", s)
	}
	return float64(w), nil
}

// plain returns the parameter in natural units.
func (l *LFO) plain(id ParamID) float64 {
	switch id {
	case ParamEnabled:
		if l.Enabled() {
			return 1
		}
		return 0
	case ParamPeriod:
		return l.PeriodScale()
	case ParamPhase:
		return l.Phase()
	case ParamLowerBound:
		return l.LowerBound()
	case ParamUpperBound:
		return l.UpperBound()
	case ParamSyncTypes:
		return float64(l.SyncTypes())
	case ParamWaveform:
		return float64(l.Waveform())
	}
	panic(fmt.Sprintf("tempolfo: unknown parameter %d", int(id)))
}

// Normalized returns the automation value of id in [0, 1].
func (l *LFO) Normalized(id ParamID) float64 {
	return l.Descriptor(id).Convert(l.plain(id), param.Linear, param.Internal)
}

// SetNormalized applies an automation value in [0, 1].
func (l *LFO) SetNormalized(id ParamID, v float64) {
	plain := l.Descriptor(id).Convert(v, param.Internal, param.Linear)
	switch id {
	case ParamEnabled:
		l.SetEnabled(plain >= 0.5)
	case ParamPeriod:
		l.SetPeriodScale(min(max(plain, l.PeriodScaleMinimum()), l.PeriodScaleMaximum()))
	case ParamPhase:
		l.SetPhase(plain)
	case ParamLowerBound:
		l.SetLowerBound(plain)
	case ParamUpperBound:
		l.SetUpperBound(plain)
	case ParamSyncTypes:
		l.SetSyncTypes(SyncTypes(plain))
	case ParamWaveform:
		l.SetWaveform(Waveform(plain))
	default:
		panic(fmt.Sprintf("tempolfo: unknown parameter %d", int(id)))
	}
}

// FormatParam renders the current value of id for display.
func (l *LFO) FormatParam(id ParamID) string {
	return l.Descriptor(id).FormatValue(l.plain(id))
}
