// Package config loads render and audition sessions from TOML.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cbegin/tempolfo-go/internal/lfo"
	"github.com/cbegin/tempolfo-go/internal/timing"
	"github.com/cbegin/tempolfo-go/internal/transport"
)

const (
	DefaultSampleRate   = 48000
	DefaultBlockSize    = 256
	DefaultDurationBars = 4.0
	DefaultBackend      = "ebiten"
	DefaultCarrierHz    = 220.0
	DefaultAmplitude    = 0.5
	MaximumBlockSize    = 8192
)

var ErrInvalid = errors.New("invalid session")

// Target is what an LFO modulates.
type Target int

const (
	TargetTremolo Target = iota
	TargetPan
	// TargetNone renders the curve without touching the audio.
	TargetNone
)

var targetNames = [...]string{"tremolo", "pan", "none"}

func (t Target) String() string {
	if t < 0 || int(t) >= len(targetNames) {
		return fmt.Sprintf("Target(%d)", int(t))
	}
	return targetNames[t]
}

func ParseTarget(name string) (Target, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range targetNames {
		if n == name {
			return Target(i), true
		}
	}
	return 0, false
}

// LFO is one resolved oscillator entry.
type LFO struct {
	Enabled  bool
	Waveform lfo.Waveform
	Sync     lfo.SyncTypes
	// Exactly one of PeriodBars and PeriodMilliseconds is non-zero.
	PeriodBars         float64
	PeriodMilliseconds float64
	Phase              float64
	LowerBound         float64
	UpperBound         float64
	Target             Target
	Depth              float64
	Seed               uint64
}

// Session is a validated session file with defaults filled in.
type Session struct {
	SampleRate   int
	BlockSize    int
	DurationBars float64
	Backend      string
	CarrierHz    float64
	Amplitude    float64
	Tempo        []transport.TempoChange
	Loop         transport.Loop
	LFOs         []LFO
}

type fileSession struct {
	SampleRate   int         `toml:"sample_rate"`
	BlockSize    int         `toml:"block_size"`
	DurationBars float64     `toml:"duration_bars"`
	Backend      string      `toml:"backend"`
	Carrier      fileCarrier `toml:"carrier"`
	Loop         fileLoop    `toml:"loop"`
	Tempo        []fileTempo `toml:"tempo"`
	LFOs         []fileLFO   `toml:"lfo"`
}

type fileCarrier struct {
	FrequencyHz float64  `toml:"frequency_hz"`
	Amplitude   *float64 `toml:"amplitude"`
}

type fileLoop struct {
	StartBar float64 `toml:"start_bar"`
	EndBar   float64 `toml:"end_bar"`
}

type fileTempo struct {
	AtBar     float64 `toml:"at_bar"`
	BPM       float64 `toml:"bpm"`
	Numerator uint8   `toml:"numerator"`
}

type fileLFO struct {
	Enabled    *bool    `toml:"enabled"`
	Waveform   string   `toml:"waveform"`
	Sync       *string  `toml:"sync"`
	PeriodBars float64  `toml:"period_bars"`
	PeriodMs   float64  `toml:"period_ms"`
	Phase      float64  `toml:"phase"`
	Lower      *float64 `toml:"lower"`
	Upper      *float64 `toml:"upper"`
	Target     string   `toml:"target"`
	Depth      *float64 `toml:"depth"`
	Seed       uint64   `toml:"seed"`
}

// Default is the session used when no file is given: a quarter-note sine
// tremolo over a 220 Hz tone at 120 BPM.
func Default() *Session {
	s, err := Parse(nil)
	if err != nil {
		panic(err)
	}
	return s
}

func Load(file string) (*Session, error) {
	bs, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file at %q: %w", file, err)
	}
	s, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("failed to load session from TOML file %q: %w", file, err)
	}
	return s, nil
}

// Parse decodes and validates a session. Missing values take defaults;
// a session without LFO entries gets a single default LFO.
func Parse(data []byte) (*Session, error) {
	var f fileSession
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return f.resolve()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (f *fileSession) resolve() (*Session, error) {
	s := &Session{
		SampleRate:   orInt(f.SampleRate, DefaultSampleRate),
		BlockSize:    orInt(f.BlockSize, DefaultBlockSize),
		DurationBars: orFloat(f.DurationBars, DefaultDurationBars),
		Backend:      strings.ToLower(strings.TrimSpace(f.Backend)),
		CarrierHz:    orFloat(f.Carrier.FrequencyHz, DefaultCarrierHz),
		Amplitude:    DefaultAmplitude,
		Loop:         transport.Loop{StartBar: f.Loop.StartBar, EndBar: f.Loop.EndBar},
	}
	if s.Backend == "" {
		s.Backend = DefaultBackend
	}
	if f.Carrier.Amplitude != nil {
		s.Amplitude = *f.Carrier.Amplitude
	}
	switch {
	case s.SampleRate < 0:
		return nil, invalid("sample rate %d", s.SampleRate)
	case s.BlockSize < 1 || s.BlockSize > MaximumBlockSize:
		return nil, invalid("block size %d outside [1, %d]", s.BlockSize, MaximumBlockSize)
	case !finitePositive(s.DurationBars):
		return nil, invalid("duration %v bars", s.DurationBars)
	case !finitePositive(s.CarrierHz) || s.CarrierHz >= float64(s.SampleRate)/2:
		return nil, invalid("carrier frequency %v Hz", s.CarrierHz)
	case !(s.Amplitude >= 0 && s.Amplitude <= 1):
		return nil, invalid("carrier amplitude %v outside [0, 1]", s.Amplitude)
	}

	for _, t := range f.Tempo {
		s.Tempo = append(s.Tempo, transport.TempoChange{
			AtBar:            t.AtBar,
			BeatsPerMinute:   orFloat(t.BPM, timing.DefaultBeatsPerMinute),
			MeasureNumerator: orUint8(t.Numerator, timing.DefaultMeasureNumerator),
		})
	}
	// transport validation covers the tempo map and the loop
	if _, err := transport.New(float64(s.SampleRate), s.Tempo, transport.Options{Loop: s.Loop}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if len(f.LFOs) == 0 {
		f.LFOs = []fileLFO{{}}
	}
	for i, fl := range f.LFOs {
		l, err := fl.resolve()
		if err != nil {
			return nil, fmt.Errorf("lfo %d: %w", i, err)
		}
		if l.Seed == 0 {
			l.Seed = uint64(i + 1)
		}
		s.LFOs = append(s.LFOs, l)
	}
	return s, nil
}

func (f fileLFO) resolve() (LFO, error) {
	l := LFO{
		Enabled:    true,
		Waveform:   lfo.DefaultWaveform,
		Sync:       lfo.DefaultSyncTypes,
		Phase:      f.Phase,
		LowerBound: lfo.DefaultLowerBound,
		UpperBound: lfo.DefaultUpperBound,
		Depth:      1,
		Seed:       f.Seed,
	}
	if f.Enabled != nil {
		l.Enabled = *f.Enabled
	}
	if f.Waveform != "" {
		w, ok := lfo.ParseWaveform(f.Waveform)
		if !ok {
			return LFO{}, invalid("unknown waveform %q", f.Waveform)
		}
		l.Waveform = w
	}
	if f.Sync != nil {
		s, ok := lfo.ParseSyncTypes(*f.Sync)
		if !ok {
			return LFO{}, invalid("unknown sync types %q", *f.Sync)
		}
		l.Sync = s
	}
	switch {
	case f.PeriodBars != 0 && f.PeriodMs != 0:
		return LFO{}, invalid("period_bars and period_ms are mutually exclusive")
	case f.PeriodMs != 0:
		if !l.Sync.IsFree() {
			return LFO{}, invalid("period_ms requires free sync, have %s", l.Sync)
		}
		if !finitePositive(f.PeriodMs) {
			return LFO{}, invalid("period %v ms", f.PeriodMs)
		}
		l.PeriodMilliseconds = f.PeriodMs
	case f.PeriodBars != 0:
		if !finitePositive(f.PeriodBars) {
			return LFO{}, invalid("period %v bars", f.PeriodBars)
		}
		l.PeriodBars = f.PeriodBars
	default:
		l.PeriodBars = lfo.DefaultPeriodScale
	}
	if !(l.Phase >= lfo.MinimumPhase && l.Phase <= lfo.MaximumPhase) {
		return LFO{}, invalid("phase %v outside [%v, %v]", l.Phase, lfo.MinimumPhase, lfo.MaximumPhase)
	}
	if f.Lower != nil {
		l.LowerBound = *f.Lower
	}
	if f.Upper != nil {
		l.UpperBound = *f.Upper
	}
	for _, b := range []float64{l.LowerBound, l.UpperBound} {
		if !(b >= lfo.MinimumValue && b <= lfo.MaximumValue) {
			return LFO{}, invalid("bound %v outside [%v, %v]", b, lfo.MinimumValue, lfo.MaximumValue)
		}
	}
	if l.LowerBound > l.UpperBound {
		return LFO{}, invalid("lower bound %v above upper bound %v", l.LowerBound, l.UpperBound)
	}
	if f.Target != "" {
		t, ok := ParseTarget(f.Target)
		if !ok {
			return LFO{}, invalid("unknown target %q", f.Target)
		}
		l.Target = t
	}
	if f.Depth != nil {
		l.Depth = *f.Depth
	}
	if !(l.Depth >= 0 && l.Depth <= 1) {
		return LFO{}, invalid("depth %v outside [0, 1]", l.Depth)
	}
	return l, nil
}

func finitePositive(v float64) bool { return v > 0 && !math.IsInf(v, 1) }

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orUint8(v, def uint8) uint8 {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
