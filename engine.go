package tempolfo

import (
	"fmt"

	"github.com/cbegin/tempolfo-go/internal/config"
	intfx "github.com/cbegin/tempolfo-go/internal/effects"
	"github.com/cbegin/tempolfo-go/internal/transport"
)

// engine runs one block at a time: transport, timer, LFOs, then the
// carrier and its modulators.
type engine struct {
	sampleRate int
	blockSize  int
	transport  *transport.Transport
	timer      *Timer
	lfos       []*LFO
	targets    []config.Target
	tone       *intfx.Tone
	chain      *intfx.Chain
	// stages maps chain stage to LFO index
	stages   []int
	controls []float64
	values   []float64
	l, r     []float64
}

func newEngine(s *config.Session, onEvent func(transport.EventKind)) (*engine, error) {
	tr, err := transport.New(float64(s.SampleRate), s.Tempo, transport.Options{Loop: s.Loop, OnEvent: onEvent})
	if err != nil {
		return nil, err
	}
	timer := NewTimer()
	start := tr.Current()
	timer.Update(start.PositionInBars, start.BarDuration, start.MeasureNumerator)

	e := &engine{
		sampleRate: s.SampleRate,
		blockSize:  s.BlockSize,
		transport:  tr,
		timer:      timer,
		tone:       intfx.NewTone(s.SampleRate, s.CarrierHz, s.Amplitude),
		chain:      intfx.NewChain(),
		values:     make([]float64, len(s.LFOs)),
		l:          make([]float64, s.BlockSize),
		r:          make([]float64, s.BlockSize),
	}
	for i, c := range s.LFOs {
		l := NewLFO(timer, c.Seed)
		if err := l.configure(c); err != nil {
			return nil, fmt.Errorf("lfo %d: %w", i, err)
		}
		e.lfos = append(e.lfos, l)
		e.targets = append(e.targets, c.Target)
		switch c.Target {
		case config.TargetTremolo:
			e.chain.Add(intfx.NewTremolo(c.Depth))
		case config.TargetPan:
			e.chain.Add(intfx.NewAutoPan(c.Depth))
		default:
			continue
		}
		e.stages = append(e.stages, i)
	}
	e.controls = make([]float64, len(e.stages))
	return e, nil
}

// configure applies a session entry. The period is clamped into range
// since a millisecond period depends on the tempo at load time.
func (l *LFO) configure(c config.LFO) error {
	if !c.Waveform.Valid() || !c.Sync.Valid() {
		return fmt.Errorf("invalid waveform %d or sync types %d", c.Waveform, c.Sync)
	}
	l.SetEnabled(c.Enabled)
	l.SetWaveform(c.Waveform)
	l.SetPhase(c.Phase)
	l.SetLowerBound(c.LowerBound)
	l.SetUpperBound(c.UpperBound)
	l.SetSyncTypes(c.Sync)
	bars := c.PeriodBars
	if c.PeriodMilliseconds > 0 {
		bars = c.PeriodMilliseconds / 1000 / l.timer.BasePeriod()
	}
	l.SetPeriodScale(min(max(bars, l.PeriodScaleMinimum()), l.PeriodScaleMaximum()))
	return nil
}

// neutral is the control value that leaves a target untouched.
func neutral(t config.Target) float64 {
	if t == config.TargetPan {
		return 0.5
	}
	return 1
}

// process renders len(dst)/2 frames of interleaved stereo, at most one
// block.
func (e *engine) process(dst []float32) {
	frames := len(dst) / 2
	if frames > e.blockSize {
		panic(fmt.Sprintf("tempolfo: %d frames exceed block size %d", frames, e.blockSize))
	}
	b := e.transport.Next(frames)
	change := e.timer.Update(b.PositionInBars, b.BarDuration, b.MeasureNumerator)
	timingChanged := change.BarDurationChanged() || change.MeasureNumeratorChanged
	for i, l := range e.lfos {
		if timingChanged {
			l.UpdateForNewTimingInformation(change)
		}
		if l.Enabled() {
			e.values[i] = l.Value()
		} else {
			e.values[i] = neutral(e.targets[i])
		}
	}
	for s, i := range e.stages {
		e.controls[s] = e.values[i]
	}

	l, r := e.l[:frames], e.r[:frames]
	e.tone.Fill(l, r)
	e.chain.ProcessBlock(l, r, e.controls)
	for i := range frames {
		dst[2*i] = float32(l[i])
		dst[2*i+1] = float32(r[i])
	}
}

func (e *engine) reset() {
	e.transport.Seek(0)
	start := e.transport.Current()
	change := e.timer.Update(start.PositionInBars, start.BarDuration, start.MeasureNumerator)
	for _, l := range e.lfos {
		l.UpdateForNewTimingInformation(change)
		l.ResetState()
	}
	e.tone.Reset()
	e.chain.Reset()
}
