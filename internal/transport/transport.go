// Package transport simulates a host timeline: a tempo map with meter
// changes and optional loop points, reported once per audio block the way
// a DAW reports bar position, bar duration and meter numerator.
package transport

import (
	"fmt"
	"math"
	"slices"

	"github.com/cbegin/tempolfo-go/internal/timing"
)

// TempoChange takes effect at AtBar and lasts until the next change.
type TempoChange struct {
	AtBar            float64
	BeatsPerMinute   float64
	MeasureNumerator uint8
}

func (c TempoChange) barDuration() float64 {
	return timing.BarDurationFor(c.BeatsPerMinute, c.MeasureNumerator)
}

// Loop wraps playback from EndBar back to StartBar. A zero Loop disables
// looping.
type Loop struct {
	StartBar, EndBar float64
}

func (l Loop) Enabled() bool { return l.EndBar > l.StartBar }

// EventKind identifies transport events.
type EventKind int

const (
	EventLoopWrapped EventKind = iota
	EventTempoChanged
)

type Options struct {
	Loop    Loop
	OnEvent func(EventKind)
}

// Block is what the host reports at the start of an audio block.
type Block struct {
	PositionInBars   float64
	BarDuration      float64
	MeasureNumerator uint8
}

type Transport struct {
	sampleRate float64
	changes    []TempoChange
	loop       Loop
	onEvent    func(EventKind)

	position float64
	segment  int
}

// New validates the tempo map. Without a change at bar 0 the timeline
// starts at the default 120 BPM in 4/4.
func New(sampleRate float64, changes []TempoChange, opts Options) (*Transport, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("transport: sample rate must be positive, got %v", sampleRate)
	}
	sorted := slices.Clone(changes)
	slices.SortStableFunc(sorted, func(a, b TempoChange) int {
		switch {
		case a.AtBar < b.AtBar:
			return -1
		case a.AtBar > b.AtBar:
			return 1
		}
		return 0
	})
	for i, c := range sorted {
		if !(c.AtBar >= 0) || math.IsInf(c.AtBar, 0) {
			return nil, fmt.Errorf("transport: tempo change %d at invalid bar %v", i, c.AtBar)
		}
		if !(c.BeatsPerMinute > 0) || math.IsInf(c.BeatsPerMinute, 0) {
			return nil, fmt.Errorf("transport: tempo change %d has invalid tempo %v BPM", i, c.BeatsPerMinute)
		}
		if c.MeasureNumerator == 0 {
			return nil, fmt.Errorf("transport: tempo change %d has zero meter numerator", i)
		}
	}
	if len(sorted) == 0 || sorted[0].AtBar > 0 {
		sorted = append([]TempoChange{{
			BeatsPerMinute:   timing.DefaultBeatsPerMinute,
			MeasureNumerator: timing.DefaultMeasureNumerator,
		}}, sorted...)
	}
	if opts.Loop != (Loop{}) && (!opts.Loop.Enabled() || opts.Loop.StartBar < 0) {
		return nil, fmt.Errorf("transport: invalid loop [%v, %v)", opts.Loop.StartBar, opts.Loop.EndBar)
	}
	return &Transport{
		sampleRate: sampleRate,
		changes:    sorted,
		loop:       opts.Loop,
		onEvent:    opts.OnEvent,
	}, nil
}

func (t *Transport) SampleRate() float64 { return t.sampleRate }
func (t *Transport) Position() float64   { return t.position }

// Current reports the host state at the current position.
func (t *Transport) Current() Block {
	c := t.changes[t.segment]
	return Block{
		PositionInBars:   t.position,
		BarDuration:      c.barDuration(),
		MeasureNumerator: c.MeasureNumerator,
	}
}

// Next reports the state at the start of a block of frames and advances
// past it.
func (t *Transport) Next(frames int) Block {
	b := t.Current()
	t.advance(float64(frames) / t.sampleRate)
	return b
}

// Seek jumps to bar.
func (t *Transport) Seek(bar float64) {
	if !(bar >= 0) {
		bar = 0
	}
	t.position = bar
	t.locate()
}

func (t *Transport) advance(seconds float64) {
	for seconds > 0 {
		c := t.changes[t.segment]
		barDuration := c.barDuration()
		limit := math.Inf(1)
		if t.segment+1 < len(t.changes) {
			limit = t.changes[t.segment+1].AtBar
		}
		wraps := t.loop.Enabled() && t.position < t.loop.EndBar && t.loop.EndBar <= limit
		if wraps {
			limit = t.loop.EndBar
		}
		need := (limit - t.position) * barDuration
		if seconds < need {
			t.position += seconds / barDuration
			return
		}
		seconds -= need
		if wraps {
			t.position = t.loop.StartBar
			t.locate()
			t.emit(EventLoopWrapped)
			continue
		}
		t.position = limit
		t.segment++
		t.emit(EventTempoChanged)
	}
}

func (t *Transport) locate() {
	t.segment = 0
	for i, c := range t.changes {
		if c.AtBar <= t.position {
			t.segment = i
		}
	}
}

func (t *Transport) emit(kind EventKind) {
	if t.onEvent != nil {
		t.onEvent(kind)
	}
}
