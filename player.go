package tempolfo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	log "github.com/golang/glog"

	intaudio "github.com/cbegin/tempolfo-go/internal/audio"
	"github.com/cbegin/tempolfo-go/internal/config"
	"github.com/cbegin/tempolfo-go/internal/transport"
)

// PlaybackEvent carries transport and playback events from Watch().
type PlaybackEvent struct {
	Kind int // EventLoopCompleted, EventTempoChanged, or EventPlaybackEnded
	// Bar is the timeline position when the event was raised.
	Bar float64
}

const (
	EventLoopCompleted int = iota
	EventTempoChanged
	EventPlaybackEnded
)

// editQueueSize bounds pending parameter edits between audio blocks.
const editQueueSize = 64

var ErrEditQueueFull = errors.New("tempolfo: edit queue full")

type PlayerOption func(*playerConfig)

type playerConfig struct {
	backend      string
	loopPlayback bool
	sampleTap    func([]float32)
	valueTap     func([]float64)
}

// WithBackend selects the audio output, "ebiten" or "portaudio". It
// overrides the session's backend.
func WithBackend(name string) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = name
	}
}

// WithLoopPlayback keeps playing past the session duration until Stop.
func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopPlayback = enabled
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithValueTap installs a callback invoked once per block with every
// LFO's current value. It runs on the audio thread.
func WithValueTap(tap func([]float64)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.valueTap = tap
	}
}

// Player auditions a session in real time. Parameter edits are queued
// and applied by the audio thread between blocks, so the oscillators are
// only ever touched by one goroutine at a time.
type Player struct {
	mu        sync.Mutex
	session   *config.Session
	cfg       playerConfig
	engine    *engine
	source    *playerSource
	audio     intaudio.Output
	edits     chan func([]*LFO)
	playback  *playback
	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

// playback is closed once when a Play ends, by reaching the session
// duration or by Stop.
type playback struct {
	done chan struct{}
	once sync.Once
}

func (pb *playback) finish() { pb.once.Do(func() { close(pb.done) }) }

// playerSource feeds the engine to the audio output in block-sized
// chunks and applies queued edits before each buffer.
type playerSource struct {
	engine    *engine
	edits     <-chan func([]*LFO)
	limit     float64
	travelled float64
	finished  atomic.Bool
	onEnd     func()
	sampleTap func([]float32)
	valueTap  func([]float64)
}

func (s *playerSource) Process(dst []float32) {
	s.drain()
	if s.finished.Load() {
		clear(dst)
		return
	}
	step := 2 * s.engine.blockSize
	for off := 0; off < len(dst); off += step {
		end := min(off+step, len(dst)&^1)
		if end <= off {
			break
		}
		barDuration := s.engine.transport.Current().BarDuration
		s.engine.process(dst[off:end])
		if s.valueTap != nil {
			s.valueTap(s.engine.values)
		}
		s.travelled += float64((end-off)/2) / float64(s.engine.sampleRate) / barDuration
	}
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
	if s.limit > 0 && s.limit-s.travelled <= barEpsilon && !s.finished.Swap(true) && s.onEnd != nil {
		s.onEnd()
	}
}

func (s *playerSource) drain() { applyEdits(s.edits, s.engine.lfos) }

func applyEdits(edits <-chan func([]*LFO), lfos []*LFO) {
	for {
		select {
		case fn := <-edits:
			fn(lfos)
		default:
			return
		}
	}
}

func (s *playerSource) Finished() bool {
	return s.finished.Load()
}

func NewPlayer(session *config.Session, opts ...PlayerOption) (*Player, error) {
	if session == nil {
		return nil, errors.New("session must not be nil")
	}
	cfg := playerConfig{backend: session.Backend}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Player{
		session: session,
		cfg:     cfg,
		edits:   make(chan func([]*LFO), editQueueSize),
	}
	e, err := newEngine(session, p.onTransportEvent)
	if err != nil {
		return nil, err
	}
	p.engine = e
	return p, nil
}

func (p *Player) onTransportEvent(kind transport.EventKind) {
	ev := PlaybackEvent{Kind: EventTempoChanged, Bar: p.engine.transport.Position()}
	if kind == transport.EventLoopWrapped {
		ev.Kind = EventLoopCompleted
	}
	p.sendEvent(ev)
}

func (p *Player) SampleRate() int { return p.session.SampleRate }

// NumLFOs is the number of oscillators in the session.
func (p *Player) NumLFOs() int { return len(p.engine.lfos) }

// Play starts the session from bar zero on the configured backend,
// replacing any playback in progress.
func (p *Player) Play() error {
	if err := p.Stop(); err != nil {
		log.Warningf("stopping previous playback: %v", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	pb := &playback{done: make(chan struct{})}
	p.engine.reset()
	src := &playerSource{
		engine:    p.engine,
		edits:     p.edits,
		sampleTap: p.cfg.sampleTap,
		valueTap:  p.cfg.valueTap,
		onEnd: func() {
			p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded, Bar: p.engine.transport.Position()})
			pb.finish()
		},
	}
	if !p.cfg.loopPlayback {
		src.limit = p.session.DurationBars
	}
	out, err := intaudio.Open(p.cfg.backend, p.session.SampleRate, p.session.BlockSize, src)
	if err != nil {
		return fmt.Errorf("failed to open %s output: %w", p.cfg.backend, err)
	}
	if err := out.Play(); err != nil {
		_ = out.Stop()
		return err
	}
	log.Infof("playing %d LFOs at %d Hz on %s", len(p.engine.lfos), p.session.SampleRate, p.cfg.backend)
	p.source = src
	p.audio = out
	p.playback = pb
	return nil
}

// Edit queues fn to run against the session's LFOs. While playing it runs
// on the audio thread before the next buffer; otherwise it runs at once.
func (p *Player) Edit(fn func(lfos []*LFO)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		fn(p.engine.lfos)
		return nil
	}
	select {
	case p.edits <- fn:
		return nil
	default:
		return ErrEditQueueFull
	}
}

// LoadPreset applies a preset document to the session's LFOs and returns
// the preset name once the audio thread has applied it.
func (p *Player) LoadPreset(ctx context.Context, data []byte) (string, error) {
	type result struct {
		name string
		err  error
	}
	ch := make(chan result, 1)
	err := p.Edit(func(lfos []*LFO) {
		name, err := UnmarshalPreset(data, lfos...)
		ch <- result{name, err}
	})
	if err != nil {
		return "", err
	}
	select {
	case r := <-ch:
		return r.name, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// SavePreset captures the session's LFOs as a preset document.
func (p *Player) SavePreset(ctx context.Context, name string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	err := p.Edit(func(lfos []*LFO) {
		data, err := MarshalPreset(name, lfos...)
		ch <- result{data, err}
	})
	if err != nil {
		return nil, err
	}
	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full or closed; drop event
		}
	}
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	return p.audio.Pause()
}

func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	return p.audio.Play()
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	// edits queued after the last buffer still apply
	applyEdits(p.edits, p.engine.lfos)
	if !p.source.Finished() {
		p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded, Bar: p.engine.transport.Position()})
	}
	p.playback.finish()
	p.audio = nil
	p.source = nil
	p.playback = nil
	return err
}

// Wait blocks until the current playback ends. With loop playback enabled
// Wait blocks until Stop. It returns immediately if nothing is playing.
func (p *Player) Wait() {
	p.mu.Lock()
	pb := p.playback
	p.mu.Unlock()
	if pb != nil {
		<-pb.done
	}
}

// Watch returns a channel that receives playback events. The channel is
// buffered (cap 8) and events are dropped when it is full. Only the most
// recent Watch() channel receives events; call Watch before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}
