package tempolfo

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"

	"github.com/cbegin/tempolfo-go/internal/config"
	"github.com/cbegin/tempolfo-go/internal/measure"
)

const (
	// maxRenderSeconds bounds offline renders of very slow tempo maps.
	maxRenderSeconds = 3600
	barEpsilon       = 1e-9
)

// Rendering is the result of an offline session render.
type Rendering struct {
	SampleRate int
	BlockSize  int
	// Samples is interleaved stereo.
	Samples []float32
	// Curves holds one value per block for each LFO.
	Curves [][]float64
}

// CurveRate is the number of curve values per second.
func (r *Rendering) CurveRate() float64 {
	return float64(r.SampleRate) / float64(r.BlockSize)
}

// CurveSamples expands curve i to the audio rate, holding each block's
// value, for export as a control signal.
func (r *Rendering) CurveSamples(i int) []float32 {
	frames := len(r.Samples) / 2
	out := make([]float32, frames)
	for f := range out {
		out[f] = float32(r.Curves[i][f/r.BlockSize])
	}
	return out
}

// MeasurePeriod estimates the period of curve i from its spectrum.
func (r *Rendering) MeasurePeriod(i int) (measure.Estimate, error) {
	return measure.ModulationPeriod(r.Curves[i], r.CurveRate())
}

type RenderOption func(*renderConfig)

type renderConfig struct {
	preset []byte
}

// WithPreset loads a preset document over the session's LFO settings
// before rendering. Targets and depths still come from the session.
func WithPreset(data []byte) RenderOption {
	return func(cfg *renderConfig) {
		cfg.preset = data
	}
}

// RenderSession runs s offline for its duration in bars of travelled
// timeline, so loops count every pass.
func RenderSession(s *config.Session, opts ...RenderOption) (*Rendering, error) {
	var cfg renderConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	e, err := newEngine(s, nil)
	if err != nil {
		return nil, err
	}
	if cfg.preset != nil {
		if _, err := UnmarshalPreset(cfg.preset, e.lfos...); err != nil {
			return nil, err
		}
	}
	out := &Rendering{
		SampleRate: s.SampleRate,
		BlockSize:  s.BlockSize,
		Curves:     make([][]float64, len(s.LFOs)),
	}
	block := make([]float32, 2*s.BlockSize)
	maxFrames := maxRenderSeconds * s.SampleRate
	frames := 0
	for bars := 0.0; s.DurationBars-bars > barEpsilon; {
		if frames >= maxFrames {
			return nil, fmt.Errorf("render exceeds %d s", maxRenderSeconds)
		}
		barDuration := e.transport.Current().BarDuration
		e.process(block)
		out.Samples = append(out.Samples, block...)
		for i, v := range e.values {
			out.Curves[i] = append(out.Curves[i], v)
		}
		frames += s.BlockSize
		bars += float64(s.BlockSize) / float64(s.SampleRate) / barDuration
	}
	return out, nil
}

// EncodeWAV writes interleaved float samples in [-1, 1] as integer PCM.
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate, channels, bitDepth int) error {
	switch {
	case sampleRate <= 0:
		return errors.New("sampleRate must be positive")
	case channels <= 0 || len(samples)%channels != 0:
		return fmt.Errorf("%d samples do not fill %d channels", len(samples), channels)
	case bitDepth != 16 && bitDepth != 24 && bitDepth != 32:
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	// full scale positive is one step below 1 in two's complement
	peak := 1 - 1/math.Exp2(float64(bitDepth-1))
	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   make([]float64, len(samples)),
	}
	for i, v := range samples {
		buf.Data[i] = math.Max(-1, math.Min(peak, float64(v)))
	}
	if err := transforms.PCMScale(buf, bitDepth); err != nil {
		return fmt.Errorf("failed to scale samples: %w", err)
	}
	pcm := buf.AsIntBuffer()
	pcm.SourceBitDepth = bitDepth
	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, 1)
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish WAV file: %w", err)
	}
	return nil
}
