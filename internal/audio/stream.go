package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"
)

// SampleSource renders interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// Output is a realtime audio device pulling from a SampleSource.
type Output interface {
	Play() error
	Pause() error
	IsPlaying() bool
	// Position is the amount of audio handed to the device so far.
	Position() time.Duration
	Stop() error
}

const (
	BackendEbiten    = "ebiten"
	BackendPortAudio = "portaudio"
)

var ErrUnknownBackend = errors.New("audio: unknown backend")

// Open starts an output on the named backend. framesPerBuffer is a hint
// that only PortAudio honours.
func Open(backend string, sampleRate, framesPerBuffer int, source SampleSource) (Output, error) {
	switch strings.ToLower(backend) {
	case BackendEbiten, "":
		return newEbitenOutput(sampleRate, source)
	case BackendPortAudio:
		return newPortAudioOutput(sampleRate, framesPerBuffer, source)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownBackend, backend)
}

// StreamReader adapts a SampleSource to the little-endian float32 byte
// stream ebiten expects.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
	frames int64
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	r.frames += int64(frames)
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

// Frames is the number of frames read so far.
func (r *StreamReader) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *StreamReader) Close() error { return nil }

func framesToDuration(frames int64, sampleRate int) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
