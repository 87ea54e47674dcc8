package audio

import (
	"fmt"
	"sync"
	"time"

	log "github.com/golang/glog"
	"github.com/gordonklaus/portaudio"
)

type portAudioOutput struct {
	mu         sync.Mutex
	stream     *portaudio.Stream
	source     SampleSource
	sampleRate int
	frames     int64
	playing    bool
}

func newPortAudioOutput(sampleRate, framesPerBuffer int, source SampleSource) (*portAudioOutput, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	o := &portAudioOutput{source: source, sampleRate: sampleRate}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), framesPerBuffer, o.callback)
	if err != nil {
		if terr := portaudio.Terminate(); terr != nil {
			log.Warningf("PortAudio termination error: %v", terr)
		}
		return nil, fmt.Errorf("failed to open PortAudio stream: %w", err)
	}
	o.stream = stream
	return o, nil
}

// callback runs on the PortAudio thread; out is interleaved stereo.
func (o *portAudioOutput) callback(out []float32) {
	o.source.Process(out)
	o.mu.Lock()
	o.frames += int64(len(out) / 2)
	o.mu.Unlock()
}

func (o *portAudioOutput) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.playing {
		return nil
	}
	if err := o.stream.Start(); err != nil {
		return fmt.Errorf("failed to start PortAudio stream: %w", err)
	}
	o.playing = true
	return nil
}

func (o *portAudioOutput) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.playing {
		return nil
	}
	o.playing = false
	if err := o.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop PortAudio stream: %w", err)
	}
	return nil
}

func (o *portAudioOutput) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

func (o *portAudioOutput) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return framesToDuration(o.frames, o.sampleRate)
}

func (o *portAudioOutput) Stop() error {
	if err := o.Pause(); err != nil {
		log.Warningf("%v", err)
	}
	if err := o.stream.Close(); err != nil {
		return fmt.Errorf("failed to close PortAudio stream: %w", err)
	}
	log.V(1).Info("PortAudio stream closed")
	return portaudio.Terminate()
}
