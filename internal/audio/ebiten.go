package audio

import (
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

type ebitenOutput struct {
	player *ebitaudio.Player
	reader *StreamReader
}

func newEbitenOutput(sampleRate int, source SampleSource) (*ebitenOutput, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create ebiten player: %w", err)
	}
	return &ebitenOutput{player: pl, reader: reader}, nil
}

func (o *ebitenOutput) Play() error {
	o.player.Play()
	return nil
}

func (o *ebitenOutput) Pause() error {
	o.player.Pause()
	return nil
}

func (o *ebitenOutput) IsPlaying() bool { return o.player.IsPlaying() }

// Position returns what the listener actually hears.
func (o *ebitenOutput) Position() time.Duration { return o.player.Position() }

func (o *ebitenOutput) Stop() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return err
	}
	return o.reader.Close()
}
