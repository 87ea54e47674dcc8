package effects

import "math"

// Tone is a sine carrier written to both channels.
type Tone struct {
	sampleRate float64
	freq       float64
	amp        float64
	phase      float64
}

func NewTone(sampleRate int, freqHz, amplitude float64) *Tone {
	return &Tone{
		sampleRate: float64(sampleRate),
		freq:       freqHz,
		amp:        clamp(amplitude, 0, 1),
	}
}

func (t *Tone) Fill(l, r []float64) {
	inc := 2 * math.Pi * t.freq / t.sampleRate
	for i := range l {
		v := t.amp * math.Sin(t.phase)
		l[i] = v
		r[i] = v
		t.phase += inc
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
}

func (t *Tone) Reset() { t.phase = 0 }
