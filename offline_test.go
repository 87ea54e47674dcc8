package tempolfo

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/cbegin/tempolfo-go/internal/config"
)

func parseSession(t *testing.T, data string) *config.Session {
	t.Helper()
	s, err := config.Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	return s
}

const quarterSine = `
sample_rate = 8000
block_size = 80
duration_bars = 4

[[lfo]]
period_bars = 0.25
lower = 0.2
upper = 0.9
`

func TestRenderSessionMeasuresSyncedPeriod(t *testing.T) {
	r, err := RenderSession(parseSession(t, quarterSine))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := len(r.Curves[0]); got != 800 {
		t.Fatalf("blocks = %d, want 800", got)
	}
	if got := len(r.Samples); got != 800*80*2 {
		t.Fatalf("samples = %d", got)
	}
	for i, v := range r.Curves[0] {
		if v < 0.2 || v > 0.9 {
			t.Fatalf("block %d value %v outside bounds", i, v)
		}
	}
	est, err := r.MeasurePeriod(0)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if got := est.PeriodInBars(2); math.Abs(got-0.25) > 0.01 {
		t.Fatalf("measured period = %v bars, want 0.25", got)
	}
}

func TestRenderSessionAppliesTremolo(t *testing.T) {
	r, err := RenderSession(parseSession(t, quarterSine))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var peak float32
	for _, v := range r.Samples {
		peak = max(peak, float32(math.Abs(float64(v))))
	}
	if peak > 0.5+1e-6 || peak < 0.3 {
		t.Fatalf("peak = %v, want within carrier amplitude", peak)
	}
	if len(r.CurveSamples(0)) != len(r.Samples)/2 {
		t.Fatalf("control signal length mismatch")
	}
}

func TestEngineKeepsFreePeriodAcrossTempoChange(t *testing.T) {
	s := parseSession(t, `
sample_rate = 1000
block_size = 100

[[tempo]]
bpm = 120
numerator = 4

[[tempo]]
at_bar = 1
bpm = 240
numerator = 3

[[lfo]]
sync = "free"
period_ms = 500

[[lfo]]
period_bars = 0.5
target = "pan"
`)
	e, err := newEngine(s, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	free, synced := e.lfos[0], e.lfos[1]
	if free.PeriodScale() != 0.25 {
		t.Fatalf("initial free period = %v bars", free.PeriodScale())
	}
	block := make([]float32, 200)
	for i := 0; i < 30; i++ {
		e.process(block)
	}
	if e.timer.MeasureNumerator() != 3 {
		t.Fatalf("meter change not reached")
	}
	if got := free.PeriodInMilliseconds(); math.Abs(got-500) > 1e-9 {
		t.Fatalf("free period = %v ms after tempo change, want 500", got)
	}
	if got := synced.PeriodScale(); math.Abs(got-1.0/3) > 1e-12 {
		t.Fatalf("synced period = %v bars in 3/4, want 1/3", got)
	}
}

func TestDisabledLFOIsNeutral(t *testing.T) {
	s := parseSession(t, `
sample_rate = 8000
block_size = 64

[[lfo]]
enabled = false

[[lfo]]
enabled = false
target = "pan"
`)
	e, err := newEngine(s, nil)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	e.process(make([]float32, 128))
	if e.values[0] != 1 || e.values[1] != 0.5 {
		t.Fatalf("neutral values = %v", e.values)
	}
}

func TestEncodeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	samples := []float32{0.5, -0.5, 1, -1, 2, 0}
	if err := EncodeWAV(f, samples, 8000, 2, 16); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err = os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		t.Fatalf("invalid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.SampleRate != 8000 || d.NumChans != 2 || d.BitDepth != 16 {
		t.Fatalf("format = %d Hz %d ch %d bit", d.SampleRate, d.NumChans, d.BitDepth)
	}
	want := []int{16384, -16384, 32767, -32768, 32767, 0}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples", len(buf.Data))
	}
	for i, w := range want {
		if buf.Data[i] != w {
			t.Fatalf("sample %d = %d, want %d", i, buf.Data[i], w)
		}
	}
}

func TestEncodeWAVRejectsBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := EncodeWAV(f, []float32{0, 0, 0}, 8000, 2, 16); err == nil {
		t.Fatalf("expected channel error")
	}
	if err := EncodeWAV(f, nil, 8000, 1, 12); err == nil {
		t.Fatalf("expected bit depth error")
	}
}

func TestRenderSessionWithPreset(t *testing.T) {
	s := parseSession(t, quarterSine)
	preset := []byte(`<Preset version="1"><LFO on="1" sync="1" T="0.25" lbnd="0.5" ubnd="0.5"/></Preset>`)
	r, err := RenderSession(s, WithPreset(preset))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i, v := range r.Curves[0] {
		if v != 0.5 {
			t.Fatalf("block %d = %v, want the preset's flat 0.5", i, v)
		}
	}
	if _, err := RenderSession(s, WithPreset([]byte("<nope"))); err == nil {
		t.Fatalf("expected preset error")
	}
}
