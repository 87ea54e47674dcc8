package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	log "github.com/golang/glog"

	"github.com/cbegin/tempolfo-go"
	"github.com/cbegin/tempolfo-go/internal/config"
	"github.com/cbegin/tempolfo-go/internal/measure"
	"github.com/cbegin/tempolfo-go/internal/timing"
)

func main() {
	var (
		sessionPath = flag.String("session", "", "path to a TOML session file")
		outPath     = flag.String("out", "lfo.wav", "modulated carrier output WAV")
		curvePath   = flag.String("curve", "", "optional mono WAV of the first LFO's control signal")
		presetPath  = flag.String("preset", "", "preset XML to load over the session's LFOs")
		bits        = flag.Int("bits", 16, "output bit depth: 16|24|32")
		bars        = flag.Float64("bars", 0, "override the session duration in bars")
	)
	flag.Parse()

	session, err := loadSession(*sessionPath)
	if err != nil {
		log.Exitf("failed to load session: %v", err)
	}
	if *bars > 0 {
		session.DurationBars = *bars
	}
	var opts []tempolfo.RenderOption
	if *presetPath != "" {
		data, err := os.ReadFile(*presetPath)
		if err != nil {
			log.Exitf("failed to read preset at %q: %v", *presetPath, err)
		}
		opts = append(opts, tempolfo.WithPreset(data))
	}

	r, err := tempolfo.RenderSession(session, opts...)
	if err != nil {
		log.Exitf("failed to render: %v", err)
	}
	if err := writeWAV(*outPath, r.Samples, r.SampleRate, 2, *bits); err != nil {
		log.Exit(err)
	}
	log.Infof("wrote %d frames to %s", len(r.Samples)/2, *outPath)
	if *curvePath != "" && len(r.Curves) > 0 {
		if err := writeWAV(*curvePath, r.CurveSamples(0), r.SampleRate, 1, *bits); err != nil {
			log.Exit(err)
		}
	}

	barDuration := initialBarDuration(session)
	for i, l := range session.LFOs {
		est, err := r.MeasurePeriod(i)
		switch {
		case errors.Is(err, measure.ErrNoModulation):
			fmt.Printf("lfo %d (%s, %s): flat\n", i, l.Waveform, l.Sync)
			continue
		case err != nil:
			log.Warningf("lfo %d: %v", i, err)
			continue
		}
		fmt.Printf("lfo %d (%s, %s): %.3f Hz, period %.3f s = %.4f bars\n",
			i, l.Waveform, l.Sync, est.FrequencyHz, est.PeriodSeconds, est.PeriodInBars(barDuration))
	}
}

func loadSession(path string) (*config.Session, error) {
	if strings.TrimSpace(path) == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// initialBarDuration is the bar length at bar zero, used to express
// measured periods in bars.
func initialBarDuration(s *config.Session) float64 {
	for _, t := range s.Tempo {
		if t.AtBar == 0 {
			return timing.BarDurationFor(t.BeatsPerMinute, t.MeasureNumerator)
		}
	}
	return timing.DefaultBarDuration
}

func writeWAV(path string, samples []float32, sampleRate, channels, bits int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	if err := tempolfo.EncodeWAV(f, samples, sampleRate, channels, bits); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %q: %w", path, err)
	}
	return f.Close()
}
