package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	log "github.com/golang/glog"

	"github.com/cbegin/tempolfo-go"
	"github.com/cbegin/tempolfo-go/internal/config"
)

func main() {
	var (
		sessionPath = flag.String("session", "", "path to a TOML session file")
		backend     = flag.String("backend", "", "audio backend: ebiten|portaudio (default from session)")
		loop        = flag.Bool("loop", false, "keep playing past the session duration; use with -loops to count then stop")
		loops       = flag.Int("loops", 4, "when -loop, stop after N transport loops (0 = loop forever)")
		presetPath  = flag.String("preset", "", "preset XML to load over the session's LFOs")
		savePath    = flag.String("save-preset", "", "write the LFO settings as a preset XML file on exit")
		waveform    = flag.String("waveform", "", "override the first LFO's waveform")
	)
	flag.Parse()

	session, err := loadSession(*sessionPath)
	if err != nil {
		log.Exitf("failed to load session: %v", err)
	}
	opts := []tempolfo.PlayerOption{tempolfo.WithLoopPlayback(*loop)}
	if *backend != "" {
		opts = append(opts, tempolfo.WithBackend(*backend))
	}
	pl, err := tempolfo.NewPlayer(session, opts...)
	if err != nil {
		log.Exitf("failed to create player: %v", err)
	}
	ctx := context.Background()
	if *presetPath != "" {
		data, err := os.ReadFile(*presetPath)
		if err != nil {
			log.Exitf("failed to read preset at %q: %v", *presetPath, err)
		}
		name, err := pl.LoadPreset(ctx, data)
		if err != nil {
			log.Exitf("failed to load preset %q: %v", *presetPath, err)
		}
		log.Infof("loaded preset %q", name)
	}
	if *waveform != "" {
		w, err := parseWaveform(*waveform)
		if err != nil {
			log.Exit(err)
		}
		if err := pl.Edit(func(lfos []*tempolfo.LFO) { lfos[0].SetWaveform(w) }); err != nil {
			log.Exit(err)
		}
	}

	ch := pl.Watch()
	if err := pl.Play(); err != nil {
		log.Exitf("failed to play: %v", err)
	}
	loopCount := 0
	for event := range ch {
		switch event.Kind {
		case tempolfo.EventPlaybackEnded:
			fmt.Println("playback completed")
			goto done
		case tempolfo.EventLoopCompleted:
			loopCount++
			fmt.Printf("loop %d completed\n", loopCount)
			if *loop && *loops > 0 && loopCount >= *loops {
				if err := pl.Stop(); err != nil {
					log.Warningf("stop: %v", err)
				}
			}
		case tempolfo.EventTempoChanged:
			fmt.Printf("tempo change at bar %.2f\n", event.Bar)
		}
	}
done:
	pl.Wait()
	if err := pl.Stop(); err != nil {
		log.Warningf("stop: %v", err)
	}
	if *savePath != "" {
		data, err := pl.SavePreset(ctx, strings.TrimSuffix(*savePath, ".xml"))
		if err != nil {
			log.Exitf("failed to save preset: %v", err)
		}
		if err := os.WriteFile(*savePath, data, 0o644); err != nil {
			log.Exitf("failed to write preset: %v", err)
		}
		log.Infof("saved preset to %s", *savePath)
	}
}

func loadSession(path string) (*config.Session, error) {
	if strings.TrimSpace(path) == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func parseWaveform(name string) (tempolfo.Waveform, error) {
	w, ok := tempolfo.ParseWaveform(name)
	if !ok {
		return 0, fmt.Errorf("invalid -waveform %q (expected one of %s)", name, strings.Join(tempolfo.WaveformNames(), ", "))
	}
	return w, nil
}
