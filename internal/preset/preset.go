// Package preset persists oscillator parameters as XML attributes.
package preset

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"

	log "github.com/golang/glog"

	"github.com/cbegin/tempolfo-go/internal/lfo"
)

// Attribute keys, one per oscillator parameter.
const (
	KeyEnabled    = "on"
	KeyPeriod     = "T"
	KeyPhase      = "ph"
	KeyLowerBound = "lbnd"
	KeyUpperBound = "ubnd"
	KeySyncTypes  = "sync"
	KeyWaveform   = "wfrm"
)

const Version = 1

type document struct {
	XMLName xml.Name     `xml:"Preset"`
	Version int          `xml:"version,attr"`
	Name    string       `xml:"name,attr,omitempty"`
	LFOs    []lfoElement `xml:"LFO"`
}

type lfoElement struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

// Attributes returns the persisted form of o. The sync types are always
// written so that presets lacking them can be told apart as legacy Free
// presets.
func Attributes(o *lfo.Oscillator) []xml.Attr {
	enabled := "0"
	if o.Enabled() {
		enabled = "1"
	}
	return []xml.Attr{
		{Name: xml.Name{Local: KeyEnabled}, Value: enabled},
		{Name: xml.Name{Local: KeySyncTypes}, Value: strconv.Itoa(int(o.SyncTypes()))},
		{Name: xml.Name{Local: KeyPeriod}, Value: formatFloat(o.PeriodForPreset())},
		{Name: xml.Name{Local: KeyPhase}, Value: formatFloat(o.Phase())},
		{Name: xml.Name{Local: KeyLowerBound}, Value: formatFloat(o.LowerBound())},
		{Name: xml.Name{Local: KeyUpperBound}, Value: formatFloat(o.UpperBound())},
		{Name: xml.Name{Local: KeyWaveform}, Value: strconv.Itoa(int(o.Waveform()))},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Apply loads attrs into o. Missing attributes reset their parameter to
// the default, except a missing sync attribute which selects Free mode.
// Loading happens in two phases: the sync types first, since they decide
// how the period is read, then everything else. Malformed values fall
// back to defaults and are reported in the returned error; o is always
// left in a valid state.
func Apply(o *lfo.Oscillator, attrs []xml.Attr) error {
	values := make(map[string]string, len(attrs))
	for _, a := range attrs {
		values[a.Name.Local] = a.Value
	}
	var errs []error
	bad := func(key, raw string, err error) {
		errs = append(errs, fmt.Errorf("attribute %s=%q: %w", key, raw, err))
	}

	sync := lfo.Free
	if raw, ok := values[KeySyncTypes]; ok {
		n, err := strconv.ParseUint(raw, 10, 8)
		switch {
		case err != nil:
			bad(KeySyncTypes, raw, err)
			sync = lfo.DefaultSyncTypes
		case !lfo.SyncTypes(n).Valid():
			bad(KeySyncTypes, raw, errors.New("unknown sync bits"))
			sync = lfo.DefaultSyncTypes
		default:
			sync = lfo.SyncTypes(n)
		}
	}
	o.SetSyncTypes(sync)

	o.SetEnabled(false)
	if raw, ok := values[KeyEnabled]; ok {
		switch raw {
		case "1", "true":
			o.SetEnabled(true)
		case "0", "false":
		default:
			bad(KeyEnabled, raw, errors.New("not a boolean"))
		}
	}

	waveform := lfo.DefaultWaveform
	if raw, ok := values[KeyWaveform]; ok {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			bad(KeyWaveform, raw, err)
		case !lfo.Waveform(n).Valid():
			bad(KeyWaveform, raw, errors.New("unknown waveform"))
		default:
			waveform = lfo.Waveform(n)
		}
	}
	o.SetWaveform(waveform)

	phase := floatAttr(values, KeyPhase, lfo.DefaultPhase, lfo.MinimumPhase, lfo.MaximumPhase, bad)
	o.SetPhase(phase)

	lower := floatAttr(values, KeyLowerBound, lfo.DefaultLowerBound, lfo.MinimumValue, lfo.MaximumValue, bad)
	upper := floatAttr(values, KeyUpperBound, lfo.DefaultUpperBound, lfo.MinimumValue, lfo.MaximumValue, bad)
	o.SetLowerBound(lfo.MinimumValue)
	o.SetUpperBound(lfo.MaximumValue)
	o.SetLowerBound(lower)
	o.SetUpperBound(upper)

	period := lfo.DefaultPeriodScale
	if o.IsFree() {
		period *= o.Clock().BarDuration() * 1000
	}
	if raw, ok := values[KeyPeriod]; ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			if err == nil {
				err = errors.New("not positive")
			}
			bad(KeyPeriod, raw, err)
		} else {
			period = v
		}
	}
	o.SetPeriodFromPreset(period)
	o.ResetState()

	return errors.Join(errs...)
}

func floatAttr(values map[string]string, key string, def, lo, hi float64, bad func(string, string, error)) float64 {
	raw, ok := values[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		bad(key, raw, err)
		return def
	}
	if !(v >= lo && v <= hi) {
		bad(key, raw, fmt.Errorf("outside [%v, %v]", lo, hi))
		return def
	}
	return v
}

// Marshal writes a preset document holding one element per oscillator.
func Marshal(name string, oscs []*lfo.Oscillator) ([]byte, error) {
	doc := document{Version: Version, Name: name}
	for _, o := range oscs {
		doc.LFOs = append(doc.LFOs, lfoElement{Attrs: Attributes(o)})
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preset %q: %w", name, err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Unmarshal loads a preset document into oscs, in order. Oscillators
// without a matching element are reset to defaults. Problems with single
// attributes are logged and substituted; only an unreadable document is
// returned as an error. The preset name is returned.
func Unmarshal(data []byte, oscs []*lfo.Oscillator) (string, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse preset: %w", err)
	}
	if doc.Version > Version {
		return "", fmt.Errorf("preset version %d is newer than supported version %d", doc.Version, Version)
	}
	for i, o := range oscs {
		if i >= len(doc.LFOs) {
			o.Reset()
			continue
		}
		if err := Apply(o, doc.LFOs[i].Attrs); err != nil {
			log.Warningf("preset %q LFO %d: %v", doc.Name, i, err)
		}
	}
	if extra := len(doc.LFOs) - len(oscs); extra > 0 {
		log.Warningf("preset %q: ignoring %d surplus LFO elements", doc.Name, extra)
	}
	return doc.Name, nil
}
