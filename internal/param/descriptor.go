package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Descriptor describes one automatable parameter.
type Descriptor struct {
	Name string
	// Key is the short mnemonic used for preset attributes.
	Key     string
	Unit    string
	Default float64
	Mapping Mapping

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// SetFormatter installs custom text conversion for plain values.
func (d *Descriptor) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	d.formatFunc = format
	d.parseFunc = parse
}

// Convert re-expresses v from one encoding in another.
func (d *Descriptor) Convert(v float64, from, to Encoding) float64 {
	if from == to || from == Unchanged || to == Unchanged {
		return v
	}
	plain := d.plain(v, from)
	switch to {
	case Linear:
		return plain
	case NormalisedLinear:
		lo, hi := d.bounds()
		return LinearRange{Min: lo, Max: hi}.Normalize(plain)
	case Internal:
		return d.Mapping.Normalize(plain)
	}
	panic(fmt.Sprintf("param: unknown encoding %d", int(to)))
}

func (d *Descriptor) plain(v float64, from Encoding) float64 {
	switch from {
	case Linear:
		return v
	case NormalisedLinear:
		lo, hi := d.bounds()
		return LinearRange{Min: lo, Max: hi}.Denormalize(v)
	case Internal:
		return d.Mapping.Denormalize(v)
	}
	panic(fmt.Sprintf("param: unknown encoding %d", int(from)))
}

func (d *Descriptor) bounds() (float64, float64) {
	return d.Mapping.Denormalize(0), d.Mapping.Denormalize(1)
}

// FormatValue renders a plain value for display.
func (d *Descriptor) FormatValue(plain float64) string {
	if d.formatFunc != nil {
		return d.formatFunc(plain)
	}
	if _, ok := d.Mapping.(Enumerated); ok {
		return fmt.Sprintf("%.0f", plain)
	}
	s := strconv.FormatFloat(plain, 'f', 2, 64)
	if d.Unit != "" {
		s += " " + d.Unit
	}
	return s
}

// ParseValue parses display text back into a plain value.
func (d *Descriptor) ParseValue(s string) (float64, error) {
	if d.parseFunc != nil {
		return d.parseFunc(s)
	}
	text := strings.TrimSpace(s)
	if d.Unit != "" {
		text = strings.TrimSpace(strings.TrimSuffix(text, d.Unit))
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s value %q: %w", d.Name, s, err)
	}
	return v, nil
}
