package effects

import vecmath "github.com/cwbudde/algo-vecmath"

// Tremolo scales amplitude by the control value. At full depth a control
// of 0 silences the block and 1 leaves it untouched.
type Tremolo struct {
	depth float64
	gain  ramp
}

// NewTremolo creates a tremolo. depth is clamped to [0, 1].
func NewTremolo(depth float64) *Tremolo {
	return &Tremolo{depth: clamp(depth, 0, 1)}
}

func (t *Tremolo) Depth() float64 { return t.depth }

func (t *Tremolo) Gain(control float64) float64 {
	return 1 - t.depth + t.depth*clamp(control, 0, 1)
}

func (t *Tremolo) ProcessBlock(l, r []float64, control float64) {
	if len(l) == 0 {
		return
	}
	g := t.gain.fill(len(l), t.Gain(control))
	vecmath.MulBlockInPlace(l, g)
	vecmath.MulBlockInPlace(r, g)
}

func (t *Tremolo) Reset() { t.gain.reset() }
