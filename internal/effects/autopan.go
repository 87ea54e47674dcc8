package effects

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// AutoPan moves the stereo image with an equal-power pan law. A control
// of 0.5 is centre; width scales the excursion towards the sides.
type AutoPan struct {
	width   float64
	pos     ramp
	gainL   []float64
	gainR   []float64
	scratch []float64
}

func NewAutoPan(width float64) *AutoPan {
	return &AutoPan{width: clamp(width, 0, 1)}
}

// Position maps a control value to a pan position in [0, 1].
func (p *AutoPan) Position(control float64) float64 {
	return 0.5 + p.width*(clamp(control, 0, 1)-0.5)
}

// Gains returns the left and right gains for a pan position.
func Gains(position float64) (float64, float64) {
	a := clamp(position, 0, 1) * math.Pi / 2
	return math.Cos(a), math.Sin(a)
}

func (p *AutoPan) ProcessBlock(l, r []float64, control float64) {
	n := len(l)
	if n == 0 {
		return
	}
	if cap(p.gainL) < n {
		p.gainL = make([]float64, n)
		p.gainR = make([]float64, n)
		p.scratch = make([]float64, n)
	}
	gl, gr, mono := p.gainL[:n], p.gainR[:n], p.scratch[:n]
	for i, pos := range p.pos.fill(n, p.Position(control)) {
		gl[i], gr[i] = Gains(pos)
		mono[i] = (l[i] + r[i]) * math.Sqrt2 / 2
	}
	vecmath.MulBlock(l, mono, gl)
	vecmath.MulBlock(r, mono, gr)
}

func (p *AutoPan) Reset() { p.pos.reset() }
