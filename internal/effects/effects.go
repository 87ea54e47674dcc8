package effects

import "fmt"

// Modulator shapes a block of planar stereo audio by a control value in
// [0, 1] sampled once per block. Implementations ramp linearly from the
// previous block's control value so that block-rate LFO output does not
// produce zipper noise.
type Modulator interface {
	ProcessBlock(l, r []float64, control float64)
	Reset()
}

// Chain applies a sequence of modulators in order, each driven by its own
// control value.
type Chain struct {
	stages []Modulator
}

func NewChain(stages ...Modulator) *Chain {
	return &Chain{stages: stages}
}

// ProcessBlock runs every stage over l and r. controls[i] drives stage i.
func (c *Chain) ProcessBlock(l, r []float64, controls []float64) {
	if len(controls) != len(c.stages) {
		panic(fmt.Sprintf("effects: %d controls for %d stages", len(controls), len(c.stages)))
	}
	if len(l) != len(r) {
		panic("effects: channel length mismatch")
	}
	for i, s := range c.stages {
		s.ProcessBlock(l, r, controls[i])
	}
}

func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}

func (c *Chain) Add(m Modulator) {
	c.stages = append(c.stages, m)
}

func (c *Chain) Len() int { return len(c.stages) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ramp is the per-sample interpolation state shared by the modulators.
type ramp struct {
	prev   float64
	primed bool
	buf    []float64
}

// fill writes a linear ramp ending at target into r.buf[:n] and returns it.
func (r *ramp) fill(n int, target float64) []float64 {
	if cap(r.buf) < n {
		r.buf = make([]float64, n)
	}
	buf := r.buf[:n]
	start := target
	if r.primed {
		start = r.prev
	}
	step := (target - start) / float64(n)
	for i := range buf {
		buf[i] = start + step*float64(i+1)
	}
	r.prev = target
	r.primed = true
	return buf
}

func (r *ramp) reset() {
	r.prev = 0
	r.primed = false
}
