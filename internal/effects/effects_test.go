package effects

import (
	"math"
	"testing"
)

func ones(n int) ([]float64, []float64) {
	l := make([]float64, n)
	r := make([]float64, n)
	for i := range l {
		l[i], r[i] = 1, 1
	}
	return l, r
}

func TestTremoloFirstBlockIsFlat(t *testing.T) {
	tr := NewTremolo(1)
	l, r := ones(8)
	tr.ProcessBlock(l, r, 0.25)
	for i := range l {
		if l[i] != 0.25 || r[i] != 0.25 {
			t.Fatalf("sample %d = %v/%v, want 0.25", i, l[i], r[i])
		}
	}
}

func TestTremoloRampsBetweenBlocks(t *testing.T) {
	tr := NewTremolo(1)
	l, r := ones(4)
	tr.ProcessBlock(l, r, 0)
	l, r = ones(4)
	tr.ProcessBlock(l, r, 1)
	want := []float64{0.25, 0.5, 0.75, 1}
	for i, w := range want {
		if math.Abs(l[i]-w) > 1e-12 {
			t.Fatalf("ramp[%d] = %v, want %v", i, l[i], w)
		}
	}
}

func TestTremoloDepth(t *testing.T) {
	tr := NewTremolo(0.5)
	if got := tr.Gain(0); got != 0.5 {
		t.Fatalf("gain(0) at half depth = %v, want 0.5", got)
	}
	if got := tr.Gain(1); got != 1 {
		t.Fatalf("gain(1) = %v, want 1", got)
	}
	if got := NewTremolo(3).Depth(); got != 1 {
		t.Fatalf("depth not clamped: %v", got)
	}
}

func TestAutoPanEqualPower(t *testing.T) {
	for _, pos := range []float64{0, 0.2, 0.5, 0.9, 1} {
		gl, gr := Gains(pos)
		if p := gl*gl + gr*gr; math.Abs(p-1) > 1e-12 {
			t.Fatalf("power at %v = %v", pos, p)
		}
	}
	p := NewAutoPan(1)
	l, r := ones(4)
	p.ProcessBlock(l, r, 0)
	if math.Abs(l[3]-math.Sqrt2) > 1e-12 || math.Abs(r[3]) > 1e-12 {
		t.Fatalf("hard left = %v/%v", l[3], r[3])
	}
}

func TestAutoPanCentreKeepsSignal(t *testing.T) {
	p := NewAutoPan(0.5)
	l, r := ones(4)
	p.ProcessBlock(l, r, 0.5)
	for i := range l {
		if math.Abs(l[i]-1) > 1e-12 || math.Abs(r[i]-1) > 1e-12 {
			t.Fatalf("centre sample %d = %v/%v", i, l[i], r[i])
		}
	}
	if got := p.Position(1); got != 0.75 {
		t.Fatalf("half width position = %v, want 0.75", got)
	}
}

func TestChainAppliesStagesInOrder(t *testing.T) {
	c := NewChain(NewTremolo(1))
	c.Add(NewTremolo(1))
	l, r := ones(2)
	c.ProcessBlock(l, r, []float64{0.5, 0.5})
	if l[0] != 0.25 || r[1] != 0.25 {
		t.Fatalf("chained gain = %v, want 0.25", l[0])
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestChainPanicsOnControlMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	l, r := ones(2)
	NewChain(NewTremolo(1)).ProcessBlock(l, r, nil)
}

func TestResetForgetsRamp(t *testing.T) {
	tr := NewTremolo(1)
	l, r := ones(2)
	tr.ProcessBlock(l, r, 0)
	tr.Reset()
	l, r = ones(2)
	tr.ProcessBlock(l, r, 1)
	if l[0] != 1 {
		t.Fatalf("first sample after reset = %v, want 1", l[0])
	}
}

func TestToneFillsBothChannels(t *testing.T) {
	tone := NewTone(8, 1, 0.5)
	l := make([]float64, 8)
	r := make([]float64, 8)
	tone.Fill(l, r)
	if l[0] != 0 || math.Abs(l[2]-0.5) > 1e-12 || math.Abs(l[6]+0.5) > 1e-12 {
		t.Fatalf("tone = %v", l)
	}
	for i := range l {
		if l[i] != r[i] {
			t.Fatalf("channels differ at %d", i)
		}
	}
}
