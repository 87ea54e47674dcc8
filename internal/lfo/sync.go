package lfo

import (
	"math"
	"strings"
)

// SyncTypes is the set of rhythmic subdivisions an oscillator period may
// snap to. The empty set is Free mode.
type SyncTypes uint8

const (
	Quarter SyncTypes = 1 << iota
	Triplet
	Dotted

	Free     SyncTypes = 0
	AllSyncs           = Quarter | Triplet | Dotted
)

const (
	// MaximumPeriodInBars is the longest synced period.
	MaximumPeriodInBars = 16
	// MinimumPeriodAsMaximumBeatDenominator bounds the shortest synced
	// period to 1/8 of a beat.
	MinimumPeriodAsMaximumBeatDenominator = 8
)

var syncOrder = [...]SyncTypes{Quarter, Triplet, Dotted}

// Multiplier is the ratio of a period of this kind to the straight period
// it is built from. It is only defined for single sync types.
func (s SyncTypes) Multiplier() float64 {
	switch s {
	case Triplet:
		return 2.0 / 3.0
	case Dotted:
		return 3.0 / 2.0
	default:
		return 1
	}
}

func (s SyncTypes) IsFree() bool                  { return s&AllSyncs == 0 }
func (s SyncTypes) Has(t SyncTypes) bool          { return s&t != 0 }
func (s SyncTypes) Valid() bool                   { return s&^AllSyncs == 0 }
func (s SyncTypes) With(t SyncTypes) SyncTypes    { return s | t }
func (s SyncTypes) Without(t SyncTypes) SyncTypes { return s &^ t }

func (s SyncTypes) String() string {
	if s.IsFree() {
		return "Free"
	}
	var parts []string
	if s.Has(Quarter) {
		parts = append(parts, "Quarter")
	}
	if s.Has(Triplet) {
		parts = append(parts, "Triplet")
	}
	if s.Has(Dotted) {
		parts = append(parts, "Dotted")
	}
	return strings.Join(parts, "+")
}

// ParseSyncTypes accepts the String form, e.g. "Quarter+Dotted" or "free".
func ParseSyncTypes(s string) (SyncTypes, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "free") {
		return Free, true
	}
	var out SyncTypes
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' || r == '|' }) {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "quarter":
			out |= Quarter
		case "triplet":
			out |= Triplet
		case "dotted":
			out |= Dotted
		default:
			return Free, false
		}
	}
	return out, true
}

// PeriodScaleMinimum is the shortest period in bars for a meter: the
// triplet of the shortest subdivision.
func PeriodScaleMinimum(measureNumerator uint8) float64 {
	return Triplet.Multiplier() / (MinimumPeriodAsMaximumBeatDenominator * float64(measureNumerator))
}

// PeriodScaleMaximum leaves room for a dotted longest period.
func PeriodScaleMaximum() float64 {
	return Dotted.Multiplier() * MaximumPeriodInBars
}

// ClampFreePeriodScale forces a Free mode period into the valid range.
func ClampFreePeriodScale(periodScale float64, measureNumerator uint8) float64 {
	lo, hi := PeriodScaleMinimum(measureNumerator), PeriodScaleMaximum()
	switch {
	case math.IsNaN(periodScale), periodScale < lo:
		return lo
	case periodScale > hi:
		return hi
	}
	return periodScale
}

// SnapSyncedPeriodScale returns the enabled synced period closest to
// periodScale and the sync type that produced it. With no sync type
// enabled the period is clamped and Free is returned.
func SnapSyncedPeriodScale(periodScale float64, syncTypes SyncTypes, measureNumerator uint8) (float64, SyncTypes) {
	if syncTypes.IsFree() {
		return ClampFreePeriodScale(periodScale, measureNumerator), Free
	}
	if math.IsNaN(periodScale) || periodScale <= 0 {
		periodScale = PeriodScaleMinimum(measureNumerator)
	}
	best, bestType, bestDistance := 0.0, Free, math.Inf(1)
	for _, t := range syncOrder {
		if !syncTypes.Has(t) {
			continue
		}
		m := t.Multiplier()
		candidate := snapStraight(periodScale/m, measureNumerator) * m
		if d := math.Abs(candidate - periodScale); d < bestDistance {
			best, bestType, bestDistance = candidate, t, d
		}
	}
	return best, bestType
}

// snapStraight snaps a straight (non-triplet, non-dotted) period in bars.
func snapStraight(bars float64, measureNumerator uint8) float64 {
	n := float64(measureNumerator)
	beats := bars * n
	switch {
	case beats > n:
		wholeBars := math.Exp2(math.Round(math.Log2(bars)))
		return math.Min(math.Max(wholeBars, 1), MaximumPeriodInBars)
	case beats >= 1:
		return closestDivisor(beats, measureNumerator) / n
	default:
		fraction := math.Exp2(math.Round(math.Log2(beats)))
		fraction = math.Max(fraction, 1.0/MinimumPeriodAsMaximumBeatDenominator)
		return math.Min(fraction, 1) / n
	}
}

// closestDivisor returns the whole divisor of measureNumerator nearest to
// beats. Equidistant divisors resolve to the smaller one.
func closestDivisor(beats float64, measureNumerator uint8) float64 {
	best, bestDistance := 1.0, math.Inf(1)
	for d := uint8(1); d <= measureNumerator && d != 0; d++ {
		if measureNumerator%d != 0 {
			continue
		}
		if dist := math.Abs(beats - float64(d)); dist < bestDistance {
			best, bestDistance = float64(d), dist
		}
	}
	return best
}
