package sequence

import "math"

// Wheel geometry. Three identically patterned wheels are shown per trial,
// rotated so no position carries information.
const (
	WheelSegments = 40
	NumWheels     = 3

	segmentArc = 360.0 / WheelSegments

	// Two full rotations prepended to animated spins so the wheel always
	// travels in one direction and still stops at the exact target angle.
	animationSpins = 720.0
)

// WheelOffsets are the rotation offsets of the three displayed wheels.
var WheelOffsets = [NumWheels]float64{0, 120, 240}

// lcg is the small linear congruential generator that keeps segment
// layouts deterministic per probability. It is deliberately separate from
// the session RNG: every wheel render must reproduce the same pattern.
type lcg struct {
	state int64
}

func newLCG(seed int64) *lcg {
	return &lcg{state: seed}
}

// next returns a pseudo-random float in [0, 1).
func (g *lcg) next() float64 {
	g.state = (g.state*9301 + 49297) % 233280
	return float64(g.state) / 233280
}

// SegmentPattern returns the 40-slot win/loss layout of a wheel face for
// the given win probability. Pure and deterministic: the layout is a
// seeded shuffle of round(p*40) wins, with the seed derived from p alone,
// so repeated calls (and all three wheel instances) agree bit for bit.
func SegmentPattern(probability float64) []bool {
	wins := int(math.Round(probability * WheelSegments))
	pattern := make([]bool, WheelSegments)
	for i := 0; i < wins; i++ {
		pattern[i] = true
	}
	deterministicShuffle(pattern, int64(math.Floor(probability*1000)))
	return pattern
}

// deterministicShuffle is a Fisher-Yates shuffle driven by the seeded LCG
// rather than an ambient random source. Same seed, same permutation.
func deterministicShuffle(pattern []bool, seed int64) {
	g := newLCG(seed)
	for i := len(pattern) - 1; i > 0; i-- {
		j := int(g.next() * float64(i+1))
		pattern[i], pattern[j] = pattern[j], pattern[i]
	}
}

// LandingAngle picks a segment displaying the desired outcome, uniformly
// among candidates, and returns the final pointer angle for the wheel at
// wheelOffset. ok is false when the pattern contains no such segment,
// which cannot happen for the four canonical tiers.
func LandingAngle(pattern []bool, win bool, wheelOffset float64, rng RNG) (angle float64, ok bool) {
	candidates := make([]int, 0, len(pattern))
	for i, w := range pattern {
		if w == win {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	idx := candidates[rng.Intn(len(candidates))]
	angle = float64(idx)*segmentArc + rng.Float64()*segmentArc + wheelOffset
	return angle, true
}

// AnimatedLandingAngle is LandingAngle plus two full rotations, for spin
// transitions that must end at the same visual position.
func AnimatedLandingAngle(pattern []bool, win bool, wheelOffset float64, rng RNG) (float64, bool) {
	angle, ok := LandingAngle(pattern, win, wheelOffset, rng)
	if !ok {
		return 0, false
	}
	return angle + animationSpins, true
}
