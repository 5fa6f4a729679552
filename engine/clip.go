package engine

import "math"

// softClip maps a mixed sample onto (-1, 1) with a smooth saturating curve,
// so several loud layers summing past full scale compress gently instead of
// wrapping into harsh digital clipping. Near zero it is the identity to
// within a fraction of a percent.
func softClip(x float64) float64 {
	return math.Tanh(x)
}
