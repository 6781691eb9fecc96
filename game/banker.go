package game

import (
	"math"

	"boxdrop/config"
	"boxdrop/rng"
)

// Offer computes the banker's next offer from the remaining box values and
// the current round. Pure aside from drawing one value from src.
//
//	avg := mean(remaining)
//	raw := avg * modifier(round) * uniform(0.90, 1.10)
//	return round(raw, nearest 10)
//
// An empty remaining set yields 0; monotonicity across rounds is not
// guaranteed and isn't a goal — the variance is intentional.
func Offer(src rng.Source, remaining []float64, round int) float64 {
	if len(remaining) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range remaining {
		sum += v
	}
	avg := sum / float64(len(remaining))

	modifier := config.BankerModifierForRound(round)
	factor := rng.UniformFloat(src, 0.90, 1.10)

	raw := avg * modifier * factor
	return roundToNearest(raw, 10)
}

func roundToNearest(v, step float64) float64 {
	return math.Round(v/step) * step
}
