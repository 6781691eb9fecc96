// Package game holds the pure, side-effect-free rules of the box-opening
// game: the value ladder, the banker's offer, scoring, and name
// sanitisation. Nothing in this package touches a mutex, a clock, or a
// network connection — the engine package owns all of that.
package game

import (
	"boxdrop/config"
	"boxdrop/rng"
)

// NewShuffledBoxValues returns a permutation of config.BoxValueLadder, one
// value per box, indexed 0..19 (caller maps to box numbers 1..20).
func NewShuffledBoxValues(src rng.Source) [20]float64 {
	values := config.BoxValueLadder
	rng.Shuffle(src, values[:])
	return values
}
