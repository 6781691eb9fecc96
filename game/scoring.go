package game

import "sort"

// Outcome is the settled result of a single contestant's game, the input to
// Score.
type Outcome struct {
	FinalWinnings     float64
	FinalBoxValue     float64
	RoundDealt        int
	IsLastStanding    bool
	IsHighestWinnings bool
	TimeoutCount      int
}

const maxPoints = 3000

// Score maps a settled contestant outcome to points. Pure: same input,
// same output, always >= 0.
func Score(o Outcome) int {
	pts := int(o.FinalWinnings / 100)
	if pts > maxPoints {
		pts = maxPoints
	}

	if o.FinalWinnings > o.FinalBoxValue {
		pts += 200 // smart deal
	}
	if o.RoundDealt >= 4 {
		pts += 150 // guts
	}
	if o.RoundDealt <= 2 {
		pts -= 50 // early exit
	}
	if o.IsLastStanding {
		pts += 200
	}
	if o.IsHighestWinnings {
		pts += 200
	}
	pts -= 50 * o.TimeoutCount

	if pts < 0 {
		pts = 0
	}
	return pts
}

// RankEntry is anything a leaderboard can rank: a point total, carrying an
// opaque payload the caller can recover after sorting.
type RankEntry[T any] struct {
	Points int
	Value  T
}

// Ranked is a RankEntry with its dense 1..N rank assigned.
type Ranked[T any] struct {
	Rank int
	RankEntry[T]
}

// Rank sorts entries by Points descending, ties broken by original
// (insertion) order, and assigns dense ranks 1..N. The input slice order is
// the tie-break key, so callers must pass entries in insertion order.
func Rank[T any](entries []RankEntry[T]) []Ranked[T] {
	indexed := make([]int, len(entries))
	for i := range indexed {
		indexed[i] = i
	}

	sort.SliceStable(indexed, func(a, b int) bool {
		return entries[indexed[a]].Points > entries[indexed[b]].Points
	})

	out := make([]Ranked[T], len(entries))
	for rank, idx := range indexed {
		out[rank] = Ranked[T]{Rank: rank + 1, RankEntry: entries[idx]}
	}
	return out
}
