// Package reward implements the weighted-random reward selectors: the
// generic draw, the daily wheel, and the slot game. Both games share
// the daily spin-budget shape but keep separate counters; the wheel's
// budget is snapshotted at the first access of the day.
package reward

import "math/rand"

// Weighted pairs an outcome with its draw weight.
type Weighted[T any] struct {
	Outcome T
	Weight  float64
}

// Draw picks one outcome: r = uniform(0, Σweight), then weights are
// subtracted in table order until the remainder reaches zero. The
// final return is a guard against floating-point drift leaving the
// loop without a hit — unreachable for well-formed tables.
func Draw[T any](table []Weighted[T], rng *rand.Rand) T {
	if len(table) == 0 {
		var zero T
		return zero
	}

	var total float64
	for _, e := range table {
		total += e.Weight
	}

	r := rng.Float64() * total
	for _, e := range table {
		r -= e.Weight
		if r <= 0 {
			return e.Outcome
		}
	}
	return table[0].Outcome
}
