// Package rating implements the Elo update applied when a game reaches a
// terminal outcome. The update is pure: two current ratings and an outcome
// in, two new ratings out.
package rating

import "math"

// Outcome is a match result from player1's (White's) perspective.
type Outcome int

const (
	Win Outcome = iota
	Draw
	Loss
)

// Config fixes the Elo parameters. The same rounded delta is added to one
// side and subtracted from the other, so updates are zero-sum before the
// floor clamp.
type Config struct {
	K       float64
	Scale   float64
	Floor   int
	Default int
}

// DefaultConfig returns the standard parameters: K=32 on the 400-point
// logistic scale, new players at 1200, ratings floored at 100.
func DefaultConfig() Config {
	return Config{K: 32, Scale: 400, Floor: 100, Default: 1200}
}

// Update computes both players' new ratings for an outcome.
func (c Config) Update(rating1, rating2 int, outcome Outcome) (int, int) {
	expected := 1 / (1 + math.Pow(10, float64(rating2-rating1)/c.Scale))

	var actual float64
	switch outcome {
	case Win:
		actual = 1
	case Draw:
		actual = 0.5
	}

	delta := int(math.Round(c.K * (actual - expected)))
	return c.clamp(rating1 + delta), c.clamp(rating2 - delta)
}

func (c Config) clamp(r int) int {
	if r < c.Floor {
		return c.Floor
	}
	return r
}
