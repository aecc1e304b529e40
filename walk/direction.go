package walk

import "oxywalk/lattice"

// Directions are the six axis-aligned unit moves, in draw order.
var Directions = [6]lattice.Coord{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// Direction indices into Directions.
const (
	PlusX = iota
	MinusX
	PlusY
	MinusY
	PlusZ
	MinusZ
)

// DirectionWeights returns the normalized move distribution for the given bias:
// lateral moves weigh 1, +z weighs 1+bias and -z weighs 1-bias.
func DirectionWeights(bias float64) (weights [6]float64) {
	raw := [6]float64{1, 1, 1, 1, 1 + bias, 1 - bias}
	total := 0.0
	for _, w := range raw {
		total += w
	}
	for i, w := range raw {
		weights[i] = w / total
	}
	return
}

// chooseDirection maps a single uniform draw u in [0,1) onto the weights by inverse cdf.
func chooseDirection(weights *[6]float64, u float64) int {
	cum := 0.0
	for i, w := range weights {
		cum += w
		if u < cum {
			return i
		}
	}
	// u landed in the rounding gap above the last cumulative weight;
	// take the last direction that has any mass.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	panic("walk: direction weights have no mass")
}
