package heatgrid

import "gonum.org/v1/gonum/mat"

// Normalize returns a new grid with every value in g divided by g's maximum
// value. If g's maximum is zero then the result contains NaNs and infinities.
func Normalize(g *Grid) *Grid {
	m := g.Max()
	var normalized mat.Dense
	normalized.Apply(func(_, _ int, value float64) float64 {
		return value / m
	}, g.Matrix())
	return &Grid{
		rows:   g.rows,
		cols:   g.cols,
		values: normalized.RawMatrix().Data,
		srid:   g.srid,
	}
}
