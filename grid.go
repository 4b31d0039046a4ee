package heatgrid

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmpty          = errors.New("empty grid")
	ErrNotRectangular = errors.New("grid is not rectangular")
)

// A Coord is a cell coordinate. X is the column and Y is the row.
type Coord struct {
	X int
	Y int
}

// A TileCoord is a tile coordinate.
type TileCoord struct {
	C int // Column.
	R int // Row.
}

// A Raster is a source of samples.
type Raster interface {
	Samples(ctx context.Context, coords []Coord) ([]float64, error)
	Scale() (int, int)
}

// A Grid is a rectangular array of values stored in row-major order.
type Grid struct {
	rows   int
	cols   int
	values []float64
	srid   int
}

// NewGrid returns a new Grid with the given dimensions. values is used
// directly, not copied.
func NewGrid(rows, cols int, values []float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmpty
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("%d values for %dx%d grid: %w", len(values), rows, cols, ErrNotRectangular)
	}
	return &Grid{
		rows:   rows,
		cols:   cols,
		values: values,
	}, nil
}

// MustNewGrid returns a new Grid from rows, panicking if rows is empty or
// ragged.
func MustNewGrid(rows [][]float64) *Grid {
	if len(rows) == 0 {
		panic(ErrEmpty)
	}
	values := make([]float64, 0, len(rows)*len(rows[0]))
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			panic(fmt.Errorf("row %d has %d values, expected %d: %w", i, len(row), len(rows[0]), ErrNotRectangular))
		}
		values = append(values, row...)
	}
	g, err := NewGrid(len(rows), len(rows[0]), values)
	if err != nil {
		panic(err)
	}
	return g
}

// Dims returns the number of rows and columns in g.
func (g *Grid) Dims() (int, int) {
	return g.rows, g.cols
}

// At returns the value at row r and column c.
func (g *Grid) At(r, c int) float64 {
	return g.values[r*g.cols+c]
}

// Values returns g's values in row-major order. The returned slice shares
// storage with g.
func (g *Grid) Values() []float64 {
	return g.values
}

// Rows returns a copy of g's values as a slice of rows.
func (g *Grid) Rows() [][]float64 {
	rows := make([][]float64, g.rows)
	for r := range rows {
		rows[r] = slices.Clone(g.values[r*g.cols : (r+1)*g.cols])
	}
	return rows
}

// Matrix returns a matrix that shares storage with g.
func (g *Grid) Matrix() *mat.Dense {
	return mat.NewDense(g.rows, g.cols, g.values)
}

// Max returns the maximum value in g. If any value is NaN then the result is
// NaN.
func (g *Grid) Max() float64 {
	if floats.HasNaN(g.values) {
		return math.NaN()
	}
	return floats.Max(g.values)
}

// Range returns the minimum and maximum finite values in g. ok is false if g
// contains no finite values.
func (g *Grid) Range() (minValue, maxValue float64, ok bool) {
	minValue, maxValue = math.Inf(1), math.Inf(-1)
	for _, value := range g.values {
		if !isFinite(value) {
			continue
		}
		minValue = min(minValue, value)
		maxValue = max(maxValue, value)
		ok = true
	}
	return
}

// SRID returns g's spatial reference, or zero if it is not known.
func (g *Grid) SRID() int {
	return g.srid
}

// Samples returns the values at coords. Coordinates outside g are clamped to
// the nearest edge cell.
func (g *Grid) Samples(ctx context.Context, coords []Coord) ([]float64, error) {
	samples := make([]float64, len(coords))
	for i, coord := range coords {
		x := min(max(coord.X, 0), g.cols-1)
		y := min(max(coord.Y, 0), g.rows-1)
		samples[i] = g.values[y*g.cols+x]
	}
	return samples, nil
}

// Scale returns g's scale, which is always one unit per cell.
func (g *Grid) Scale() (int, int) {
	return 1, 1
}

