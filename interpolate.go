package heatgrid

import (
	"context"
	"fmt"
)

// An Interpolation is a method of resampling a grid.
type Interpolation int

const (
	InterpolationNearest Interpolation = iota
	InterpolationBilinear
)

var interpolationNames = map[Interpolation]string{
	InterpolationNearest:  "nearest",
	InterpolationBilinear: "bilinear",
}

// ParseInterpolation parses an interpolation name.
func ParseInterpolation(s string) (Interpolation, error) {
	for interpolation, name := range interpolationNames {
		if name == s {
			return interpolation, nil
		}
	}
	return 0, fmt.Errorf("%s: unknown interpolation", s)
}

func (i Interpolation) String() string {
	if name, ok := interpolationNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Interpolation(%d)", int(i))
}

func InterpolateBilinear(ctx context.Context, raster Raster, coords [][]float64) ([]float64, error) {
	scaleX, scaleY := raster.Scale()
	rasterCoords := make([]Coord, 4*len(coords))
	for i, coord := range coords {
		x0 := scaleX * (int(coord[0]) / scaleX)
		y0 := scaleY * (int(coord[1]) / scaleY)
		x1 := x0 + scaleX
		y1 := y0 + scaleY
		rasterCoords[4*i+0] = Coord{X: x0, Y: y0}
		rasterCoords[4*i+1] = Coord{X: x1, Y: y0}
		rasterCoords[4*i+2] = Coord{X: x0, Y: y1}
		rasterCoords[4*i+3] = Coord{X: x1, Y: y1}
	}
	samples, err := raster.Samples(ctx, rasterCoords)
	if err != nil {
		return nil, err
	}
	result := make([]float64, len(coords))
	for i, coord := range coords {
		dx := (coord[0] - float64(scaleX*(int(coord[0])/scaleX))) / float64(scaleX)
		dy := (coord[1] - float64(scaleY*(int(coord[1])/scaleY))) / float64(scaleY)
		weights := [4]float64{
			(1 - dx) * (1 - dy),
			dx * (1 - dy),
			(1 - dx) * dy,
			dx * dy,
		}
		// Samples with zero weight are skipped so that NaNs and infinities
		// only affect the result when they contribute to it.
		for j, weight := range weights {
			if weight != 0 {
				result[i] += samples[4*i+j] * weight
			}
		}
	}
	return result, nil
}

// ResampleBilinear returns a new grid with the given dimensions whose values
// are bilinearly interpolated from g at the centers of the new cells.
func ResampleBilinear(ctx context.Context, g *Grid, rows, cols int) (*Grid, error) {
	srcRows, srcCols := g.Dims()
	coords := make([][]float64, 0, rows*cols)
	for r := range rows {
		y := sourceCoord(r, rows, srcRows)
		for c := range cols {
			coords = append(coords, []float64{sourceCoord(c, cols, srcCols), y})
		}
	}
	values, err := InterpolateBilinear(ctx, g, coords)
	if err != nil {
		return nil, err
	}
	return NewGrid(rows, cols, values)
}

// sourceCoord returns the coordinate in a source of length srcN of the center
// of cell i of a destination of length dstN, clamped to the source's cell
// centers.
func sourceCoord(i, dstN, srcN int) float64 {
	x := (float64(i)+0.5)*float64(srcN)/float64(dstN) - 0.5
	return min(max(x, 0), float64(srcN-1))
}
