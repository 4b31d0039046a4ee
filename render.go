package heatgrid

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/twpayne/go-heatgrid/internal/ctxlog"
)

const defaultColorTableSize = 256

// A Renderer renders grids as images.
type Renderer struct {
	colorMapName   string
	colorTableSize int
	colorTable     ColorTable
	interpolation  Interpolation
	scale          int
	fixedRange     bool
	minValue       float64
	maxValue       float64
	badColor       color.NRGBA
}

// A RendererOption sets an option on a Renderer.
type RendererOption func(*Renderer)

// NewRenderer returns a new Renderer with the given options.
func NewRenderer(options ...RendererOption) (*Renderer, error) {
	r := &Renderer{
		colorMapName:   DefaultColorMapName,
		colorTableSize: defaultColorTableSize,
		interpolation:  InterpolationNearest,
		scale:          1,
	}
	for _, option := range options {
		option(r)
	}

	if r.scale < 1 {
		return nil, fmt.Errorf("%d: invalid scale", r.scale)
	}
	if r.fixedRange && (!isFinite(r.minValue) || !isFinite(r.maxValue) || r.minValue > r.maxValue) {
		return nil, fmt.Errorf("[%g, %g]: invalid range", r.minValue, r.maxValue)
	}

	var err error
	r.colorTable, err = defaultColorTableCache.get(r.colorMapName, r.colorTableSize)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// WithBadColor sets the color used for NaN and infinite values. The default
// is transparent.
func WithBadColor(badColor color.Color) RendererOption {
	return func(r *Renderer) {
		r.badColor = color.NRGBAModel.Convert(badColor).(color.NRGBA)
	}
}

// WithColorMap sets the color map by name.
func WithColorMap(name string) RendererOption {
	return func(r *Renderer) {
		r.colorMapName = name
	}
}

// WithColorTableSize sets the number of distinct colors.
func WithColorTableSize(colorTableSize int) RendererOption {
	return func(r *Renderer) {
		r.colorTableSize = colorTableSize
	}
}

// WithInterpolation sets the interpolation used when scaling.
func WithInterpolation(interpolation Interpolation) RendererOption {
	return func(r *Renderer) {
		r.interpolation = interpolation
	}
}

// WithRange sets the values that map to the ends of the color map. By
// default, the range is the range of finite values in the grid.
func WithRange(minValue, maxValue float64) RendererOption {
	return func(r *Renderer) {
		r.fixedRange = true
		r.minValue = minValue
		r.maxValue = maxValue
	}
}

// WithScale sets the number of pixels per cell along each axis.
func WithScale(scale int) RendererOption {
	return func(r *Renderer) {
		r.scale = scale
	}
}

// ColorTable returns r's color table.
func (r *Renderer) ColorTable() ColorTable {
	return r.colorTable
}

// Range returns the values that r maps to the ends of its color map when
// rendering g.
func (r *Renderer) Range(g *Grid) (float64, float64) {
	if r.fixedRange {
		return r.minValue, r.maxValue
	}
	minValue, maxValue, ok := g.Range()
	if !ok {
		return 0, 1
	}
	return minValue, maxValue
}

// Render renders g as an image with one row of cells per r.scale rows of
// pixels. Row zero is at the top.
func (r *Renderer) Render(ctx context.Context, g *Grid) (*image.NRGBA, error) {
	minValue, maxValue := r.Range(g)
	rows, cols := g.Dims()
	ctxlog.FromContext(ctx).Debug("rendering grid",
		"rows", rows,
		"cols", cols,
		"min", minValue,
		"max", maxValue,
		"colorMap", r.colorMapName,
		"interpolation", r.interpolation,
		"scale", r.scale,
	)

	if r.scale == 1 || r.interpolation == InterpolationNearest {
		img := r.colorize(g, minValue, maxValue)
		if r.scale == 1 {
			return img, nil
		}
		scaled := image.NewNRGBA(image.Rect(0, 0, r.scale*cols, r.scale*rows))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		return scaled, nil
	}

	resampled, err := ResampleBilinear(ctx, g, r.scale*rows, r.scale*cols)
	if err != nil {
		return nil, err
	}
	return r.colorize(resampled, minValue, maxValue), nil
}

// colorize returns an image with one pixel per cell of g.
func (r *Renderer) colorize(g *Grid, minValue, maxValue float64) *image.NRGBA {
	rows, cols := g.Dims()
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	span := maxValue - minValue
	for y := range rows {
		for x := range cols {
			value := g.At(y, x)
			var c color.NRGBA
			switch {
			case !isFinite(value):
				c = r.badColor
			case span == 0:
				c = r.colorTable[0]
			default:
				if ratio := (value - minValue) / span; math.IsNaN(ratio) {
					c = r.badColor
				} else {
					c = r.colorTable.At(ratio)
				}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
