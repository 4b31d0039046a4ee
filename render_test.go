package heatgrid_test

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/twpayne/go-heatgrid"
)

func TestRender(t *testing.T) {
	r, err := heatgrid.NewRenderer()
	assert.NoError(t, err)
	colorTable := r.ColorTable()
	assert.Equal(t, 256, len(colorTable))

	g := heatgrid.Normalize(heatgrid.MustNewGrid([][]float64{
		{0, 2},
		{4, 8},
	}))
	img, err := r.Render(t.Context(), g)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, colorTable[0], img.NRGBAAt(0, 0))
	assert.Equal(t, colorTable.At(0.25), img.NRGBAAt(1, 0))
	assert.Equal(t, colorTable.At(0.5), img.NRGBAAt(0, 1))
	assert.Equal(t, colorTable[255], img.NRGBAAt(1, 1))
}

func TestRenderAutoscale(t *testing.T) {
	r, err := heatgrid.NewRenderer()
	assert.NoError(t, err)
	colorTable := r.ColorTable()

	g := heatgrid.MustNewGrid([][]float64{
		{10, 20, math.NaN(), math.Inf(1)},
	})
	minValue, maxValue := r.Range(g)
	assert.Equal(t, 10.0, minValue)
	assert.Equal(t, 20.0, maxValue)

	img, err := r.Render(t.Context(), g)
	assert.NoError(t, err)
	assert.Equal(t, colorTable[0], img.NRGBAAt(0, 0))
	assert.Equal(t, colorTable[255], img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(2, 0))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(3, 0))
}

func TestRenderAllZero(t *testing.T) {
	badColor := color.NRGBA{R: 0xff, A: 0xff}
	r, err := heatgrid.NewRenderer(heatgrid.WithBadColor(badColor))
	assert.NoError(t, err)

	g := heatgrid.Normalize(heatgrid.MustNewGrid([][]float64{
		{0, 0},
		{0, 0},
	}))
	img, err := r.Render(t.Context(), g)
	assert.NoError(t, err)
	for y := range 2 {
		for x := range 2 {
			assert.Equal(t, badColor, img.NRGBAAt(x, y))
		}
	}
}

func TestRenderConstant(t *testing.T) {
	r, err := heatgrid.NewRenderer()
	assert.NoError(t, err)
	img, err := r.Render(t.Context(), heatgrid.MustNewGrid([][]float64{
		{1, 1},
	}))
	assert.NoError(t, err)
	assert.Equal(t, r.ColorTable()[0], img.NRGBAAt(0, 0))
	assert.Equal(t, r.ColorTable()[0], img.NRGBAAt(1, 0))
}

func TestRenderFixedRange(t *testing.T) {
	r, err := heatgrid.NewRenderer(
		heatgrid.WithColorMap("blackbody"),
		heatgrid.WithColorTableSize(4),
		heatgrid.WithRange(0, 1),
	)
	assert.NoError(t, err)
	colorTable := r.ColorTable()
	assert.Equal(t, 4, len(colorTable))

	img, err := r.Render(t.Context(), heatgrid.MustNewGrid([][]float64{
		{-1, 0.3, 0.6, 2},
	}))
	assert.NoError(t, err)
	assert.Equal(t, colorTable[0], img.NRGBAAt(0, 0))
	assert.Equal(t, colorTable[1], img.NRGBAAt(1, 0))
	assert.Equal(t, colorTable[2], img.NRGBAAt(2, 0))
	assert.Equal(t, colorTable[3], img.NRGBAAt(3, 0))
}

func TestRenderOverflowingRange(t *testing.T) {
	badColor := color.NRGBA{R: 0xff, A: 0xff}
	r, err := heatgrid.NewRenderer(heatgrid.WithBadColor(badColor))
	assert.NoError(t, err)
	img, err := r.Render(t.Context(), heatgrid.MustNewGrid([][]float64{
		{-math.MaxFloat64, 0, math.MaxFloat64},
	}))
	assert.NoError(t, err)
	assert.Equal(t, r.ColorTable()[0], img.NRGBAAt(0, 0))
	assert.Equal(t, badColor, img.NRGBAAt(2, 0))
}

func TestRenderBilinearBadNeighbor(t *testing.T) {
	badColor := color.NRGBA{R: 0xff, A: 0xff}
	r, err := heatgrid.NewRenderer(
		heatgrid.WithBadColor(badColor),
		heatgrid.WithInterpolation(heatgrid.InterpolationBilinear),
		heatgrid.WithRange(0, 1),
		heatgrid.WithScale(4),
	)
	assert.NoError(t, err)
	img, err := r.Render(t.Context(), heatgrid.MustNewGrid([][]float64{
		{0.5, math.NaN()},
	}))
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
	for x := range 2 {
		assert.Equal(t, r.ColorTable().At(0.5), img.NRGBAAt(x, 0))
	}
	assert.Equal(t, badColor, img.NRGBAAt(7, 0))
}

func TestRenderScale(t *testing.T) {
	g := heatgrid.MustNewGrid([][]float64{
		{0, 1, 2},
		{3, 4, 5},
	})

	nearest, err := heatgrid.NewRenderer(heatgrid.WithScale(4))
	assert.NoError(t, err)
	img, err := nearest.Render(t.Context(), g)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
	colorTable := nearest.ColorTable()
	assert.Equal(t, colorTable[0], img.NRGBAAt(0, 0))
	assert.Equal(t, colorTable[0], img.NRGBAAt(3, 3))
	assert.Equal(t, colorTable[255], img.NRGBAAt(11, 7))
	assert.Equal(t, colorTable[255], img.NRGBAAt(8, 4))

	bilinear, err := heatgrid.NewRenderer(
		heatgrid.WithScale(4),
		heatgrid.WithInterpolation(heatgrid.InterpolationBilinear),
	)
	assert.NoError(t, err)
	img, err = bilinear.Render(t.Context(), g)
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
	assert.Equal(t, colorTable[0], img.NRGBAAt(0, 0))
	assert.Equal(t, colorTable[255], img.NRGBAAt(11, 7))
	assert.NotEqual(t, img.NRGBAAt(0, 0), img.NRGBAAt(2, 0))
}

func TestNewRendererErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		options []heatgrid.RendererOption
	}{
		{
			name:    "color_map",
			options: []heatgrid.RendererOption{heatgrid.WithColorMap("jet")},
		},
		{
			name:    "scale",
			options: []heatgrid.RendererOption{heatgrid.WithScale(0)},
		},
		{
			name:    "range",
			options: []heatgrid.RendererOption{heatgrid.WithRange(1, 0)},
		},
		{
			name:    "nan_range",
			options: []heatgrid.RendererOption{heatgrid.WithRange(math.NaN(), 1)},
		},
		{
			name:    "inf_range",
			options: []heatgrid.RendererOption{heatgrid.WithRange(math.Inf(-1), 1)},
		},
		{
			name:    "inf_inf_range",
			options: []heatgrid.RendererOption{heatgrid.WithRange(math.Inf(1), math.Inf(1))},
		},
		{
			name:    "color_table_size",
			options: []heatgrid.RendererOption{heatgrid.WithColorTableSize(1)},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := heatgrid.NewRenderer(tc.options...)
			assert.Error(t, err)
		})
	}
}
