package heatgrid

import (
	"image"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// rowTicks labels the Y axis with row indexes, which increase downwards.
type rowTicks struct {
	rows int
}

func (t rowTicks) Ticks(minValue, maxValue float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(minValue, maxValue)
	for i, tick := range ticks {
		if tick.Label != "" {
			ticks[i].Label = strconv.FormatFloat(float64(t.rows)-tick.Value, 'f', -1, 64)
		}
	}
	return ticks
}

// NewFigure returns a plot of img, which must be a rendering of g, with axes
// labelled by column and row.
func NewFigure(g *Grid, img image.Image, title string) *plot.Plot {
	rows, cols := g.Dims()

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.X.Min, p.X.Max = 0, float64(cols)
	p.Y.Min, p.Y.Max = 0, float64(rows)
	p.Y.Tick.Marker = rowTicks{rows: rows}
	p.Add(plotter.NewImage(img, 0, 0, float64(cols), float64(rows)))
	return p
}

// SaveFigure saves p to filename. The format is determined by filename's
// extension.
func SaveFigure(p *plot.Plot, filename string, width, height vg.Length) error {
	return p.Save(width, height, filename)
}

// FigureImage renders p as an image.
func FigureImage(p *plot.Plot, width, height vg.Length) image.Image {
	c := vgimg.New(width, height)
	p.Draw(draw.New(c))
	return c.Image()
}
