package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/twpayne/go-heatgrid"
	"github.com/twpayne/go-heatgrid/internal/cli"
	"github.com/twpayne/go-heatgrid/internal/ctxlog"
	"github.com/twpayne/go-heatgrid/internal/viewer"
)

// A showFunc displays an image and blocks until the display is dismissed.
type showFunc = func(ctx context.Context, title string, img image.Image) error

func run(ctx context.Context, args []string, stdout, stderr io.Writer, show showFunc) error {
	config, shouldExit, err := cli.Parse(args, stdout, os.Getenv)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := config.NewLogger(stderr)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("parsed config", "config", config)

	dir, filename := filepath.Split(config.Path)
	if dir == "" {
		dir = "."
	}
	g, err := heatgrid.Load(ctx, os.DirFS(dir), filename, heatgrid.WithComma(config.Comma))
	if err != nil {
		return err
	}

	if maxValue := g.Max(); !(maxValue > 0) {
		logger.Warn("grid maximum is not positive, normalized values will not be in [0, 1]",
			"path", config.Path,
			"max", maxValue,
		)
	}
	normalized := heatgrid.Normalize(g)

	rendererOptions := []heatgrid.RendererOption{
		heatgrid.WithColorMap(config.ColorMap),
		heatgrid.WithInterpolation(config.Interpolation),
		heatgrid.WithScale(config.Scale),
	}
	if config.VMin != nil || config.VMax != nil {
		minValue, maxValue, ok := normalized.Range()
		if !ok {
			minValue, maxValue = 0, 1
		}
		if config.VMin != nil {
			minValue = *config.VMin
		}
		if config.VMax != nil {
			maxValue = *config.VMax
		}
		rendererOptions = append(rendererOptions, heatgrid.WithRange(minValue, maxValue))
	}
	renderer, err := heatgrid.NewRenderer(rendererOptions...)
	if err != nil {
		return err
	}
	img, err := renderer.Render(ctx, normalized)
	if err != nil {
		return err
	}

	width := vg.Length(config.Width) * vg.Inch
	height := vg.Length(config.Height) * vg.Inch
	figure := heatgrid.NewFigure(normalized, img, filepath.Base(config.Path))

	if config.Output != "" {
		if config.Raw {
			err = writePNG(config.Output, img)
		} else {
			err = heatgrid.SaveFigure(figure, config.Output, width, height)
		}
		if err != nil {
			return err
		}
		logger.Info("wrote image", "output", config.Output)
		return nil
	}

	if config.Raw {
		return show(ctx, config.Path, img)
	}
	return show(ctx, config.Path, heatgrid.FigureImage(figure, width, height))
}

func writePNG(filename string, img image.Image) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	return png.Encode(file, img)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, viewer.Show); err != nil {
		var exitError *cli.ExitError
		if errors.As(err, &exitError) {
			if exitError.Message != "" {
				fmt.Fprintln(os.Stderr, exitError.Message)
			}
			stop()
			os.Exit(exitError.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
