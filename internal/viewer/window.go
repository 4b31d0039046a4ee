//go:build cgo

package viewer

import (
	"context"
	"errors"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Show displays img in a window titled title. It blocks until the window is
// closed, Escape or Q is pressed, or ctx is done.
func Show(ctx context.Context, title string, img image.Image) error {
	bounds := img.Bounds()
	width, height := windowSize(bounds.Dx(), bounds.Dy())

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	v := &imageViewer{
		ctx: ctx,
		img: ebiten.NewImageFromImage(img),
	}
	switch err := ebiten.RunGame(v); {
	case errors.Is(err, ebiten.Termination):
		return nil
	default:
		return err
	}
}

type imageViewer struct {
	ctx context.Context
	img *ebiten.Image
}

func (v *imageViewer) Update() error {
	if v.ctx.Err() != nil || ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (v *imageViewer) Draw(screen *ebiten.Image) {
	screen.DrawImage(v.img, nil)
}

func (v *imageViewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.img.Bounds().Dx(), v.img.Bounds().Dy()
}
