//go:build !cgo

package viewer

import (
	"context"
	"image"
)

// Show returns ErrUnavailable.
func Show(ctx context.Context, title string, img image.Image) error {
	return ErrUnavailable
}
