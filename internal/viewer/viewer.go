// Package viewer displays images in a window.
package viewer

import "errors"

// ErrUnavailable is returned by Show when the binary was built without window
// support.
var ErrUnavailable = errors.New("viewer: window support unavailable")

// maxWindowSize is the largest initial window dimension.
const maxWindowSize = 1024

// windowSize returns the initial window size for an image of the given
// dimensions, scaling small images up and large images down by an integer
// factor.
func windowSize(width, height int) (int, int) {
	if largest := max(width, height); largest > maxWindowSize {
		factor := (largest + maxWindowSize - 1) / maxWindowSize
		return max(width/factor, 1), max(height/factor, 1)
	}
	factor := max(maxWindowSize/2/max(width, height), 1)
	return factor * width, factor * height
}
