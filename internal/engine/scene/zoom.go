package scene

import (
	"github.com/Faultbox/crystalview/pkg/math"
)

// AutoZoom returns the orthographic zoom that makes the largest dimension of
// box span defaultZoom of the larger viewport side. Empty or flat boxes get a
// zoom of 1.
func AutoZoom(box math.Box3, viewportW, viewportH int, defaultZoom float64) float32 {
	if box.IsEmpty() {
		return 1
	}
	maxDim := box.MaxDimension()
	if maxDim <= 0 {
		return 1
	}
	return float32(max(viewportW, viewportH)) * float32(defaultZoom) / maxDim
}
