// Package camera provides the orthographic trackball camera of the viewport.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/crystalview/pkg/math"
)

// OrthoCamera looks at Target from a fixed distance along its orientation.
// The frustum is measured in pixels divided by Zoom, so Zoom is the number
// of pixels per world unit.
type OrthoCamera struct {
	Target      math.Vec3
	Orientation math.Quat
	Distance    float32
	Zoom        float32

	Width, Height int
	Near, Far     float32

	// Constraints
	MinZoom float32
	MaxZoom float32

	// Sensitivity
	RotateSensitivity float32 // radians per pixel
	ZoomSensitivity   float32
}

// NewOrthoCamera creates a camera for a viewport of the given size, looking
// down -Z with +Y up.
func NewOrthoCamera(width, height int) *OrthoCamera {
	return &OrthoCamera{
		Orientation:       math.QuatIdentity(),
		Distance:          50,
		Zoom:              1,
		Width:             width,
		Height:            height,
		Near:              -2000,
		Far:               2000,
		MinZoom:           1e-3,
		MaxZoom:           1e6,
		RotateSensitivity: 0.01,
		ZoomSensitivity:   0.1,
	}
}

// Position returns the eye position in world space.
func (c *OrthoCamera) Position() math.Vec3 {
	return c.Target.Add(c.Orientation.Rotate(math.Vec3{Z: c.Distance}))
}

// Up returns the camera up vector in world space.
func (c *OrthoCamera) Up() math.Vec3 {
	return c.Orientation.Rotate(math.Vec3{Y: 1})
}

// Right returns the camera right vector in world space.
func (c *OrthoCamera) Right() math.Vec3 {
	return c.Orientation.Rotate(math.Vec3{X: 1})
}

// Forward returns the viewing direction.
func (c *OrthoCamera) Forward() math.Vec3 {
	return c.Orientation.Rotate(math.Vec3{Z: -1})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrthoCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Target, c.Up())
}

// ProjectionMatrix returns the orthographic projection.
func (c *OrthoCamera) ProjectionMatrix() math.Mat4 {
	zoom := max(c.Zoom, c.MinZoom)
	hw := float32(c.Width) / 2 / zoom
	hh := float32(c.Height) / 2 / zoom
	return math.Ortho(-hw, hw, -hh, hh, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrthoCamera) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// Resize updates the viewport size. It reports whether anything changed.
func (c *OrthoCamera) Resize(width, height int) bool {
	if c.Width == width && c.Height == height {
		return false
	}
	c.Width, c.Height = width, height
	return true
}

// Rotate applies a trackball rotation for a drag of (dx, dy) pixels. The
// scene follows the pointer.
func (c *OrthoCamera) Rotate(dx, dy float32) {
	l := math32.Sqrt(dx*dx + dy*dy)
	if l == 0 {
		return
	}
	axis := math.Vec3{X: -dy / l, Y: -dx / l}
	turn := math.QuatFromAxisAngle(axis, l*c.RotateSensitivity)
	c.Orientation = c.Orientation.Mul(turn).Normalize()
}

// HandleZoom scales Zoom by the scroll delta, positive zooming in.
func (c *OrthoCamera) HandleZoom(delta float32) {
	c.Zoom *= math32.Pow(1+c.ZoomSensitivity, delta)
	c.Zoom = min(max(c.Zoom, c.MinZoom), c.MaxZoom)
}

// Pan moves the target by a drag of (dx, dy) pixels in screen space.
func (c *OrthoCamera) Pan(dx, dy float32) {
	zoom := max(c.Zoom, c.MinZoom)
	offset := c.Right().Scale(-dx / zoom).Add(c.Up().Scale(dy / zoom))
	c.Target = c.Target.Add(offset)
}

// FitToBounds centers the camera on box and applies zoom. The orientation is
// kept so refits do not jump the view.
func (c *OrthoCamera) FitToBounds(box math.Box3, zoom float32) {
	if !box.IsEmpty() {
		c.Target = box.Center()
	}
	c.Zoom = min(max(zoom, c.MinZoom), c.MaxZoom)
}

// Reset restores the default orientation and zoom.
func (c *OrthoCamera) Reset() {
	c.Orientation = math.QuatIdentity()
	c.Target = math.Vec3{}
	c.Zoom = 1
}

// Project maps a world point to pixel coordinates, origin at the top left.
// depth is in NDC, -1 nearest.
func (c *OrthoCamera) Project(p math.Vec3) (x, y, depth float32) {
	v := c.ViewProjection().MulVec4(math.Vec4{p.X, p.Y, p.Z, 1})
	if v[3] != 0 && v[3] != 1 {
		v[0], v[1], v[2] = v[0]/v[3], v[1]/v[3], v[2]/v[3]
	}
	x = (v[0] + 1) / 2 * float32(c.Width)
	y = (1 - v[1]) / 2 * float32(c.Height)
	return x, y, v[2]
}
