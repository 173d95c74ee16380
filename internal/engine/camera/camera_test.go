package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/crystalview/pkg/math"
)

func TestOrthoCamera_ProjectCenterAndEdges(t *testing.T) {
	c := NewOrthoCamera(800, 600)
	c.Zoom = 100

	x, y, _ := c.Project(math.Vec3{})
	assert.InDelta(t, 400, x, 1e-3)
	assert.InDelta(t, 300, y, 1e-3)

	// 4 world units right of center is the right edge at zoom 100.
	x, y, _ = c.Project(math.Vec3{X: 4, Y: 3})
	assert.InDelta(t, 800, x, 1e-3)
	assert.InDelta(t, 0, y, 1e-3)
}

func TestOrthoCamera_ProjectionMatchesMathgl(t *testing.T) {
	c := NewOrthoCamera(640, 480)
	c.Zoom = 32
	ours := c.ProjectionMatrix()
	ref := mgl32.Ortho(-10, 10, -7.5, 7.5, c.Near, c.Far)
	for i := range ours {
		assert.InDelta(t, ref[i], ours[i], 1e-5, "element %d", i)
	}
}

func TestOrthoCamera_RotateKeepsDistance(t *testing.T) {
	c := NewOrthoCamera(100, 100)
	c.Target = math.Vec3{X: 1, Y: 2, Z: 3}
	c.Rotate(40, -25)
	c.Rotate(-10, 70)

	assert.InDelta(t, c.Distance, c.Position().Distance(c.Target), 1e-3)
	assert.InDelta(t, 1, c.Orientation.Normalize().Dot(c.Orientation), 1e-5)
	assert.InDelta(t, 0, c.Up().Dot(c.Forward()), 1e-5)
}

func TestOrthoCamera_RotateRightOrbitsLeft(t *testing.T) {
	c := NewOrthoCamera(100, 100)
	c.Rotate(10, 0)
	assert.Less(t, c.Position().X, float32(0), "dragging right moves the eye to the left")

	before := c.Orientation
	c.Rotate(0, 0)
	assert.Equal(t, before, c.Orientation)
}

func TestOrthoCamera_Zoom(t *testing.T) {
	c := NewOrthoCamera(100, 100)
	c.HandleZoom(1)
	assert.InDelta(t, 1.1, c.Zoom, 1e-5)
	c.HandleZoom(-1)
	assert.InDelta(t, 1, c.Zoom, 1e-5)

	c.HandleZoom(-1e4)
	assert.Equal(t, c.MinZoom, c.Zoom)
}

func TestOrthoCamera_Pan(t *testing.T) {
	c := NewOrthoCamera(100, 100)
	c.Zoom = 10
	c.Pan(20, 10)
	assert.InDelta(t, -2, c.Target.X, 1e-5)
	assert.InDelta(t, 1, c.Target.Y, 1e-5)
}

func TestOrthoCamera_FitToBounds(t *testing.T) {
	c := NewOrthoCamera(100, 100)
	c.FitToBounds(math.Box3{Min: math.Vec3{X: 2}, Max: math.Vec3{X: 4, Y: 2, Z: 2}}, 25)
	assert.Equal(t, math.Vec3{X: 3, Y: 1, Z: 1}, c.Target)
	assert.Equal(t, float32(25), c.Zoom)

	c.FitToBounds(math.EmptyBox3(), 5)
	assert.Equal(t, math.Vec3{X: 3, Y: 1, Z: 1}, c.Target, "empty box keeps the target")
}

func TestOrthoCamera_Resize(t *testing.T) {
	c := NewOrthoCamera(100, 100)
	assert.False(t, c.Resize(100, 100))
	assert.True(t, c.Resize(200, 100))
	assert.Equal(t, 200, c.Width)
}
