// Package debug builds overlay scene nodes: selection boxes, the axis triad
// and light helpers. Overlays are ordinary scene descriptions and go through
// the same assembler as payload content.
package debug

import (
	"github.com/Faultbox/crystalview/pkg/formats"
	"github.com/Faultbox/crystalview/pkg/math"
)

// DefaultBBoxPadding is the padding for selection boxes, in world units.
const DefaultBBoxPadding = 0.05

// BBoxVertexCount is the number of endpoints of a box wireframe (12 edges × 2).
const BBoxVertexCount = 24

var selectionColor = formats.MustColor("#ff8c00")

// BBoxSegments returns the endpoints of the 12 edges of box grown by padding
// on every side, as consecutive pairs.
func BBoxSegments(box math.Box3, padding float32) [][3]float64 {
	lo := box.Min.Sub(math.Vec3{X: padding, Y: padding, Z: padding})
	hi := box.Max.Add(math.Vec3{X: padding, Y: padding, Z: padding})
	x0, y0, z0 := float64(lo.X), float64(lo.Y), float64(lo.Z)
	x1, y1, z1 := float64(hi.X), float64(hi.Y), float64(hi.Z)

	return [][3]float64{
		// Bottom face
		{x0, y0, z0}, {x1, y0, z0},
		{x1, y0, z0}, {x1, y0, z1},
		{x1, y0, z1}, {x0, y0, z1},
		{x0, y0, z1}, {x0, y0, z0},
		// Top face
		{x0, y1, z0}, {x1, y1, z0},
		{x1, y1, z0}, {x1, y1, z1},
		{x1, y1, z1}, {x0, y1, z1},
		{x0, y1, z1}, {x0, y1, z0},
		// Verticals
		{x0, y0, z0}, {x0, y1, z0},
		{x1, y0, z0}, {x1, y1, z0},
		{x1, y0, z1}, {x1, y1, z1},
		{x0, y0, z1}, {x0, y1, z1},
	}
}

// SelectionBox returns a dashed wireframe around box, or nil for an empty box.
func SelectionBox(name string, box math.Box3, padding float32) *formats.SceneNode {
	if box.IsEmpty() {
		return nil
	}
	dash, gap := 0.1, 0.05
	return &formats.SceneNode{
		Name: name,
		Primitive: &formats.Primitive{
			Kind:      formats.KindLines,
			Type:      formats.KindLines.String(),
			Positions: BBoxSegments(box, padding),
			Color:     selectionColor,
			DashSize:  &dash,
			GapSize:   &gap,
		},
	}
}
