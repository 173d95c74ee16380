package debug

import (
	"github.com/Faultbox/crystalview/pkg/formats"
	"github.com/Faultbox/crystalview/pkg/math"
)

// AxesNodeName is the node name the triad is looked up and created under.
const AxesNodeName = "axes"

// TriadFraction is the triad length relative to the scene's largest dimension.
const TriadFraction = 0.25

var (
	axisColors = [3]formats.Color{
		formats.MustColor("#d62728"),
		formats.MustColor("#2ca02c"),
		formats.MustColor("#1f77b4"),
	}
	cartesian = [3]math.Vec3{{X: 1}, {Y: 1}, {Z: 1}}
)

// TriadAxes returns the unit directions and names of the triad: the lattice
// vectors a, b, c when three non-degenerate ones are given, x, y, z otherwise.
func TriadAxes(lattice [][3]float64) ([3]math.Vec3, [3]string) {
	if len(lattice) == 3 {
		var dirs [3]math.Vec3
		ok := true
		for i, v := range lattice {
			d := math.V3d(v)
			if d.Length() < 1e-9 {
				ok = false
				break
			}
			dirs[i] = d.Normalize()
		}
		if ok && dirs[0].Cross(dirs[1]).Dot(dirs[2]) != 0 {
			return dirs, [3]string{"a", "b", "c"}
		}
	}
	return cartesian, [3]string{"x", "y", "z"}
}

// AxisTriad returns one colored arrow per axis from origin with a label at
// each tip. A non-positive length yields nil.
func AxisTriad(origin math.Vec3, dirs [3]math.Vec3, names [3]string, length float32) *formats.SceneNode {
	if length <= 0 {
		return nil
	}
	radius := float64(length) * 0.03
	o := [3]float64{float64(origin.X), float64(origin.Y), float64(origin.Z)}

	node := &formats.SceneNode{Name: AxesNodeName}
	for i, d := range dirs {
		tip := origin.Add(d.Scale(length))
		t := [3]float64{float64(tip.X), float64(tip.Y), float64(tip.Z)}
		labelAt := origin.Add(d.Scale(length * 1.15))

		r := radius
		node.Contents = append(node.Contents,
			formats.SceneNode{Name: names[i], Primitive: &formats.Primitive{
				Kind:          formats.KindArrows,
				Type:          formats.KindArrows.String(),
				PositionPairs: [][2][3]float64{{o, t}},
				Color:         axisColors[i],
				Radius:        &r,
			}},
			formats.SceneNode{Name: names[i] + "-label", Primitive: &formats.Primitive{
				Kind:      formats.KindLabels,
				Type:      formats.KindLabels.String(),
				Positions: [][3]float64{{float64(labelAt.X), float64(labelAt.Y), float64(labelAt.Z)}},
				Label:     names[i],
				Color:     axisColors[i],
			}},
		)
	}
	return node
}

// SceneTriad builds the triad for a scene whose world box is box: anchored
// at box.Min, TriadFraction of the largest dimension long.
func SceneTriad(root *formats.SceneNode, box math.Box3) *formats.SceneNode {
	if box.IsEmpty() {
		return nil
	}
	var lattice [][3]float64
	if root != nil {
		lattice = root.Lattice
	}
	dirs, names := TriadAxes(lattice)
	return AxisTriad(box.Min, dirs, names, TriadFraction*box.MaxDimension())
}
