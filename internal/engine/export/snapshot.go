package export

import (
	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/scene"
	"github.com/Faultbox/crystalview/pkg/math"
)

// MeshSnapshot is one drawable with every instance baked into world space.
type MeshSnapshot struct {
	Name        string
	Lines       bool
	Positions   [][3]float32
	Normals     [][3]float32 // empty for lines
	Indices     []uint32
	Color       [3]float32
	Opacity     float32
	DoubleSided bool
}

// TriangleCount returns the number of triangles, zero for lines.
func (m *MeshSnapshot) TriangleCount() int {
	if m.Lines {
		return 0
	}
	return len(m.Indices) / 3
}

// Snapshot is the visible scene geometry in world space. It shares nothing
// with the live tree, so it can be encoded on another goroutine.
type Snapshot struct {
	Name   string
	Meshes []MeshSnapshot
}

// TakeSnapshot bakes the visible part of root. Hidden subtrees, labels and
// instances with a singular transform are left out.
func TakeSnapshot(root *scene.Object) *Snapshot {
	s := &Snapshot{Name: "scene"}
	if root == nil {
		return s
	}
	if root.Name != "" {
		s.Name = root.Name
	}
	root.Walk(func(obj *scene.Object) bool {
		if !obj.Visible {
			return false
		}
		world := obj.WorldMatrix()
		for _, d := range obj.Drawables {
			if d.Mesh == nil || d.Material == nil || len(d.Mesh.Indices) == 0 {
				continue
			}
			ms := MeshSnapshot{
				Name:        obj.Name,
				Lines:       d.Mesh.Topology == geometry.Lines,
				Color:       d.Material.Color.Array(),
				Opacity:     d.Material.Opacity,
				DoubleSided: d.Material.DoubleSided,
			}
			for _, t := range d.Transforms {
				bake(&ms, d.Mesh, world.Mul(t))
			}
			if len(ms.Indices) > 0 {
				s.Meshes = append(s.Meshes, ms)
			}
		}
		return true
	})
	return s
}

func bake(dst *MeshSnapshot, mesh *geometry.Mesh, model math.Mat4) {
	inv, ok := model.InverseOK()
	if !ok {
		return
	}
	normalMatrix := inv.Transpose()
	base := uint32(len(dst.Positions))
	for _, v := range mesh.Vertices {
		dst.Positions = append(dst.Positions, model.TransformPoint(v.Position))
		if !dst.Lines {
			n := math.V3(normalMatrix.TransformDirection(v.Normal)).Normalize()
			dst.Normals = append(dst.Normals, n.Array())
		}
	}
	for _, i := range mesh.Indices {
		dst.Indices = append(dst.Indices, base+i)
	}
}

// Bounds returns the world box of every vertex.
func (s *Snapshot) Bounds() math.Box3 {
	box := math.EmptyBox3()
	for _, m := range s.Meshes {
		for _, p := range m.Positions {
			box = box.ExpandByPoint(math.V3(p))
		}
	}
	return box
}
