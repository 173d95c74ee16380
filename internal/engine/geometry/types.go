// Package geometry turns scene primitives into unit meshes placed by
// per-instance transforms.
package geometry

import (
	"github.com/Faultbox/crystalview/pkg/formats"
	"github.com/Faultbox/crystalview/pkg/math"
)

// Vertex is one mesh vertex ready for GPU upload.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Topology tells renderers how to read Indices.
type Topology int

const (
	Triangles Topology = iota
	Lines
)

// Mesh holds CPU-side geometry. Line meshes carry per-vertex cumulative
// distances for dashing.
type Mesh struct {
	Vertices      []Vertex
	Indices       []uint32
	Topology      Topology
	LineDistances []float32
	Bounds        math.Box3
}

// TriangleCount returns the number of triangles, zero for line meshes.
func (m *Mesh) TriangleCount() int {
	if m.Topology != Triangles {
		return 0
	}
	return len(m.Indices) / 3
}

// Triangle returns the corners of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c math.Vec3) {
	return math.V3(m.Vertices[m.Indices[i*3]].Position),
		math.V3(m.Vertices[m.Indices[i*3+1]].Position),
		math.V3(m.Vertices[m.Indices[i*3+2]].Position)
}

func (m *Mesh) computeBounds() {
	b := math.EmptyBox3()
	for _, v := range m.Vertices {
		b = b.ExpandByPoint(math.V3(v.Position))
	}
	m.Bounds = b
}

// Shape describes the base mesh for analytic picking.
type Shape int

const (
	ShapeMesh Shape = iota
	ShapeSphere
	ShapeLine
)

// LineStyle configures line rendering.
type LineStyle struct {
	Width    float32
	Dashed   bool
	DashSize float32
	GapSize  float32
	Scale    float32
}

// Part is one base mesh instanced by a list of transforms.
type Part struct {
	Geometry    *Mesh
	Transforms  []math.Mat4
	Shape       Shape
	DoubleSided bool
	Line        *LineStyle
	Color       formats.Color
	Opacity     *float64 // nil keeps the material default
}

// Bounds returns the world box of every instance.
func (p *Part) Bounds() math.Box3 {
	box := math.EmptyBox3()
	if p.Geometry == nil || p.Geometry.Bounds.IsEmpty() {
		return box
	}
	for _, t := range p.Transforms {
		box = box.Union(p.Geometry.Bounds.Transform(t))
	}
	return box
}

// Label is a text annotation anchored at a point.
type Label struct {
	Text     string
	Hover    string
	Position math.Vec3
	Color    formats.Color
}

// Result is the output of building one primitive.
type Result struct {
	Parts  []Part
	Labels []Label
}

// Bounds returns the union of all parts and label anchors.
func (r *Result) Bounds() math.Box3 {
	box := math.EmptyBox3()
	for i := range r.Parts {
		box = box.Union(r.Parts[i].Bounds())
	}
	for _, l := range r.Labels {
		box = box.ExpandByPoint(l.Position)
	}
	return box
}

// Quality carries the settings that affect tessellation and default sizes.
type Quality struct {
	SphereSegments        int
	CylinderSegments      int
	ObjectScale           float64
	CylinderScale         float64
	DefaultSurfaceOpacity float64
}

// QualityFromSettings extracts the builder settings.
func QualityFromSettings(s formats.Settings) Quality {
	return Quality{
		SphereSegments:        s.SphereSegments,
		CylinderSegments:      s.CylinderSegments,
		ObjectScale:           s.ObjectScale,
		CylinderScale:         s.CylinderScale,
		DefaultSurfaceOpacity: s.DefaultSurfaceOpacity,
	}
}

// DefaultQuality matches the default settings table.
func DefaultQuality() Quality {
	return QualityFromSettings(formats.DefaultSettings())
}
