package geometry

import (
	"github.com/Faultbox/crystalview/pkg/math"
)

// LineSegments builds a line mesh from consecutive endpoint pairs and fills in
// cumulative line distances for dashing.
func LineSegments(pts []math.Vec3) *Mesh {
	m := &Mesh{Topology: Lines}
	for i := 0; i+1 < len(pts); i += 2 {
		base := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices,
			Vertex{Position: pts[i].Array()},
			Vertex{Position: pts[i+1].Array()},
		)
		m.Indices = append(m.Indices, base, base+1)
	}
	m.LineDistances = LineDistances(m)
	m.computeBounds()
	return m
}

// LineDistances returns the running distance at every vertex of a segment
// list. Each segment starts where the previous one ended.
func LineDistances(m *Mesh) []float32 {
	d := make([]float32, len(m.Vertices))
	for i := 0; i+1 < len(m.Vertices); i += 2 {
		if i > 0 {
			d[i] = d[i-1]
		}
		a, b := math.V3(m.Vertices[i].Position), math.V3(m.Vertices[i+1].Position)
		d[i+1] = d[i] + a.Distance(b)
	}
	return d
}

// edgePart outlines the triangle edges of m. Edges between coplanar
// triangles are left out so hull faces read as polygons.
func edgePart(m *Mesh) Part {
	type key [2][3]float32
	type edge struct {
		a, b   math.Vec3
		normal [3]float32
		hidden bool
	}
	index := make(map[key]int)
	var edges []edge
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		n := m.Vertices[m.Indices[i*3]].Normal
		for _, e := range [3][2]math.Vec3{{a, b}, {b, c}, {c, a}} {
			k := key{e[0].Array(), e[1].Array()}
			j, ok := index[k]
			if !ok {
				j, ok = index[key{k[1], k[0]}]
			}
			if ok {
				if math.V3(edges[j].normal).Dot(math.V3(n)) > 0.9999 {
					edges[j].hidden = true
				}
				continue
			}
			index[k] = len(edges)
			edges = append(edges, edge{a: e[0], b: e[1], normal: n})
		}
	}

	var pts []math.Vec3
	for _, e := range edges {
		if !e.hidden {
			pts = append(pts, e.a, e.b)
		}
	}
	return Part{
		Geometry:   LineSegments(pts),
		Transforms: []math.Mat4{math.Identity()},
		Shape:      ShapeLine,
		Line:       &LineStyle{Width: DefaultLineWidth},
		Color:      edgeColor,
	}
}
