package geometry

import (
	"github.com/chewxy/math32"
)

// FullCircle is the phi length of a closed sphere.
const FullCircle = 2 * math32.Pi

// UnitSphere builds a radius-1 UV sphere. phiStart and phiLength select a
// wedge around the Y axis; a full circle gives a closed sphere.
func UnitSphere(widthSegments, heightSegments int, phiStart, phiLength float32) *Mesh {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)

	m := &Mesh{Topology: Triangles}
	for y := 0; y <= heightSegments; y++ {
		v := float32(y) / float32(heightSegments)
		theta := v * math32.Pi
		for x := 0; x <= widthSegments; x++ {
			u := float32(x) / float32(widthSegments)
			phi := phiStart + u*phiLength
			n := [3]float32{
				-math32.Cos(phi) * math32.Sin(theta),
				math32.Cos(theta),
				math32.Sin(phi) * math32.Sin(theta),
			}
			m.Vertices = append(m.Vertices, Vertex{Position: n, Normal: n})
		}
	}

	row := uint32(widthSegments + 1)
	for y := 0; y < heightSegments; y++ {
		for x := 0; x < widthSegments; x++ {
			a := uint32(y)*row + uint32(x+1)
			b := uint32(y)*row + uint32(x)
			c := uint32(y+1)*row + uint32(x)
			d := uint32(y+1)*row + uint32(x+1)
			if y != 0 {
				m.Indices = append(m.Indices, a, b, d)
			}
			if y != heightSegments-1 {
				m.Indices = append(m.Indices, b, c, d)
			}
		}
	}
	m.computeBounds()
	return m
}

// UnitCylinder builds a capped cylinder of radius 1 and height 1 centered on
// the origin along +Y.
func UnitCylinder(radialSegments int) *Mesh {
	return frustum(radialSegments, 1, 1)
}

// UnitCone builds a capped cone of base radius 1 and height 1 centered on the
// origin, tip at +Y.
func UnitCone(radialSegments int) *Mesh {
	return frustum(radialSegments, 0, 1)
}

func frustum(radialSegments int, radiusTop, radiusBottom float32) *Mesh {
	radialSegments = max(radialSegments, 3)
	m := &Mesh{Topology: Triangles}

	// Side normals lean by the slope of the side.
	slope := radiusBottom - radiusTop
	for _, end := range [2]struct{ y, r float32 }{{0.5, radiusTop}, {-0.5, radiusBottom}} {
		for i := 0; i <= radialSegments; i++ {
			theta := float32(i) / float32(radialSegments) * FullCircle
			sin, cos := math32.Sin(theta), math32.Cos(theta)
			n := [3]float32{sin, slope, cos}
			l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
			m.Vertices = append(m.Vertices, Vertex{
				Position: [3]float32{end.r * sin, end.y, end.r * cos},
				Normal:   [3]float32{n[0] / l, n[1] / l, n[2] / l},
			})
		}
	}
	row := uint32(radialSegments + 1)
	for i := uint32(0); i < uint32(radialSegments); i++ {
		a, b := i, row+i
		c, d := row+i+1, i+1
		m.Indices = append(m.Indices, a, b, d, b, c, d)
	}

	addCap := func(y, r, ny float32) {
		if r == 0 {
			return
		}
		center := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, Vertex{Position: [3]float32{0, y, 0}, Normal: [3]float32{0, ny, 0}})
		for i := 0; i <= radialSegments; i++ {
			theta := float32(i) / float32(radialSegments) * FullCircle
			m.Vertices = append(m.Vertices, Vertex{
				Position: [3]float32{r * math32.Sin(theta), y, r * math32.Cos(theta)},
				Normal:   [3]float32{0, ny, 0},
			})
		}
		for i := uint32(1); i <= uint32(radialSegments); i++ {
			if ny > 0 {
				m.Indices = append(m.Indices, center, center+i, center+i+1)
			} else {
				m.Indices = append(m.Indices, center, center+i+1, center+i)
			}
		}
	}
	addCap(0.5, radiusTop, 1)
	addCap(-0.5, radiusBottom, -1)

	m.computeBounds()
	return m
}

// UnitBox builds an axis-aligned cube of edge 1 centered on the origin.
func UnitBox() *Mesh {
	m := &Mesh{Topology: Triangles}
	faces := []struct {
		n, u, v [3]float32
	}{
		{[3]float32{1, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
		{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1}, [3]float32{0, 1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{[3]float32{0, -1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, 1}},
		{[3]float32{0, 0, 1}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0}, [3]float32{0, 1, 0}},
	}
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		for _, c := range [4][2]float32{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}} {
			var p [3]float32
			for k := 0; k < 3; k++ {
				p[k] = 0.5*f.n[k] + c[0]*f.u[k] + c[1]*f.v[k]
			}
			m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: f.n})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	m.computeBounds()
	return m
}
