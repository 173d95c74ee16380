package software

import (
	"image"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"

	"github.com/Faultbox/crystalview/internal/engine/lighting"
	"github.com/Faultbox/crystalview/internal/engine/renderer"
	"github.com/Faultbox/crystalview/pkg/math"
)

// lineDepthBias pulls lines slightly toward the eye so edges drawn on a
// face are not hidden by it.
const lineDepthBias = 1e-4

type screenVertex struct {
	x, y, z float32
	color   [3]float32
}

func (p *pass) drawTriangles(item drawItem) {
	inv, ok := item.model.InverseOK()
	if !ok {
		return
	}
	normalMatrix := inv.Transpose()
	m := item.d.Mesh
	mat := item.d.Material

	verts := make([]screenVertex, len(m.Vertices))
	for i, v := range m.Vertices {
		world := item.model.TransformVec3(math.V3(v.Position))
		sv := &verts[i]
		sv.x, sv.y, sv.z = p.project(world)
		n := math.V3(normalMatrix.TransformDirection(v.Normal)).Normalize()
		sv.color = lighting.Shade(n, p.viewDir, mat, p.lights)
	}

	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := verts[m.Indices[t]], verts[m.Indices[t+1]], verts[m.Indices[t+2]]
		// Counter-clockwise in NDC is clockwise in pixel space.
		area := edge(a, b, c.x, c.y)
		if area == 0 || (!mat.DoubleSided && area > 0) {
			continue
		}
		p.fillTriangle(a, b, c, area, mat.Opacity)
	}
}

func edge(a, b screenVertex, x, y float32) float32 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

func (p *pass) fillTriangle(a, b, c screenVertex, area, opacity float32) {
	r := p.r
	minX := max(int(math32.Floor(min(a.x, b.x, c.x))), 0)
	maxX := min(int(math32.Ceil(max(a.x, b.x, c.x))), r.width-1)
	minY := max(int(math32.Floor(min(a.y, b.y, c.y))), 0)
	maxY := min(int(math32.Ceil(max(a.y, b.y, c.y))), r.height-1)

	for py := minY; py <= maxY; py++ {
		fy := float32(py) + 0.5
		for px := minX; px <= maxX; px++ {
			fx := float32(px) + 0.5
			w0 := edge(b, c, fx, fy) / area
			w1 := edge(c, a, fx, fy) / area
			w2 := edge(a, b, fx, fy) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			if z < -1 || z > 1 {
				continue
			}
			i := py*r.width + px
			if z >= r.depth[i] {
				continue
			}
			r.depth[i] = z
			var col [3]float32
			for k := 0; k < 3; k++ {
				col[k] = w0*a.color[k] + w1*b.color[k] + w2*c.color[k]
			}
			r.blend(i, col, opacity)
		}
	}
}

func (p *pass) drawLines(item drawItem) {
	m := item.d.Mesh
	mat := item.d.Material
	style := item.d.Style
	r := p.r

	width := float32(r.scale)
	if style != nil && style.Width > 0 {
		width *= style.Width
	}
	half := max(int(width/2), 0)
	col := mat.Color.Array()

	for s := 0; s+1 < len(m.Indices); s += 2 {
		ia, ib := m.Indices[s], m.Indices[s+1]
		ax, ay, az := p.project(item.model.TransformVec3(math.V3(m.Vertices[ia].Position)))
		bx, by, bz := p.project(item.model.TransformVec3(math.V3(m.Vertices[ib].Position)))
		var da, db float32
		if int(max(ia, ib)) < len(m.LineDistances) {
			da, db = m.LineDistances[ia], m.LineDistances[ib]
		}

		steps := int(math32.Ceil(max(math32.Abs(bx-ax), math32.Abs(by-ay))))
		for k := 0; k <= steps; k++ {
			t := float32(0)
			if steps > 0 {
				t = float32(k) / float32(steps)
			}
			if style != nil && style.Dashed {
				d := (da + (db-da)*t) * style.Scale
				if math32.Mod(d, style.DashSize+style.GapSize) > style.DashSize {
					continue
				}
			}
			x := int(ax + (bx-ax)*t)
			y := int(ay + (by-ay)*t)
			z := az + (bz-az)*t - lineDepthBias
			if z < -1 || z > 1 {
				continue
			}
			for oy := -half; oy <= half; oy++ {
				for ox := -half; ox <= half; ox++ {
					px, py := x+ox, y+oy
					if px < 0 || py < 0 || px >= r.width || py >= r.height {
						continue
					}
					i := py*r.width + px
					if z >= r.depth[i] {
						continue
					}
					r.depth[i] = z
					r.blend(i, col, mat.Opacity)
				}
			}
		}
	}
}

// drawLabel writes label text centred on its anchor, on top of the scene.
func (r *Renderer) drawLabel(l labelItem) {
	text := renderer.TextImage(l.label.Text, l.label.Color)
	if text == nil {
		return
	}
	b := text.Bounds()
	x := int(l.x)/r.scale - b.Dx()/2
	y := int(l.y)/r.scale - b.Dy()/2
	draw.Draw(r.out, b.Add(image.Pt(x, y)), text, image.Point{}, draw.Over)
}
