package geometry

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/crystalview/pkg/formats"
	"github.com/Faultbox/crystalview/pkg/math"
)

// Default line and arrow parameters.
const (
	DefaultLineWidth   = 1.0
	DefaultDashSize    = 3.0
	DefaultGapSize     = 1.0
	DefaultDashScale   = 1.0
	HeadLengthFraction = 0.25
	BezierSegments     = 16
)

var (
	axisX = math.Vec3{X: 1}
	axisY = math.Vec3{Y: 1}

	edgeColor  = formats.MustColor("#000000")
	labelColor = formats.MustColor("#000000")
)

// Build produces the meshes and labels for one primitive.
func Build(p *formats.Primitive, q Quality) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil primitive", formats.ErrMalformedPrimitive)
	}
	switch p.Kind {
	case formats.KindSpheres:
		return buildSpheres(p, q), nil
	case formats.KindEllipsoids:
		return buildEllipsoids(p, q), nil
	case formats.KindCylinders:
		return buildCylinders(p, q), nil
	case formats.KindCubes:
		return buildCubes(p, q), nil
	case formats.KindLines:
		return buildLines(p), nil
	case formats.KindSurface:
		return buildSurface(p, q), nil
	case formats.KindConvex:
		return buildConvex(p, q)
	case formats.KindArrows:
		return buildArrows(p, q), nil
	case formats.KindLabels:
		return buildLabels(p), nil
	case formats.KindBezier:
		return buildBezier(p, q), nil
	default:
		return nil, fmt.Errorf("%w: %q", formats.ErrUnrecognizedPrimitiveType, p.Type)
	}
}

// SegmentTransform places the unit Y-axis cylinder between a and b. A zero
// length segment collapses to a flat disc at a with identity rotation.
func SegmentTransform(a, b math.Vec3, radius float32) math.Mat4 {
	d := b.Sub(a)
	length := d.Length()
	mid := a.Add(d.Scale(0.5))
	if length < 1e-9 {
		return math.Compose(mid, math.QuatIdentity(), math.Vec3{X: radius, Y: 0, Z: radius})
	}
	return math.Compose(mid, math.QuatFromTo(axisY, d), math.Vec3{X: radius, Y: length, Z: radius})
}

func orDefault(v *float64, def float64) float32 {
	if v == nil {
		return float32(def)
	}
	return float32(*v)
}

func buildSpheres(p *formats.Primitive, q Quality) *Result {
	r := orDefault(p.Radius, q.ObjectScale)
	phiStart := orDefault(p.PhiStart, 0)
	phiEnd := orDefault(p.PhiEnd, float64(FullCircle))
	phiLength := phiEnd - phiStart
	closed := math32.Abs(phiLength) >= FullCircle-1e-4

	part := Part{
		Geometry:    UnitSphere(q.SphereSegments, q.SphereSegments/2, phiStart, phiLength),
		Shape:       ShapeMesh,
		DoubleSided: !closed,
		Color:       p.Color,
		Opacity:     p.Opacity,
	}
	if closed {
		part.Shape = ShapeSphere
	}
	for i, pos := range p.Positions {
		part.Transforms = append(part.Transforms, EllipsoidTransform(math.V3d(pos), p.Ellipsoids, i, r))
	}
	return &Result{Parts: []Part{part}}
}

// EllipsoidTransform places instance i of a unit sphere: scaled by radius
// and the instance scale, then turned so local x points along the instance
// rotation vector. A nil set gives a round sphere.
func EllipsoidTransform(pos math.Vec3, set *formats.EllipsoidSet, i int, radius float32) math.Mat4 {
	rot, scale := axisX, math.Vec3{X: 1, Y: 1, Z: 1}
	if set != nil {
		if i < len(set.Rotations) {
			rot = math.V3d(set.Rotations[i])
		}
		if i < len(set.Scales) {
			scale = math.V3d(set.Scales[i])
		}
	}
	return math.Compose(pos, math.QuatFromTo(axisX, rot), scale.Scale(radius))
}

func buildEllipsoids(p *formats.Primitive, q Quality) *Result {
	part := Part{
		Geometry: UnitSphere(q.SphereSegments, q.SphereSegments/2, 0, FullCircle),
		Shape:    ShapeSphere,
		Color:    p.Color,
		Opacity:  p.Opacity,
	}
	s := float32(q.ObjectScale)
	for i, pos := range p.Positions {
		part.Transforms = append(part.Transforms, EllipsoidTransform(math.V3d(pos), p.Ellipsoids, i, s))
	}
	return &Result{Parts: []Part{part}}
}

func buildCylinders(p *formats.Primitive, q Quality) *Result {
	r := orDefault(p.Radius, q.CylinderScale)
	part := Part{
		Geometry: UnitCylinder(q.CylinderSegments),
		Shape:    ShapeMesh,
		Color:    p.Color,
		Opacity:  p.Opacity,
	}
	for _, pair := range p.PositionPairs {
		part.Transforms = append(part.Transforms, SegmentTransform(math.V3d(pair[0]), math.V3d(pair[1]), r))
	}
	return &Result{Parts: []Part{part}}
}

func buildCubes(p *formats.Primitive, q Quality) *Result {
	w := orDefault(p.Width, q.ObjectScale)
	part := Part{
		Geometry: UnitBox(),
		Shape:    ShapeMesh,
		Color:    p.Color,
		Opacity:  p.Opacity,
	}
	for _, pos := range p.Positions {
		part.Transforms = append(part.Transforms, math.Compose(math.V3d(pos), math.QuatIdentity(), math.Vec3{X: w, Y: w, Z: w}))
	}
	return &Result{Parts: []Part{part}}
}

func buildLines(p *formats.Primitive) *Result {
	pts := make([]math.Vec3, len(p.Positions))
	for i, pos := range p.Positions {
		pts[i] = math.V3d(pos)
	}
	style := &LineStyle{Width: orDefault(p.LineWidth, DefaultLineWidth)}
	if p.DashSize != nil || p.GapSize != nil {
		style.Dashed = true
		style.DashSize = orDefault(p.DashSize, DefaultDashSize)
		style.GapSize = orDefault(p.GapSize, DefaultGapSize)
		style.Scale = orDefault(p.Scale, DefaultDashScale)
	}
	return &Result{Parts: []Part{{
		Geometry:   LineSegments(pts),
		Transforms: []math.Mat4{math.Identity()},
		Shape:      ShapeLine,
		Line:       style,
		Color:      p.Color,
		Opacity:    p.Opacity,
	}}}
}

func buildSurface(p *formats.Primitive, q Quality) *Result {
	m := &Mesh{Topology: Triangles}
	computed := len(p.Normals) != len(p.Positions)
	for i := 0; i+2 < len(p.Positions); i += 3 {
		a, b, c := math.V3d(p.Positions[i]), math.V3d(p.Positions[i+1]), math.V3d(p.Positions[i+2])
		face := b.Sub(a).Cross(c.Sub(a)).Normalize().Array()
		base := uint32(len(m.Vertices))
		for k, v := range [3]math.Vec3{a, b, c} {
			n := face
			if !computed {
				n = math.V3d(p.Normals[i+k]).Normalize().Array()
			}
			m.Vertices = append(m.Vertices, Vertex{Position: v.Array(), Normal: n})
		}
		m.Indices = append(m.Indices, base, base+1, base+2)
	}
	m.computeBounds()

	opacity := p.Opacity
	if opacity == nil {
		o := q.DefaultSurfaceOpacity
		opacity = &o
	}
	res := &Result{Parts: []Part{{
		Geometry:    m,
		Transforms:  []math.Mat4{math.Identity()},
		Shape:       ShapeMesh,
		DoubleSided: computed,
		Color:       p.Color,
		Opacity:     opacity,
	}}}
	if p.ShowEdges {
		res.Parts = append(res.Parts, edgePart(m))
	}
	return res
}

func buildConvex(p *formats.Primitive, q Quality) (*Result, error) {
	pts := make([]math.Vec3, len(p.Positions))
	for i, pos := range p.Positions {
		pts[i] = math.V3d(pos)
	}
	tris, err := ConvexHull(pts)
	if err != nil {
		return nil, fmt.Errorf("%w: convex: %v", formats.ErrMalformedPrimitive, err)
	}

	m := &Mesh{Topology: Triangles}
	for _, t := range tris {
		a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
		n := b.Sub(a).Cross(c.Sub(a)).Normalize().Array()
		base := uint32(len(m.Vertices))
		for _, v := range [3]math.Vec3{a, b, c} {
			m.Vertices = append(m.Vertices, Vertex{Position: v.Array(), Normal: n})
		}
		m.Indices = append(m.Indices, base, base+1, base+2)
	}
	m.computeBounds()

	opacity := p.Opacity
	if opacity == nil {
		o := q.DefaultSurfaceOpacity
		opacity = &o
	}
	edges := edgePart(m)
	edges.Color = p.Color
	return &Result{Parts: []Part{
		{
			Geometry:   m,
			Transforms: []math.Mat4{math.Identity()},
			Shape:      ShapeMesh,
			Color:      p.Color,
			Opacity:    opacity,
		},
		edges,
	}}, nil
}

func buildArrows(p *formats.Primitive, q Quality) *Result {
	r := orDefault(p.Radius, q.CylinderScale)
	shaft := Part{Geometry: UnitCylinder(q.CylinderSegments), Shape: ShapeMesh, Color: p.Color, Opacity: p.Opacity}
	head := Part{Geometry: UnitCone(q.CylinderSegments), Shape: ShapeMesh, Color: p.Color, Opacity: p.Opacity}

	for _, pair := range p.PositionPairs {
		a, b := math.V3d(pair[0]), math.V3d(pair[1])
		length := b.Sub(a).Length()
		headLength := orDefault(p.HeadLength, HeadLengthFraction*float64(length))
		headLength = min(max(headLength, 0), length)
		headWidth := orDefault(p.HeadWidth, 2*float64(r))

		dir := b.Sub(a).Normalize()
		neck := b.Sub(dir.Scale(headLength))
		shaft.Transforms = append(shaft.Transforms, SegmentTransform(a, neck, r))
		head.Transforms = append(head.Transforms, SegmentTransform(neck, b, headWidth))
	}
	return &Result{Parts: []Part{shaft, head}}
}

func buildLabels(p *formats.Primitive) *Result {
	res := &Result{}
	for _, pos := range p.Positions {
		res.Labels = append(res.Labels, Label{
			Text:     p.Label,
			Hover:    p.HoverLabel,
			Position: math.V3d(pos),
			Color:    p.Color.Or(labelColor),
		})
	}
	return res
}

func buildBezier(p *formats.Primitive, q Quality) *Result {
	res := &Result{}
	cylinder := UnitCylinder(q.CylinderSegments)
	for i, curve := range p.ControlPoints {
		r := orDefault(p.Radius, q.CylinderScale)
		if i < len(p.Radii) {
			r = float32(p.Radii[i])
		}
		color := p.Color
		if i < len(p.Colors) {
			color = p.Colors[i]
		}

		part := Part{Geometry: cylinder, Shape: ShapeMesh, Color: color, Opacity: p.Opacity}
		samples := SampleBezier(math.V3d(curve[0]), math.V3d(curve[1]), math.V3d(curve[2]), math.V3d(curve[3]), BezierSegments)
		for k := 0; k+1 < len(samples); k++ {
			part.Transforms = append(part.Transforms, SegmentTransform(samples[k], samples[k+1], r))
		}
		res.Parts = append(res.Parts, part)
	}
	return res
}

// SampleBezier evaluates a cubic Bezier curve at segments+1 evenly spaced
// parameters.
func SampleBezier(p0, p1, p2, p3 math.Vec3, segments int) []math.Vec3 {
	out := make([]math.Vec3, 0, segments+1)
	for i := 0; i <= segments; i++ {
		t := float32(i) / float32(segments)
		u := 1 - t
		pt := p0.Scale(u * u * u).
			Add(p1.Scale(3 * u * u * t)).
			Add(p2.Scale(3 * u * t * t)).
			Add(p3.Scale(t * t * t))
		out = append(out, pt)
	}
	return out
}
