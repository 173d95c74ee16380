package geometry

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/crystalview/pkg/formats"
	"github.com/Faultbox/crystalview/pkg/math"
)

func f64(v float64) *float64 { return &v }

func assertVec(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-5, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-5, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-5, "z")
}

func TestSegmentTransform(t *testing.T) {
	a, b := math.Vec3{}, math.Vec3{Z: 2}
	m := SegmentTransform(a, b, 0.1)

	assertVec(t, math.Vec3{Z: 1}, m.Translation())
	assertVec(t, b, m.TransformVec3(math.Vec3{Y: 0.5}))
	assertVec(t, a, m.TransformVec3(math.Vec3{Y: -0.5}))
	// radius applies across the axis
	assert.InDelta(t, 0.1, m.TransformVec3(math.Vec3{X: 1}).Sub(m.Translation()).Length(), 1e-5)
}

func TestSegmentTransform_ZeroLength(t *testing.T) {
	p := math.Vec3{X: 1, Y: 2, Z: 3}
	m := SegmentTransform(p, p, 0.1)

	for i, v := range m {
		assert.Falsef(t, gomath.IsNaN(float64(v)), "element %d is NaN", i)
	}
	assertVec(t, p, m.Translation())
	assertVec(t, p, m.TransformVec3(math.Vec3{Y: 0.5}))
}

func TestSegmentTransform_Antiparallel(t *testing.T) {
	m := SegmentTransform(math.Vec3{Y: 2}, math.Vec3{}, 1)
	assertVec(t, math.Vec3{}, m.TransformVec3(math.Vec3{Y: 0.5}))
	assertVec(t, math.Vec3{Y: 2}, m.TransformVec3(math.Vec3{Y: -0.5}))
}

func TestBuildSpheres(t *testing.T) {
	q := DefaultQuality()
	p := &formats.Primitive{Kind: formats.KindSpheres, Positions: [][3]float64{{0, 0, 0}, {1, 2, 3}}}

	res, err := Build(p, q)
	require.NoError(t, err)
	require.Len(t, res.Parts, 1)

	part := res.Parts[0]
	assert.Len(t, part.Transforms, 2)
	assert.Equal(t, ShapeSphere, part.Shape)
	assert.False(t, part.DoubleSided)
	assertVec(t, math.Vec3{X: 1, Y: 2, Z: 3}, part.Transforms[1].Translation())

	// default radius is objectScale
	box := part.Bounds()
	assertVec(t, math.Vec3{X: -1, Y: -1, Z: -1}, box.Min)
	assertVec(t, math.Vec3{X: 2, Y: 3, Z: 4}, box.Max)

	for _, v := range part.Geometry.Vertices {
		assert.InDelta(t, 1, math.V3(v.Position).Length(), 1e-5)
	}
}

func TestBuildSpheres_Wedge(t *testing.T) {
	p := &formats.Primitive{
		Kind:      formats.KindSpheres,
		Positions: [][3]float64{{0, 0, 0}},
		Radius:    f64(0.5),
		PhiStart:  f64(0),
		PhiEnd:    f64(3.14159),
	}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)
	assert.True(t, res.Parts[0].DoubleSided)
	assert.Equal(t, ShapeMesh, res.Parts[0].Shape)
}

func TestBuildEllipsoids_Orientation(t *testing.T) {
	p := &formats.Primitive{
		Kind:      formats.KindEllipsoids,
		Positions: [][3]float64{{0, 0, 0}, {0, 0, 0}},
		Ellipsoids: &formats.EllipsoidSet{
			Rotations: [][3]float64{{1, 0, 0}, {0, 0, 1}},
			Scales:    [][3]float64{{3, 1, 1}, {3, 1, 1}},
		},
	}
	q := DefaultQuality()
	q.ObjectScale = 1
	res, err := Build(p, q)
	require.NoError(t, err)
	tr := res.Parts[0].Transforms

	// Rotation (1,0,0) is the identity: the long axis stays on x.
	assertVec(t, math.Vec3{X: 3}, tr[0].TransformVec3(math.Vec3{X: 1}))
	assertVec(t, math.Vec3{Y: 1}, tr[0].TransformVec3(math.Vec3{Y: 1}))

	// Rotation (0,0,1) turns the long axis onto z.
	assertVec(t, math.Vec3{Z: 3}, tr[1].TransformVec3(math.Vec3{X: 1}))
}

func TestBuildEllipsoids_Extent(t *testing.T) {
	p := &formats.Primitive{
		Kind:      formats.KindEllipsoids,
		Positions: [][3]float64{{0, 0, 0}},
		Ellipsoids: &formats.EllipsoidSet{
			Rotations: [][3]float64{{1, 0, 0}},
			Scales:    [][3]float64{{3, 1, 1}},
		},
	}
	q := DefaultQuality()
	q.ObjectScale = 1
	res, err := Build(p, q)
	require.NoError(t, err)

	box := res.Parts[0].Bounds()
	assert.InDelta(t, 6, box.Max.X-box.Min.X, 1e-3)
	assert.InDelta(t, 2, box.Max.Y-box.Min.Y, 1e-2)
	assert.InDelta(t, 2, box.Max.Z-box.Min.Z, 1e-2)
}

func TestBuildSpheres_WithEllipsoids(t *testing.T) {
	p := &formats.Primitive{
		Kind:      formats.KindSpheres,
		Positions: [][3]float64{{0, 0, 0}},
		Radius:    f64(1),
		Ellipsoids: &formats.EllipsoidSet{
			Rotations: [][3]float64{{1, 0, 0}},
			Scales:    [][3]float64{{3, 1, 1}},
		},
	}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)

	box := res.Parts[0].Bounds()
	assert.InDelta(t, 6, box.Max.X-box.Min.X, 1e-3)
	assert.InDelta(t, 2, box.Max.Y-box.Min.Y, 1e-2)
	assert.InDelta(t, 2, box.Max.Z-box.Min.Z, 1e-2)
}

func TestBuildSpheres_WedgeWithEllipsoids(t *testing.T) {
	p := &formats.Primitive{
		Kind:      formats.KindSpheres,
		Positions: [][3]float64{{0, 0, 0}},
		Radius:    f64(0.5),
		PhiStart:  f64(0),
		PhiEnd:    f64(3.14159),
		Ellipsoids: &formats.EllipsoidSet{
			Rotations: [][3]float64{{0, 1, 0}},
			Scales:    [][3]float64{{2, 1, 1}},
		},
	}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)

	part := res.Parts[0]
	assert.True(t, part.DoubleSided)
	// Local x, scaled by radius*2, now points along y.
	assertVec(t, math.Vec3{Y: 1}, part.Transforms[0].TransformVec3(math.Vec3{X: 1}))
}

func TestBuildCylinders_DefaultRadius(t *testing.T) {
	p := &formats.Primitive{
		Kind:          formats.KindCylinders,
		PositionPairs: [][2][3]float64{{{0, 0, 0}, {0, 0, 2}}},
	}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)

	part := res.Parts[0]
	require.Len(t, part.Transforms, 1)
	box := part.Bounds()
	assert.InDelta(t, -0.1, box.Min.X, 1e-4)
	assert.InDelta(t, 0.1, box.Max.X, 1e-4)
	assert.InDelta(t, 0, box.Min.Z, 1e-4)
	assert.InDelta(t, 2, box.Max.Z, 1e-4)
}

func TestBuildCubes(t *testing.T) {
	p := &formats.Primitive{Kind: formats.KindCubes, Positions: [][3]float64{{0, 0, 0}}, Width: f64(2)}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)
	box := res.Parts[0].Bounds()
	assertVec(t, math.Vec3{X: -1, Y: -1, Z: -1}, box.Min)
	assertVec(t, math.Vec3{X: 1, Y: 1, Z: 1}, box.Max)
	assert.Equal(t, 12, res.Parts[0].Geometry.TriangleCount())
}

func TestBuildLines_Dashed(t *testing.T) {
	p := &formats.Primitive{
		Kind:      formats.KindLines,
		Positions: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 0, 0}, {0, 2, 0}},
		DashSize:  f64(0.5),
	}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)

	part := res.Parts[0]
	require.NotNil(t, part.Line)
	assert.True(t, part.Line.Dashed)
	assert.Equal(t, float32(0.5), part.Line.DashSize)
	assert.Equal(t, float32(DefaultGapSize), part.Line.GapSize)
	assert.Equal(t, float32(DefaultLineWidth), part.Line.Width)
	assert.Equal(t, Lines, part.Geometry.Topology)
	assert.Equal(t, []float32{0, 1, 1, 3}, part.Geometry.LineDistances)
}

func TestBuildLines_Solid(t *testing.T) {
	p := &formats.Primitive{Kind: formats.KindLines, Positions: [][3]float64{{0, 0, 0}, {1, 0, 0}}, LineWidth: f64(3)}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)
	assert.False(t, res.Parts[0].Line.Dashed)
	assert.Equal(t, float32(3), res.Parts[0].Line.Width)
}

func TestBuildSurface(t *testing.T) {
	tri := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	t.Run("computed normals", func(t *testing.T) {
		res, err := Build(&formats.Primitive{Kind: formats.KindSurface, Positions: tri}, DefaultQuality())
		require.NoError(t, err)
		part := res.Parts[0]
		assert.True(t, part.DoubleSided)
		require.NotNil(t, part.Opacity)
		assert.Equal(t, 0.5, *part.Opacity)
		assert.Equal(t, [3]float32{0, 0, 1}, part.Geometry.Vertices[0].Normal)
	})

	t.Run("payload normals", func(t *testing.T) {
		p := &formats.Primitive{
			Kind:      formats.KindSurface,
			Positions: tri,
			Normals:   [][3]float64{{0, 0, 2}, {0, 0, 2}, {0, 0, 2}},
			Opacity:   f64(0.8),
			ShowEdges: true,
		}
		res, err := Build(p, DefaultQuality())
		require.NoError(t, err)
		require.Len(t, res.Parts, 2)
		assert.False(t, res.Parts[0].DoubleSided)
		assert.Equal(t, 0.8, *res.Parts[0].Opacity)
		assert.Equal(t, [3]float32{0, 0, 1}, res.Parts[0].Geometry.Vertices[1].Normal)
		assert.Len(t, res.Parts[1].Geometry.Indices, 6)
	})
}

func TestBuildConvex_Cube(t *testing.T) {
	var corners [][3]float64
	for _, x := range []float64{0, 1} {
		for _, y := range []float64{0, 1} {
			for _, z := range []float64{0, 1} {
				corners = append(corners, [3]float64{x, y, z})
			}
		}
	}
	// an interior point that must not become a hull vertex
	corners = append(corners, [3]float64{0.5, 0.5, 0.5})

	res, err := Build(&formats.Primitive{Kind: formats.KindConvex, Positions: corners}, DefaultQuality())
	require.NoError(t, err)
	require.Len(t, res.Parts, 2)

	hull := res.Parts[0].Geometry
	assert.Equal(t, 12, hull.TriangleCount())
	center := math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	for i := 0; i < hull.TriangleCount(); i++ {
		a, _, _ := hull.Triangle(i)
		n := math.V3(hull.Vertices[hull.Indices[i*3]].Normal)
		assert.Greater(t, n.Dot(a.Sub(center)), float32(0), "face %d normal points inward", i)
	}

	edges := res.Parts[1]
	assert.Equal(t, ShapeLine, edges.Shape)
	assert.Len(t, edges.Geometry.Indices, 24, "a cube outline has 12 edges")
}

func TestBuildConvex_Degenerate(t *testing.T) {
	flat := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	_, err := Build(&formats.Primitive{Kind: formats.KindConvex, Positions: flat}, DefaultQuality())
	assert.ErrorIs(t, err, formats.ErrMalformedPrimitive)

	_, err = Build(&formats.Primitive{Kind: formats.KindConvex, Positions: flat[:3]}, DefaultQuality())
	assert.ErrorIs(t, err, formats.ErrMalformedPrimitive)
}

func TestBuildArrows(t *testing.T) {
	p := &formats.Primitive{
		Kind:          formats.KindArrows,
		PositionPairs: [][2][3]float64{{{0, 0, 0}, {4, 0, 0}}},
	}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)
	require.Len(t, res.Parts, 2)

	shaft, head := res.Parts[0].Transforms[0], res.Parts[1].Transforms[0]
	assertVec(t, math.Vec3{X: 1.5}, shaft.Translation())
	assertVec(t, math.Vec3{X: 3.5}, head.Translation())
	assertVec(t, math.Vec3{X: 4}, head.TransformVec3(math.Vec3{Y: 0.5}))
	// head radius defaults to twice the shaft radius
	assert.InDelta(t, 0.2, head.TransformVec3(math.Vec3{X: 1, Y: -0.5}).Sub(math.Vec3{X: 3}).Length(), 1e-5)
}

func TestBuildArrows_HeadClamped(t *testing.T) {
	p := &formats.Primitive{
		Kind:          formats.KindArrows,
		PositionPairs: [][2][3]float64{{{0, 0, 0}, {1, 0, 0}}},
		HeadLength:    f64(5),
	}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)
	head := res.Parts[1].Transforms[0]
	assertVec(t, math.Vec3{X: 0.5}, head.Translation())
	assertVec(t, math.Vec3{}, head.TransformVec3(math.Vec3{Y: -0.5}))
}

func TestBuildLabels(t *testing.T) {
	p := &formats.Primitive{
		Kind:       formats.KindLabels,
		Positions:  [][3]float64{{1, 0, 0}, {0, 1, 0}},
		Label:      "Fe",
		HoverLabel: "iron",
	}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)
	assert.Empty(t, res.Parts)
	require.Len(t, res.Labels, 2)
	assert.Equal(t, Label{Text: "Fe", Hover: "iron", Position: math.Vec3{Y: 1}, Color: formats.MustColor("black")}, res.Labels[1])
}

func TestBuildBezier(t *testing.T) {
	p := &formats.Primitive{
		Kind:          formats.KindBezier,
		ControlPoints: [][][3]float64{{{0, 0, 0}, {1, 1, 0}, {2, 1, 0}, {3, 0, 0}}},
		Colors:        []formats.Color{formats.MustColor("red")},
		Radii:         []float64{0.3},
	}
	res, err := Build(p, DefaultQuality())
	require.NoError(t, err)
	require.Len(t, res.Parts, 1)

	part := res.Parts[0]
	assert.Len(t, part.Transforms, BezierSegments)
	assert.Equal(t, "#ff0000", part.Color.Hex())
	assertVec(t, math.Vec3{}, part.Transforms[0].TransformVec3(math.Vec3{Y: -0.5}))
	assertVec(t, math.Vec3{X: 3}, part.Transforms[BezierSegments-1].TransformVec3(math.Vec3{Y: 0.5}))
}

func TestBuildUnknown(t *testing.T) {
	_, err := Build(&formats.Primitive{Kind: formats.KindUnknown, Type: "blob"}, DefaultQuality())
	assert.ErrorIs(t, err, formats.ErrUnrecognizedPrimitiveType)
}

func TestUnitShapesBounds(t *testing.T) {
	for name, m := range map[string]*Mesh{
		"cylinder": UnitCylinder(16),
		"cone":     UnitCone(16),
		"box":      UnitBox(),
	} {
		assert.InDelta(t, -0.5, m.Bounds.Min.Y, 1e-6, name)
		assert.InDelta(t, 0.5, m.Bounds.Max.Y, 1e-6, name)
	}
}
