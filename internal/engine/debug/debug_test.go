package debug

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/crystalview/internal/engine/export"
	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/lighting"
	"github.com/Faultbox/crystalview/internal/engine/scene"
	"github.com/Faultbox/crystalview/pkg/formats"
	"github.com/Faultbox/crystalview/pkg/math"
)

func assemble(t *testing.T, node *formats.SceneNode) *scene.Object {
	t.Helper()
	obj, _, err := (&scene.Assembler{Quality: geometry.DefaultQuality()}).Assemble(node)
	require.NoError(t, err)
	return obj
}

func TestBBoxSegments(t *testing.T) {
	box := math.Box3{Min: math.Vec3{}, Max: math.Vec3{X: 1, Y: 2, Z: 3}}
	pts := BBoxSegments(box, 0.5)
	require.Len(t, pts, BBoxVertexCount)

	for i := 0; i < len(pts); i += 2 {
		a, b := pts[i], pts[i+1]
		diff := 0
		for k := 0; k < 3; k++ {
			if a[k] != b[k] {
				diff++
			}
		}
		assert.Equal(t, 1, diff, "edge %d must be axis aligned", i/2)
	}
	assert.Equal(t, [3]float64{-0.5, -0.5, -0.5}, pts[0])
	assert.Equal(t, [3]float64{1.5, 2.5, 3.5}, pts[10])
}

func TestSelectionBox(t *testing.T) {
	assert.Nil(t, SelectionBox("sel", math.EmptyBox3(), 0))

	node := SelectionBox("sel", math.Box3{Max: math.Vec3{X: 1, Y: 1, Z: 1}}, DefaultBBoxPadding)
	require.NotNil(t, node)
	obj := assemble(t, node)
	require.Len(t, obj.Drawables, 1)
	assert.Equal(t, geometry.ShapeLine, obj.Drawables[0].Shape)
	assert.True(t, obj.Drawables[0].Style.Dashed)

	box := obj.WorldBounds()
	assert.InDelta(t, -DefaultBBoxPadding, box.Min.X, 1e-6)
	assert.InDelta(t, 1+DefaultBBoxPadding, box.Max.Z, 1e-6)
}

func TestTriadAxes(t *testing.T) {
	dirs, names := TriadAxes([][3]float64{{2, 0, 0}, {0, 3, 0}, {1, 1, 4}})
	assert.Equal(t, [3]string{"a", "b", "c"}, names)
	assert.InDelta(t, 1, dirs[2].Length(), 1e-6)
	assert.InDelta(t, 1, dirs[0].X, 1e-6)

	_, names = TriadAxes(nil)
	assert.Equal(t, [3]string{"x", "y", "z"}, names)

	_, names = TriadAxes([][3]float64{{1, 0, 0}, {2, 0, 0}, {0, 0, 1}})
	assert.Equal(t, [3]string{"x", "y", "z"}, names, "coplanar lattice falls back to cartesian")
}

func TestSceneTriad(t *testing.T) {
	box := math.Box3{Min: math.Vec3{X: 1}, Max: math.Vec3{X: 5, Y: 2, Z: 2}}
	node := SceneTriad(&formats.SceneNode{}, box)
	require.NotNil(t, node)
	assert.Equal(t, AxesNodeName, node.Name)
	require.Len(t, node.Contents, 6)

	x := node.Contents[0].Primitive
	assert.Equal(t, formats.KindArrows, x.Kind)
	assert.Equal(t, [3]float64{1, 0, 0}, x.PositionPairs[0][0])
	assert.Equal(t, [3]float64{2, 0, 0}, x.PositionPairs[0][1])
	assert.Equal(t, "x", node.Contents[1].Primitive.Label)

	obj := assemble(t, node)
	assert.Equal(t, 7, obj.Count())

	assert.Nil(t, SceneTriad(nil, math.EmptyBox3()))
}

func TestLightHelpers(t *testing.T) {
	lights := []lighting.Light{
		{Kind: lighting.Ambient, Helper: true},
		{Kind: lighting.Directional, Color: [3]float32{1, 1, 1}, Position: math.Vec3{X: -10, Y: 10, Z: 10}, Helper: true},
		{Kind: lighting.Hemisphere, Position: math.Vec3{Y: 1}},
	}
	node := LightHelpers(lights, 0.5)
	require.NotNil(t, node)
	require.Len(t, node.Contents, 1)
	assert.Equal(t, "DirectionalLight-1", node.Contents[0].Name)

	obj := assemble(t, node)
	marker := obj.FindByName("DirectionalLight-1-marker")
	require.NotNil(t, marker)
	assert.Equal(t, scene.Mesh, marker.Kind)

	assert.Nil(t, LightHelpers(lights[2:], 0.5))
}

func TestScreenshotCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "crystal")
	sc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	assert.Equal(t, filepath.Join(dir, "crystal_2024-03-01_12-30-00.png"), sc.GenerateFilename())

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	path, err := sc.Capture(img)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.NoError(t, sc.SetFormat(export.TIFF))
	assert.Equal(t, ".tiff", filepath.Ext(sc.GenerateFilename()))
	assert.ErrorIs(t, sc.SetFormat(export.GLB), export.ErrUnknownFormat)
}
