package viewport

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/crystalview/internal/engine/debug"
	"github.com/Faultbox/crystalview/internal/engine/export"
	"github.com/Faultbox/crystalview/internal/engine/renderer/software"
	"github.com/Faultbox/crystalview/pkg/formats"
)

const size = 64

const iron = `{"name": "Fe", "contents": [
	{"name": "atoms", "type": "spheres", "positions": [[0, 0, 0]], "radius": 1,
	 "color": "#ff0000", "clickable": true, "reference": "Fe1", "tooltip": "iron"}
]}`

func parse(t *testing.T, payload string) *formats.SceneNode {
	t.Helper()
	node, problems, err := formats.ParseScene([]byte(payload))
	require.NoError(t, err)
	require.Empty(t, problems)
	return node
}

func mount(t *testing.T, settings formats.Settings, opts ...Option) (*Controller, *software.Renderer) {
	t.Helper()
	r := software.New(nil)
	c, err := New(r, settings, opts...)
	require.NoError(t, err)
	require.NoError(t, c.Mount(Size{Width: size, Height: size}))
	t.Cleanup(c.Dispose)
	return c, r
}

func TestNew_UnsupportedDescriptors(t *testing.T) {
	s := formats.DefaultSettings()
	s.Material.Type = "MeshToonMaterial"
	_, err := New(software.New(nil), s)
	assert.ErrorIs(t, err, formats.ErrUnsupportedDescriptor)

	s = formats.DefaultSettings()
	s.Lights = append(s.Lights, formats.LightDescriptor{Type: "SpotLight"})
	_, err = New(software.New(nil), s)
	assert.ErrorIs(t, err, formats.ErrUnsupportedDescriptor)

	_, err = New(nil, formats.DefaultSettings())
	assert.Error(t, err)
}

func TestController_Lifecycle(t *testing.T) {
	r := software.New(nil)
	c, err := New(r, formats.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, Uninitialized, c.State())
	assert.ErrorIs(t, c.UpdateScene(parse(t, iron)), ErrNotMounted)

	require.NoError(t, c.Mount(Size{Width: size, Height: size}))
	assert.Equal(t, Idle, c.State(), "static scenes idle between changes")
	assert.ErrorIs(t, c.Mount(Size{Width: size, Height: size}), ErrAlreadyMounted)

	require.NoError(t, c.UpdateScene(parse(t, iron)))
	arena := c.arenas["Fe"]
	require.NotNil(t, arena)
	assert.Positive(t, r.Live())

	c.Dispose()
	c.Dispose()
	assert.Equal(t, Disposed, c.State())
	assert.True(t, arena.Released())
	assert.Zero(t, r.Live())

	drawn, err := c.Frame(0.016)
	assert.NoError(t, err)
	assert.False(t, drawn)
	assert.ErrorIs(t, c.UpdateScene(parse(t, iron)), ErrDisposed)
	assert.ErrorIs(t, c.Mount(Size{Width: size, Height: size}), ErrDisposed)
}

func TestController_ContinuousMode(t *testing.T) {
	s := formats.DefaultSettings()
	s.StaticScene = false
	c, _ := mount(t, s)
	assert.Equal(t, Rendering, c.State())

	for i := 0; i < 3; i++ {
		drawn, err := c.Frame(0.016)
		require.NoError(t, err)
		assert.True(t, drawn)
	}
}

func TestController_StaticFramesOnlyWhenDirty(t *testing.T) {
	c, _ := mount(t, formats.DefaultSettings())
	require.NoError(t, c.UpdateScene(parse(t, iron)))

	drawn, err := c.Frame(0)
	require.NoError(t, err)
	assert.True(t, drawn)
	drawn, _ = c.Frame(0)
	assert.False(t, drawn)

	c.Rotate(10, 0)
	drawn, _ = c.Frame(0)
	assert.True(t, drawn)
}

func TestController_UpdateReplacesSameName(t *testing.T) {
	c, r := mount(t, formats.DefaultSettings())

	require.NoError(t, c.UpdateScene(parse(t, iron)))
	first := c.arenas["Fe"]
	firstRoot := child(c.root, "Fe")

	// Same root name, different content: two atoms and a bond.
	require.NoError(t, c.UpdateScene(parse(t, `{"name": "Fe", "contents": [
		{"name": "atoms", "type": "spheres", "positions": [[0, 0, 0], [2, 0, 0]], "radius": 0.5},
		{"name": "bonds", "type": "cylinders", "positionPairs": [[[0, 0, 0], [2, 0, 0]]]}
	]}`)))
	second := c.arenas["Fe"]

	require.Len(t, c.root.Children, 1)
	replaced := c.root.Children[0]
	assert.Equal(t, "Fe", replaced.Name)
	assert.NotSame(t, firstRoot, replaced)
	assert.NotNil(t, replaced.FindByName("bonds"))
	require.NotNil(t, replaced.FindByName("atoms"))
	assert.Len(t, replaced.FindByName("atoms").Drawables[0].Transforms, 2)

	assert.True(t, first.Released())
	assert.False(t, second.Released())
	assert.Equal(t, second.Len(), r.Live(), "only the new subtree holds handles")

	require.NoError(t, c.UpdateScene(parse(t, `{"name": "other", "type": "cubes", "positions": [[3, 0, 0]]}`)))
	assert.Len(t, c.root.Children, 2)
}

func TestController_RemoveScene(t *testing.T) {
	s := formats.DefaultSettings()
	s.ExtractAxis = true
	c, r := mount(t, s)

	require.NoError(t, c.UpdateScene(parse(t, iron)))
	fe := c.arenas["Fe"]
	require.NoError(t, c.UpdateScene(parse(t, `{"name": "Cu", "contents": [
		{"name": "atoms", "type": "spheres", "positions": [[10, 0, 0]], "radius": 1}
	]}`)))
	require.Len(t, c.root.Children, 2)
	require.NotNil(t, c.axes.obj)

	assert.True(t, c.RemoveScene("Fe"))
	require.Len(t, c.root.Children, 1)
	assert.Equal(t, "Cu", c.root.Children[0].Name)
	assert.True(t, fe.Released())
	assert.NotContains(t, c.arenas, "Fe")
	assert.NotNil(t, c.axes.obj, "axes belong to the remaining scene")

	// The camera frames the remaining scene only.
	assert.InDelta(t, 10, c.cam.Target.X, 1e-4)
	assert.InDelta(t, 25.6, c.cam.Zoom, 1e-3)

	assert.False(t, c.RemoveScene("Fe"))
	assert.True(t, c.RemoveScene("Cu"))
	assert.Nil(t, c.axes.obj)
	assert.Empty(t, c.root.Children)
	assert.Zero(t, r.Live())
}

func TestController_StaleUpdateDropped(t *testing.T) {
	c, r := mount(t, formats.DefaultSettings())
	c.applied = 10

	require.NoError(t, c.UpdateScene(parse(t, iron)))
	assert.Empty(t, c.root.Children)
	assert.Zero(t, r.Live())
}

func TestController_AutoZoom(t *testing.T) {
	c, _ := mount(t, formats.DefaultSettings())
	require.NoError(t, c.UpdateScene(parse(t, iron)))

	// The sphere spans 2 units; 0.8 of 64 pixels across it.
	assert.InDelta(t, 25.6, c.cam.Zoom, 1e-3)
	assert.InDelta(t, 0, c.cam.Target.Length(), 1e-6)
}

func TestController_AutoZoomElongated(t *testing.T) {
	r := software.New(nil)
	c, err := New(r, formats.DefaultSettings())
	require.NoError(t, err)
	require.NoError(t, c.Mount(Size{Width: 200, Height: 100}))
	t.Cleanup(c.Dispose)

	// Spheres of radius 0.5 at x=0 and x=9: the box is 10 x 1 x 1.
	require.NoError(t, c.UpdateScene(parse(t, `{"name": "chain", "contents": [
		{"name": "atoms", "type": "spheres", "positions": [[0, 0, 0], [9, 0, 0]], "radius": 0.5}
	]}`)))

	box := c.root.WorldBounds()
	assert.InDelta(t, 10, box.MaxDimension(), 1e-4)
	assert.InDelta(t, 200*0.8, c.cam.Zoom*box.MaxDimension(), 1e-2)
	assert.InDelta(t, 4.5, c.cam.Target.X, 1e-4)
}

func TestController_ZoomTransition(t *testing.T) {
	s := formats.DefaultSettings()
	s.StaticScene = false
	s.ZoomTransition = 100
	c, _ := mount(t, s)

	require.NoError(t, c.UpdateScene(parse(t, iron)))
	assert.InDelta(t, 1, c.cam.Zoom, 1e-6, "zoom animates from the current value")

	_, err := c.Frame(0.05)
	require.NoError(t, err)
	assert.Greater(t, c.cam.Zoom, float32(1))
	assert.Less(t, c.cam.Zoom, float32(25.6))

	_, err = c.Frame(0.1)
	require.NoError(t, err)
	assert.InDelta(t, 25.6, c.cam.Zoom, 1e-3)
	assert.Nil(t, c.zoomTween)
}

func TestController_ZoomRespectsSetting(t *testing.T) {
	s := formats.DefaultSettings()
	s.EnableZoom = false
	c, _ := mount(t, s)
	before := c.cam.Zoom
	c.Zoom(3)
	assert.Equal(t, before, c.cam.Zoom)

	c2, _ := mount(t, formats.DefaultSettings())
	c2.Zoom(3)
	assert.Greater(t, c2.cam.Zoom, before)
}

func TestController_Resize(t *testing.T) {
	c, r := mount(t, formats.DefaultSettings())
	assert.False(t, c.Resize(size, size))
	assert.True(t, c.Resize(100, 50))
	w, h := r.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestController_ToggleVisibility(t *testing.T) {
	c, r := mount(t, formats.DefaultSettings())
	require.NoError(t, c.UpdateScene(parse(t, iron)))

	atoms := c.root.FindByName("atoms")
	require.NotNil(t, atoms)
	arena := c.arenas["Fe"]
	handles, live := arena.Len(), r.Live()

	c.ToggleVisibility(map[string]bool{"atoms": false, "missing": true})
	assert.False(t, atoms.Visible)

	_, ok := c.Pick(size/2, size/2)
	assert.False(t, ok, "hidden objects are not pickable")

	c.ToggleVisibility(map[string]bool{"atoms": true})
	assert.True(t, atoms.Visible)
	_, ok = c.Pick(size/2, size/2)
	assert.True(t, ok)

	// Nothing was rebuilt: same object, same arena, same handles.
	assert.Same(t, atoms, c.root.FindByName("atoms"))
	assert.Same(t, arena, c.arenas["Fe"])
	assert.Equal(t, handles, arena.Len())
	assert.Equal(t, live, r.Live())
}

func TestController_PickAndHover(t *testing.T) {
	c, _ := mount(t, formats.DefaultSettings(), WithSelectionBox(true))
	require.NoError(t, c.UpdateScene(parse(t, iron)))

	ref, ok := c.Pick(size/2, size/2)
	require.True(t, ok)
	assert.Equal(t, "Fe1", ref)
	require.NotNil(t, c.selection.obj)
	assert.Equal(t, selectionName, c.selection.obj.Name)

	_, ok = c.Pick(1, 1)
	assert.False(t, ok)
	assert.Nil(t, c.selection.obj, "a miss clears the selection")

	tip, ok := c.Hover(size/2, size/2)
	require.True(t, ok)
	assert.Equal(t, "iron", tip)
}

func TestController_ExtractAxis(t *testing.T) {
	s := formats.DefaultSettings()
	s.ExtractAxis = true
	c, _ := mount(t, s)

	require.NoError(t, c.UpdateScene(parse(t, `{"name": "cell", "contents": [
		{"name": "atoms", "type": "spheres", "positions": [[0, 0, 0]]},
		{"name": "axes", "contents": [{"name": "a", "type": "arrows", "positionPairs": [[[0,0,0],[1,0,0]]]}]}
	]}`)))
	assert.Nil(t, c.root.FindByName(debug.AxesNodeName), "axes are moved out of the scene")
	require.NotNil(t, c.axes.obj)
	assert.Nil(t, c.axes.arena, "extracted axes belong to the scene arena")

	require.NoError(t, c.UpdateScene(parse(t, `{"name": "cell", "lattice": [[2,0,0],[0,2,0],[0,0,2]],
		"contents": [{"name": "atoms", "type": "spheres", "positions": [[0, 0, 0]]}]}`)))
	require.NotNil(t, c.axes.obj)
	assert.NotNil(t, c.axes.arena, "generated triad owns its arena")
	assert.NotNil(t, c.axes.obj.FindByName("a-label"))
}

func TestController_DownloadRaster(t *testing.T) {
	c, _ := mount(t, formats.DefaultSettings())
	require.NoError(t, c.UpdateScene(parse(t, iron)))

	res := <-c.Download(context.Background(), "shot", export.PNG)
	require.NoError(t, res.Err)
	assert.Equal(t, "shot.png", res.Filename)

	img, err := png.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, size, img.Bounds().Dx())
}

func TestController_DownloadExchange(t *testing.T) {
	c, _ := mount(t, formats.DefaultSettings())
	require.NoError(t, c.UpdateScene(parse(t, iron)))

	res := <-c.Download(context.Background(), "", export.GLB)
	require.NoError(t, res.Err)
	assert.Equal(t, "scene.glb", res.Filename)

	var doc gltf.Document
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(res.Data)).Decode(&doc))
	assert.Len(t, doc.Meshes, 1)
	assert.Equal(t, "Fe", doc.Nodes[0].Name)
}

func TestController_DownloadAfterDispose(t *testing.T) {
	c, _ := mount(t, formats.DefaultSettings())
	c.Dispose()

	res := <-c.Download(context.Background(), "x", export.STL)
	assert.ErrorIs(t, res.Err, export.ErrExport)
	assert.ErrorIs(t, res.Err, ErrDisposed)
}
