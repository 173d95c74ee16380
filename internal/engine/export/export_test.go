package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hschendel/stl"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/scene"
	"github.com/Faultbox/crystalview/pkg/formats"
)

const payload = `{"name": "NaCl", "origin": [1, 0, 0], "contents": [
	{"name": "atoms", "type": "cubes", "positions": [[0,0,0],[2,0,0]], "width": 1, "color": "#ff0000"},
	{"name": "cell", "type": "lines", "positions": [[0,0,0],[0,1,0]]},
	{"name": "hidden", "visible": false, "contents": [
		{"name": "ghost", "type": "cubes", "positions": [[9,9,9]]}
	]},
	{"name": "tag", "type": "labels", "positions": [[0,0,0]], "label": "x"}
]}`

func snapshot(t *testing.T) *Snapshot {
	t.Helper()
	node, _, err := formats.ParseScene([]byte(payload))
	require.NoError(t, err)
	asm := &scene.Assembler{Quality: geometry.DefaultQuality()}
	root, _, err := asm.Assemble(node)
	require.NoError(t, err)
	return TakeSnapshot(root)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"png", PNG},
		{".JPG", JPEG},
		{"tif", TIFF},
		{"glb", GLB},
		{"dae", DAE},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("obj")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "structure.png", Filename("structure", PNG))
	assert.Equal(t, "structure.png", Filename("structure.jpg", PNG))
	assert.Equal(t, "structure.zip", Filename("structure.dae", DAE))
	assert.Equal(t, "scene.glb", Filename("", GLB))
	assert.Equal(t, "v1.2.stl", Filename("v1.2", STL))
}

func TestFormat_Raster(t *testing.T) {
	for _, f := range Formats() {
		want := f == PNG || f == JPEG || f == BMP || f == TIFF
		assert.Equal(t, want, f.Raster(), f)
	}
}

func TestTakeSnapshot(t *testing.T) {
	s := snapshot(t)
	assert.Equal(t, "NaCl", s.Name)
	require.Len(t, s.Meshes, 2, "cubes and lines; hidden and label-only nodes are skipped")

	cubes := s.Meshes[0]
	assert.False(t, cubes.Lines)
	assert.Equal(t, 24, cubes.TriangleCount(), "two instances of a 12-triangle box")
	assert.Equal(t, [3]float32{1, 0, 0}, cubes.Color)
	assert.Len(t, cubes.Normals, len(cubes.Positions))

	box := s.Bounds()
	assert.InDelta(t, 0.5, box.Min.X, 1e-6, "group origin is baked in")
	assert.InDelta(t, 3.5, box.Max.X, 1e-6)

	assert.True(t, s.Meshes[1].Lines)
	assert.Zero(t, s.Meshes[1].TriangleCount())
}

func TestTakeSnapshot_Nil(t *testing.T) {
	s := TakeSnapshot(nil)
	assert.Empty(t, s.Meshes)
}

func TestEncodeGLTF_Binary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshot(snapshot(t), GLB, &buf))
	assert.Equal(t, "glTF", buf.String()[:4])

	var doc gltf.Document
	require.NoError(t, gltf.NewDecoder(&buf).Decode(&doc))
	assert.Len(t, doc.Meshes, 2)
	assert.Len(t, doc.Materials, 2)
	assert.Equal(t, "NaCl", doc.Nodes[0].Name)
	assert.Len(t, doc.Nodes[0].Children, 2)
	assert.Equal(t, gltf.PrimitiveLines, doc.Meshes[1].Primitives[0].Mode)
}

func TestEncodeGLTF_JSONEmbedsBuffer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshot(snapshot(t), GLTF, &buf))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
	assert.Contains(t, buf.String(), "data:application/octet-stream;base64,")
}

func TestEncodeSTL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshot(snapshot(t), STL, &buf))

	solid, err := stl.ReadAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Len(t, solid.Triangles, 24)
}

func TestEncodeColladaZip(t *testing.T) {
	now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	defer func() { now = time.Now }()

	var buf bytes.Buffer
	require.NoError(t, EncodeSnapshot(snapshot(t), DAE, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "NaCl.dae", zr.File[0].Name)

	f, err := zr.File[0].Open()
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `<triangles material="mesh0-material" count="24">`)
	assert.Contains(t, text, `<lines material="mesh1-material" count="1">`)
	assert.Contains(t, text, "2024-01-02T03:04:05Z")

	var doc struct {
		Geometries []struct {
			ID string `xml:"id,attr"`
		} `xml:"library_geometries>geometry"`
	}
	require.NoError(t, xml.Unmarshal(data, &doc))
	assert.Len(t, doc.Geometries, 2)
}

func TestEncodeSnapshot_Empty(t *testing.T) {
	empty := &Snapshot{Name: "empty"}
	for _, f := range []Format{GLB, GLTF, STL, DAE} {
		assert.Error(t, EncodeSnapshot(empty, f, io.Discard), f)
	}
	assert.ErrorIs(t, EncodeSnapshot(empty, PNG, io.Discard), ErrUnknownFormat)
}

func TestEncodeImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})

	decoders := map[Format]func(io.Reader) (image.Image, error){
		PNG:  png.Decode,
		JPEG: jpeg.Decode,
		BMP:  bmp.Decode,
		TIFF: tiff.Decode,
	}
	for f, decode := range decoders {
		var buf bytes.Buffer
		require.NoError(t, EncodeImage(img, f, &buf), f)
		out, err := decode(&buf)
		require.NoError(t, err, f)
		assert.Equal(t, img.Bounds(), out.Bounds(), f)
	}

	assert.ErrorIs(t, EncodeImage(img, GLB, io.Discard), ErrUnknownFormat)
}

func TestAsync(t *testing.T) {
	ctx := context.Background()

	res := <-Async(ctx, "a.png", PNG, func(w io.Writer) error {
		_, err := w.Write([]byte("ok"))
		return err
	})
	require.NoError(t, res.Err)
	assert.Equal(t, "a.png", res.Filename)
	assert.Equal(t, []byte("ok"), res.Data)

	boom := errors.New("boom")
	ch := Async(ctx, "b.stl", STL, func(io.Writer) error { return boom })
	res = <-ch
	assert.ErrorIs(t, res.Err, ErrExport)
	assert.ErrorIs(t, res.Err, boom)
	_, open := <-ch
	assert.False(t, open, "exactly one result")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	res = <-Async(cancelled, "c.glb", GLB, func(io.Writer) error { return nil })
	assert.ErrorIs(t, res.Err, ErrExport)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestFailed(t *testing.T) {
	res := <-Failed("x.png", PNG, errors.New("no frame"))
	assert.ErrorIs(t, res.Err, ErrExport)
}
