package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// now is replaced in tests.
var now = time.Now

type daeColor struct {
	Value string `xml:"color"`
}

type daeFloat struct {
	Value float32 `xml:"float"`
}

type daeLambert struct {
	Diffuse      daeColor `xml:"diffuse"`
	Transparency daeFloat `xml:"transparency"`
}

type daeTechnique struct {
	SID     string     `xml:"sid,attr"`
	Lambert daeLambert `xml:"lambert"`
}

type daeEffect struct {
	ID        string       `xml:"id,attr"`
	Technique daeTechnique `xml:"profile_COMMON>technique"`
}

type daeInstanceEffect struct {
	URL string `xml:"url,attr"`
}

type daeMaterial struct {
	ID     string            `xml:"id,attr"`
	Name   string            `xml:"name,attr"`
	Effect daeInstanceEffect `xml:"instance_effect"`
}

type daeFloatArray struct {
	ID    string `xml:"id,attr"`
	Count int    `xml:"count,attr"`
	Data  string `xml:",chardata"`
}

type daeParam struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

type daeAccessor struct {
	Source string     `xml:"source,attr"`
	Count  int        `xml:"count,attr"`
	Stride int        `xml:"stride,attr"`
	Params []daeParam `xml:"param"`
}

type daeSource struct {
	ID       string        `xml:"id,attr"`
	Array    daeFloatArray `xml:"float_array"`
	Accessor daeAccessor   `xml:"technique_common>accessor"`
}

type daeInput struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   *int   `xml:"offset,attr,omitempty"`
}

type daeVertices struct {
	ID    string   `xml:"id,attr"`
	Input daeInput `xml:"input"`
}

type daePrimitives struct {
	XMLName  xml.Name
	Material string     `xml:"material,attr"`
	Count    int        `xml:"count,attr"`
	Inputs   []daeInput `xml:"input"`
	P        string     `xml:"p"`
}

type daeMesh struct {
	Sources    []daeSource   `xml:"source"`
	Vertices   daeVertices   `xml:"vertices"`
	Primitives daePrimitives `xml:",any"`
}

type daeGeometry struct {
	ID   string  `xml:"id,attr"`
	Name string  `xml:"name,attr"`
	Mesh daeMesh `xml:"mesh"`
}

type daeInstanceMaterial struct {
	Symbol string `xml:"symbol,attr"`
	Target string `xml:"target,attr"`
}

type daeInstanceGeometry struct {
	URL       string              `xml:"url,attr"`
	Materials daeInstanceMaterial `xml:"bind_material>technique_common>instance_material"`
}

type daeNode struct {
	ID       string               `xml:"id,attr,omitempty"`
	Name     string               `xml:"name,attr"`
	Geometry *daeInstanceGeometry `xml:"instance_geometry,omitempty"`
	Children []daeNode            `xml:"node"`
}

type daeVisualScene struct {
	ID   string  `xml:"id,attr"`
	Name string  `xml:"name,attr"`
	Root daeNode `xml:"node"`
}

type daeAsset struct {
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
	UpAxis   string `xml:"up_axis"`
}

type daeInstanceVisualScene struct {
	URL string `xml:"url,attr"`
}

type daeDocument struct {
	XMLName    xml.Name               `xml:"COLLADA"`
	Xmlns      string                 `xml:"xmlns,attr"`
	Version    string                 `xml:"version,attr"`
	Asset      daeAsset               `xml:"asset"`
	Effects    []daeEffect            `xml:"library_effects>effect"`
	Materials  []daeMaterial          `xml:"library_materials>material"`
	Geometries []daeGeometry          `xml:"library_geometries>geometry"`
	Scenes     []daeVisualScene       `xml:"library_visual_scenes>visual_scene"`
	Scene      daeInstanceVisualScene `xml:"scene>instance_visual_scene"`
}

// EncodeCollada writes s as a COLLADA 1.4.1 document.
func EncodeCollada(s *Snapshot, w io.Writer) error {
	if len(s.Meshes) == 0 {
		return fmt.Errorf("nothing visible to export")
	}
	stamp := now().UTC().Format(time.RFC3339)
	doc := daeDocument{
		Xmlns:   "http://www.collada.org/2005/11/COLLADASchema",
		Version: "1.4.1",
		Asset:   daeAsset{Created: stamp, Modified: stamp, UpAxis: "Y_UP"},
		Scene:   daeInstanceVisualScene{URL: "#scene"},
	}
	root := daeNode{ID: "root", Name: s.Name}

	for i := range s.Meshes {
		m := &s.Meshes[i]
		id := "mesh" + strconv.Itoa(i)
		mat := id + "-material"

		doc.Effects = append(doc.Effects, daeEffect{
			ID: mat + "-effect",
			Technique: daeTechnique{
				SID: "common",
				Lambert: daeLambert{
					Diffuse:      daeColor{Value: floats([]float32{m.Color[0], m.Color[1], m.Color[2], 1})},
					Transparency: daeFloat{Value: m.Opacity},
				},
			},
		})
		doc.Materials = append(doc.Materials, daeMaterial{
			ID:     mat,
			Name:   m.Name,
			Effect: daeInstanceEffect{URL: "#" + mat + "-effect"},
		})
		doc.Geometries = append(doc.Geometries, daeGeometryFor(id, mat, m))
		root.Children = append(root.Children, daeNode{
			Name: m.Name,
			Geometry: &daeInstanceGeometry{
				URL:       "#" + id,
				Materials: daeInstanceMaterial{Symbol: mat, Target: "#" + mat},
			},
		})
	}
	doc.Scenes = []daeVisualScene{{ID: "scene", Name: s.Name, Root: root}}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding collada: %w", err)
	}
	return enc.Close()
}

func daeGeometryFor(id, mat string, m *MeshSnapshot) daeGeometry {
	zero := 0
	positions := vec3Source(id+"-positions", m.Positions)
	g := daeGeometry{
		ID:   id,
		Name: m.Name,
		Mesh: daeMesh{
			Sources: []daeSource{positions},
			Vertices: daeVertices{
				ID:    id + "-vertices",
				Input: daeInput{Semantic: "POSITION", Source: "#" + positions.ID},
			},
		},
	}

	prims := daePrimitives{
		Material: mat,
		Inputs:   []daeInput{{Semantic: "VERTEX", Source: "#" + id + "-vertices", Offset: &zero}},
		P:        indices(m.Indices),
	}
	if m.Lines {
		prims.XMLName = xml.Name{Local: "lines"}
		prims.Count = len(m.Indices) / 2
	} else {
		prims.XMLName = xml.Name{Local: "triangles"}
		prims.Count = len(m.Indices) / 3
		normals := vec3Source(id+"-normals", m.Normals)
		g.Mesh.Sources = append(g.Mesh.Sources, normals)
		prims.Inputs = append(prims.Inputs, daeInput{Semantic: "NORMAL", Source: "#" + normals.ID, Offset: &zero})
	}
	g.Mesh.Primitives = prims
	return g
}

func vec3Source(id string, data [][3]float32) daeSource {
	flat := make([]float32, 0, len(data)*3)
	for _, v := range data {
		flat = append(flat, v[0], v[1], v[2])
	}
	return daeSource{
		ID:    id,
		Array: daeFloatArray{ID: id + "-array", Count: len(flat), Data: floats(flat)},
		Accessor: daeAccessor{
			Source: "#" + id + "-array",
			Count:  len(data),
			Stride: 3,
			Params: []daeParam{{"X", "float"}, {"Y", "float"}, {"Z", "float"}},
		},
	}
}

func floats(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return strings.Join(parts, " ")
}

func indices(v []uint32) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.FormatUint(uint64(n), 10)
	}
	return strings.Join(parts, " ")
}

// EncodeColladaZip writes a zip archive holding the COLLADA document as
// <scene name>.dae.
func EncodeColladaZip(s *Snapshot, w io.Writer) error {
	zw := zip.NewWriter(w)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     s.Name + ".dae",
		Method:   zip.Deflate,
		Modified: now(),
	})
	if err != nil {
		return err
	}
	if err := EncodeCollada(s, entry); err != nil {
		return err
	}
	return zw.Close()
}
