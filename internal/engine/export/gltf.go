package export

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// EncodeGLTF writes s as glTF 2.0, binary (.glb) or JSON with the buffer
// embedded as a data URI.
func EncodeGLTF(s *Snapshot, binary bool, w io.Writer) error {
	doc, err := Document(s)
	if err != nil {
		return err
	}
	if !binary {
		for _, b := range doc.Buffers {
			b.EmbeddedResource()
		}
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	return enc.Encode(doc)
}

// Document builds a glTF document with one node per snapshot mesh under a
// root node named after the scene.
func Document(s *Snapshot) (*gltf.Document, error) {
	if len(s.Meshes) == 0 {
		return nil, fmt.Errorf("nothing visible to export")
	}
	doc := gltf.NewDocument()
	doc.Asset.Generator = "crystalview"

	root := &gltf.Node{Name: s.Name}
	doc.Nodes = append(doc.Nodes, root)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	for i := range s.Meshes {
		m := &s.Meshes[i]

		prim := &gltf.Primitive{
			Attributes: map[string]int{
				gltf.POSITION: modeler.WritePosition(doc, m.Positions),
			},
			Indices:  gltf.Index(modeler.WriteIndices(doc, m.Indices)),
			Material: gltf.Index(len(doc.Materials)),
			Mode:     gltf.PrimitiveTriangles,
		}
		if m.Lines {
			prim.Mode = gltf.PrimitiveLines
		} else {
			prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, m.Normals)
		}

		doc.Materials = append(doc.Materials, material(m))
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{prim}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
		root.Children = append(root.Children, len(doc.Nodes)-1)
	}
	return doc, nil
}

func material(m *MeshSnapshot) *gltf.Material {
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float64{float64(m.Color[0]), float64(m.Color[1]), float64(m.Color[2]), float64(m.Opacity)},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	mat := &gltf.Material{
		Name:                 m.Name,
		PBRMetallicRoughness: pbr,
		DoubleSided:          m.DoubleSided,
		AlphaMode:            gltf.AlphaOpaque,
	}
	if m.Opacity < 1 {
		mat.AlphaMode = gltf.AlphaBlend
	}
	return mat
}
