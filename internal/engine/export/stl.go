package export

import (
	"fmt"
	"io"

	"github.com/hschendel/stl"

	"github.com/Faultbox/crystalview/pkg/math"
)

// EncodeSTL writes the triangle meshes of s as binary STL. Lines have no
// STL representation and are skipped.
func EncodeSTL(s *Snapshot, w io.Writer) error {
	solid := &stl.Solid{Name: s.Name}
	for i := range s.Meshes {
		m := &s.Meshes[i]
		if m.Lines {
			continue
		}
		for t := 0; t+2 < len(m.Indices); t += 3 {
			a := m.Positions[m.Indices[t]]
			b := m.Positions[m.Indices[t+1]]
			c := m.Positions[m.Indices[t+2]]
			n := math.V3(b).Sub(math.V3(a)).Cross(math.V3(c).Sub(math.V3(a))).Normalize()
			solid.Triangles = append(solid.Triangles, stl.Triangle{
				Normal:   stl.Vec3(n.Array()),
				Vertices: [3]stl.Vec3{stl.Vec3(a), stl.Vec3(b), stl.Vec3(c)},
			})
		}
	}
	if len(solid.Triangles) == 0 {
		return fmt.Errorf("no triangles to export")
	}
	return solid.WriteAll(w)
}
