package debug

import (
	"fmt"

	"github.com/Faultbox/crystalview/internal/engine/lighting"
	"github.com/Faultbox/crystalview/pkg/formats"
)

// LightHelpersName is the name of the light helper overlay node.
const LightHelpersName = "light-helpers"

// LightHelpers returns a marker cube at each helper-enabled light and a
// dashed line from it toward the origin. Ambient lights have no position and
// get no helper. Nil when no light asks for one.
func LightHelpers(lights []lighting.Light, size float64) *formats.SceneNode {
	node := &formats.SceneNode{Name: LightHelpersName}
	for i, l := range lights {
		if !l.Helper || l.Kind == lighting.Ambient {
			continue
		}
		pos := [3]float64{float64(l.Position.X), float64(l.Position.Y), float64(l.Position.Z)}
		color := formats.Color{R: l.Color[0], G: l.Color[1], B: l.Color[2], Set: true}
		width := size
		dash, gap := size, size/2
		name := fmt.Sprintf("%s-%d", l.Kind, i)

		node.Contents = append(node.Contents, formats.SceneNode{
			Name: name,
			Contents: []formats.SceneNode{
				{Name: name + "-marker", Primitive: &formats.Primitive{
					Kind:      formats.KindCubes,
					Type:      formats.KindCubes.String(),
					Positions: [][3]float64{pos},
					Color:     color,
					Width:     &width,
				}},
				{Name: name + "-ray", Primitive: &formats.Primitive{
					Kind:      formats.KindLines,
					Type:      formats.KindLines.String(),
					Positions: [][3]float64{pos, {}},
					Color:     color,
					DashSize:  &dash,
					GapSize:   &gap,
				}},
			},
		})
	}
	if len(node.Contents) == 0 {
		return nil
	}
	return node
}
