// Package lighting resolves the light rig and shades surfaces with it.
package lighting

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/logger"
	"github.com/Faultbox/crystalview/pkg/formats"
	"github.com/Faultbox/crystalview/pkg/math"
)

// Kind is the light type.
type Kind int

const (
	Directional Kind = iota
	Ambient
	Hemisphere
)

func (k Kind) String() string {
	switch k {
	case Directional:
		return "DirectionalLight"
	case Ambient:
		return "AmbientLight"
	case Hemisphere:
		return "HemisphereLight"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Light is one resolved light. For directional and hemisphere lights,
// Position is where the light sits; it shines toward the origin.
type Light struct {
	Kind        Kind
	Color       [3]float32
	GroundColor [3]float32 // hemisphere only
	Intensity   float32
	Position    math.Vec3
	Helper      bool
}

// Direction returns the unit vector from the origin toward the light.
func (l Light) Direction() math.Vec3 {
	d := l.Position.Normalize()
	if d == (math.Vec3{}) {
		return math.Vec3{Y: 1}
	}
	return d
}

var (
	white       = formats.MustColor("#ffffff")
	defaultUp   = math.Vec3{Y: 1}
	groundColor = formats.MustColor("#444444")
)

// FromDescriptor resolves one descriptor. Only the type is required: an
// unknown type wraps formats.ErrUnsupportedDescriptor, while a missing or
// unreadable argument is logged and replaced by its default.
func FromDescriptor(d formats.LightDescriptor) (Light, error) {
	l := Light{Position: defaultUp, Helper: d.Helper}
	if d.Position != nil {
		l.Position = math.V3d(*d.Position)
	}

	var (
		color     formats.Color
		intensity float64
	)
	switch d.Type {
	case "DirectionalLight", "AmbientLight":
		l.Kind = Directional
		if d.Type == "AmbientLight" {
			l.Kind = Ambient
		}
		color = argColor(d, 0, white)
		intensity = argFloat(d, 1, 1)
	case "HemisphereLight":
		l.Kind = Hemisphere
		color = argColor(d, 0, white)
		l.GroundColor = argColor(d, 1, groundColor).Array()
		intensity = argFloat(d, 2, 1)
	default:
		return Light{}, fmt.Errorf("%w: light %q", formats.ErrUnsupportedDescriptor, d.Type)
	}
	l.Color = color.Array()
	l.Intensity = float32(intensity)
	return l, nil
}

func argColor(d formats.LightDescriptor, i int, def formats.Color) formats.Color {
	c, err := d.ArgColor(i, def)
	if err != nil {
		warnArg(d, i, err)
		return def
	}
	return c
}

func argFloat(d formats.LightDescriptor, i int, def float64) float64 {
	f, err := d.ArgFloat(i, def)
	if err != nil {
		warnArg(d, i, err)
		return def
	}
	return f
}

func warnArg(d formats.LightDescriptor, i int, err error) {
	logger.Named("lighting").Warn("light argument ignored, using default",
		zap.String("light", d.Type), zap.Int("arg", i), zap.Error(err))
}

// Rig resolves a list of descriptors, stopping at the first bad one.
func Rig(descs []formats.LightDescriptor) ([]Light, error) {
	lights := make([]Light, 0, len(descs))
	for i, d := range descs {
		l, err := FromDescriptor(d)
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		lights = append(lights, l)
	}
	return lights, nil
}
