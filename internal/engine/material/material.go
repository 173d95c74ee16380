// Package material turns the scene material descriptor into per-primitive
// materials.
package material

import (
	"fmt"

	"github.com/Faultbox/crystalview/pkg/formats"
)

// Model is the shading model of a material.
type Model int

const (
	Standard Model = iota
	Phong
	Lambert
	Basic
)

var modelNames = map[string]Model{
	"MeshStandardMaterial": Standard,
	"MeshPhongMaterial":    Phong,
	"MeshLambertMaterial":  Lambert,
	"MeshBasicMaterial":    Basic,
}

func (m Model) String() string {
	for name, model := range modelNames {
		if model == m {
			return name
		}
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// DefaultColor is used for primitives without a color.
var DefaultColor = formats.MustColor("#52afb0")

// Parameter defaults.
const (
	DefaultRoughness = 1.0
	DefaultMetalness = 0.0
	DefaultShininess = 30.0
)

// Material is the resolved material of one drawable.
type Material struct {
	Model       Model
	Color       formats.Color
	Opacity     float32
	Transparent bool
	DoubleSided bool
	Roughness   float32
	Metalness   float32
	Shininess   float32
	Specular    formats.Color
}

// Factory builds materials that share one descriptor.
type Factory struct {
	model     Model
	roughness float32
	metalness float32
	shininess float32
	specular  formats.Color
}

// NewFactory validates desc. Unknown material types are rejected with
// formats.ErrUnsupportedDescriptor.
func NewFactory(desc formats.MaterialDescriptor) (*Factory, error) {
	model, ok := modelNames[desc.Type]
	if !ok {
		return nil, fmt.Errorf("%w: material %q", formats.ErrUnsupportedDescriptor, desc.Type)
	}
	return &Factory{
		model:     model,
		roughness: float32(desc.Param("roughness", DefaultRoughness)),
		metalness: float32(desc.Param("metalness", DefaultMetalness)),
		shininess: float32(desc.Param("shininess", DefaultShininess)),
		specular:  formats.MustColor("#111111"),
	}, nil
}

// Model returns the shading model the factory produces.
func (f *Factory) Model() Model {
	return f.model
}

// Make returns a new material with the given color and opacity, falling
// back to DefaultColor and full opacity.
func (f *Factory) Make(color formats.Color, opacity *float64) *Material {
	m := &Material{
		Model:     f.model,
		Color:     color.Or(DefaultColor),
		Opacity:   1,
		Roughness: f.roughness,
		Metalness: f.metalness,
		Shininess: f.shininess,
		Specular:  f.specular,
	}
	if opacity != nil {
		m.Opacity = min(max(float32(*opacity), 0), 1)
	}
	m.Transparent = m.Opacity < 1
	return m
}

// Unlit returns a Basic material, used for lines and overlays regardless of
// the scene material.
func (f *Factory) Unlit(color formats.Color, opacity *float64) *Material {
	m := f.Make(color, opacity)
	m.Model = Basic
	return m
}
