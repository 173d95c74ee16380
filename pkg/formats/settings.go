package formats

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Renderer names accepted by Settings.Renderer.
const (
	RendererWebGL = "webgl"
	RendererSVG   = "svg"
)

// LightDescriptor describes one light of the rig. Args are positional:
//
//	DirectionalLight(color, intensity)
//	AmbientLight(color, intensity)
//	HemisphereLight(skyColor, groundColor, intensity)
type LightDescriptor struct {
	Type     string      `json:"type" yaml:"type"`
	Args     []any       `json:"args,omitempty" yaml:"args,omitempty"`
	Position *[3]float64 `json:"position,omitempty" yaml:"position,omitempty"`
	Helper   bool        `json:"helper,omitempty" yaml:"helper,omitempty"`
}

// ArgColor returns positional argument i as a color, or def when absent.
func (d LightDescriptor) ArgColor(i int, def Color) (Color, error) {
	if i >= len(d.Args) {
		return def, nil
	}
	c, err := ParseColor(d.Args[i])
	if err != nil {
		return def, fmt.Errorf("%s arg %d: %w", d.Type, i, err)
	}
	return c.Or(def), nil
}

// ArgFloat returns positional argument i as a number, or def when absent.
func (d LightDescriptor) ArgFloat(i int, def float64) (float64, error) {
	if i >= len(d.Args) || d.Args[i] == nil {
		return def, nil
	}
	f, ok := toFloat(d.Args[i])
	if !ok {
		return def, fmt.Errorf("%s arg %d: expected a number, got %T", d.Type, i, d.Args[i])
	}
	return f, nil
}

// MaterialDescriptor selects the material model and its numeric parameters.
type MaterialDescriptor struct {
	Type       string             `json:"type" yaml:"type"`
	Parameters map[string]float64 `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Param returns a named parameter or def.
func (m MaterialDescriptor) Param(name string, def float64) float64 {
	if v, ok := m.Parameters[name]; ok {
		return v
	}
	return def
}

// Settings is the viewer configuration contract. Keys match the payload
// settings object, so the same struct reads JSON payloads and the yaml
// config file.
type Settings struct {
	Antialias             bool               `json:"antialias" yaml:"antialias"`
	TransparentBackground bool               `json:"transparentBackground" yaml:"transparentBackground"`
	Background            string             `json:"background" yaml:"background"`
	SphereSegments        int                `json:"sphereSegments" yaml:"sphereSegments"`
	CylinderSegments      int                `json:"cylinderSegments" yaml:"cylinderSegments"`
	StaticScene           bool               `json:"staticScene" yaml:"staticScene"`
	DefaultSurfaceOpacity float64            `json:"defaultSurfaceOpacity" yaml:"defaultSurfaceOpacity"`
	ObjectScale           float64            `json:"objectScale" yaml:"objectScale"`
	CylinderScale         float64            `json:"cylinderScale" yaml:"cylinderScale"`
	DefaultZoom           float64            `json:"defaultZoom" yaml:"defaultZoom"`
	Lights                []LightDescriptor  `json:"lights" yaml:"lights"`
	Material              MaterialDescriptor `json:"material" yaml:"material"`
	EnableZoom            bool               `json:"enableZoom" yaml:"enableZoom"`
	ZoomTransition        int                `json:"zoomTransition" yaml:"zoomTransition"` // milliseconds
	ExtractAxis           bool               `json:"extractAxis" yaml:"extractAxis"`
	Renderer              string             `json:"renderer" yaml:"renderer"`
}

// DefaultSettings returns the default settings table. Each call returns a
// fresh value, safe to modify.
func DefaultSettings() Settings {
	return Settings{
		Antialias:             true,
		TransparentBackground: false,
		Background:            "#ffffff",
		SphereSegments:        32,
		CylinderSegments:      16,
		StaticScene:           true,
		DefaultSurfaceOpacity: 0.5,
		ObjectScale:           1.0,
		CylinderScale:         0.1,
		DefaultZoom:           0.8,
		Lights: []LightDescriptor{
			{Type: "HemisphereLight", Args: []any{"#eeeeee", "#999999", 1.0}},
			{Type: "DirectionalLight", Args: []any{"#ffffff", 0.15}, Position: &[3]float64{-10, 10, 10}},
		},
		Material: MaterialDescriptor{
			Type:       "MeshStandardMaterial",
			Parameters: map[string]float64{"roughness": 0.07, "metalness": 0.0},
		},
		EnableZoom:     true,
		ZoomTransition: 0,
		ExtractAxis:    false,
		Renderer:       RendererWebGL,
	}
}

// BackgroundColor parses Background, falling back to white.
func (s Settings) BackgroundColor() Color {
	c, err := ParseColor(s.Background)
	if err != nil {
		return MustColor("#ffffff")
	}
	return c.Or(MustColor("#ffffff"))
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	out.Lights = slices.Clone(s.Lights)
	for i := range out.Lights {
		out.Lights[i].Args = slices.Clone(out.Lights[i].Args)
	}
	out.Material.Parameters = maps.Clone(s.Material.Parameters)
	return out
}

// ParseSettings reads a JSON settings object on top of the defaults.
func ParseSettings(data []byte) (Settings, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	return MergeSettings(DefaultSettings(), raw), nil
}

// MergeSettings overlays raw onto base key by key. Unknown keys and values of
// the wrong type are ignored, so base is kept for them. Lights and material
// are replaced as a whole rather than merged.
func MergeSettings(base Settings, raw map[string]any) Settings {
	s := base.Clone()
	for key, value := range raw {
		b, err := json.Marshal(map[string]any{key: value})
		if err != nil {
			continue
		}
		tmp := s.Clone()
		switch key {
		case "lights":
			tmp.Lights = nil
		case "material":
			tmp.Material = MaterialDescriptor{}
		}
		if err := json.Unmarshal(b, &tmp); err != nil {
			continue
		}
		s = tmp
	}
	return s.Sanitized()
}

// Sanitized replaces values the builders cannot work with.
func (s Settings) Sanitized() Settings {
	def := DefaultSettings()
	if s.SphereSegments < 3 {
		s.SphereSegments = def.SphereSegments
	}
	if s.CylinderSegments < 3 {
		s.CylinderSegments = def.CylinderSegments
	}
	if s.ObjectScale <= 0 {
		s.ObjectScale = def.ObjectScale
	}
	if s.CylinderScale <= 0 {
		s.CylinderScale = def.CylinderScale
	}
	if s.DefaultZoom <= 0 {
		s.DefaultZoom = def.DefaultZoom
	}
	if s.DefaultSurfaceOpacity < 0 || s.DefaultSurfaceOpacity > 1 {
		s.DefaultSurfaceOpacity = def.DefaultSurfaceOpacity
	}
	if s.ZoomTransition < 0 {
		s.ZoomTransition = 0
	}
	if s.Material.Type == "" {
		s.Material = def.Material
	}
	if s.Renderer == "" {
		s.Renderer = RendererWebGL
	}
	return s
}
