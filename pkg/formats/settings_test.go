package formats

import (
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if !s.Antialias || s.TransparentBackground || !s.StaticScene || !s.EnableZoom || s.ExtractAxis {
		t.Errorf("unexpected boolean defaults %+v", s)
	}
	if s.Background != "#ffffff" {
		t.Errorf("expected white background, got %s", s.Background)
	}
	if s.SphereSegments != 32 || s.CylinderSegments != 16 {
		t.Errorf("unexpected segment defaults %d/%d", s.SphereSegments, s.CylinderSegments)
	}
	if s.DefaultSurfaceOpacity != 0.5 || s.ObjectScale != 1.0 || s.CylinderScale != 0.1 || s.DefaultZoom != 0.8 {
		t.Errorf("unexpected numeric defaults %+v", s)
	}
	if len(s.Lights) != 2 || s.Lights[0].Type != "HemisphereLight" || s.Lights[1].Type != "DirectionalLight" {
		t.Errorf("unexpected light rig %+v", s.Lights)
	}
	if *s.Lights[1].Position != [3]float64{-10, 10, 10} {
		t.Errorf("unexpected directional light position %v", *s.Lights[1].Position)
	}
	if s.Material.Type != "MeshStandardMaterial" || s.Material.Param("roughness", 0) != 0.07 {
		t.Errorf("unexpected material %+v", s.Material)
	}
	if s.Renderer != RendererWebGL || s.ZoomTransition != 0 {
		t.Errorf("unexpected renderer defaults %q %d", s.Renderer, s.ZoomTransition)
	}
}

func TestParseSettings_Overlay(t *testing.T) {
	data := []byte(`{
		"sphereSegments": 12,
		"staticScene": false,
		"background": "#000000",
		"somethingElse": true,
		"cylinderScale": "thick",
		"material": {"type": "MeshPhongMaterial", "parameters": {"shininess": 30}}
	}`)

	s, err := ParseSettings(data)
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}
	if s.SphereSegments != 12 || s.StaticScene {
		t.Errorf("overlay not applied: %+v", s)
	}
	if s.CylinderScale != 0.1 {
		t.Errorf("wrongly typed value should keep default, got %v", s.CylinderScale)
	}
	if s.CylinderSegments != 16 {
		t.Errorf("missing key should keep default, got %d", s.CylinderSegments)
	}
	if s.Material.Type != "MeshPhongMaterial" {
		t.Errorf("expected phong material, got %s", s.Material.Type)
	}
	if _, ok := s.Material.Parameters["roughness"]; ok {
		t.Error("material must be replaced, not merged")
	}
	if s.BackgroundColor().Hex() != "#000000" {
		t.Errorf("unexpected background %s", s.BackgroundColor().Hex())
	}
}

func TestMergeSettings_DoesNotMutateBase(t *testing.T) {
	base := DefaultSettings()
	_ = MergeSettings(base, map[string]any{
		"lights":   []any{map[string]any{"type": "AmbientLight", "args": []any{"#ffffff", 0.5}}},
		"material": map[string]any{"type": "MeshBasicMaterial"},
	})
	if len(base.Lights) != 2 || base.Lights[0].Type != "HemisphereLight" {
		t.Errorf("base lights mutated: %+v", base.Lights)
	}
	if base.Material.Parameters["roughness"] != 0.07 {
		t.Errorf("base material mutated: %+v", base.Material)
	}
}

func TestMergeSettings_Sanitizes(t *testing.T) {
	s := MergeSettings(DefaultSettings(), map[string]any{"sphereSegments": 1, "defaultZoom": -2})
	if s.SphereSegments != 32 || s.DefaultZoom != 0.8 {
		t.Errorf("invalid values should revert to defaults, got %d %v", s.SphereSegments, s.DefaultZoom)
	}
}

func TestLightDescriptorArgs(t *testing.T) {
	d := LightDescriptor{Type: "HemisphereLight", Args: []any{"#eeeeee", nil, 2}}

	sky, err := d.ArgColor(0, Color{})
	if err != nil || sky.Hex() != "#eeeeee" {
		t.Errorf("unexpected sky color %v %v", sky, err)
	}
	ground, err := d.ArgColor(1, MustColor("#999999"))
	if err != nil || ground.Hex() != "#999999" {
		t.Errorf("nil arg should take the default, got %v %v", ground, err)
	}
	intensity, err := d.ArgFloat(2, 1)
	if err != nil || intensity != 2 {
		t.Errorf("unexpected intensity %v %v", intensity, err)
	}
	if _, err := (LightDescriptor{Type: "AmbientLight", Args: []any{"#fff", "bright"}}).ArgFloat(1, 1); err == nil {
		t.Error("expected an error for a non-numeric intensity")
	}
}
