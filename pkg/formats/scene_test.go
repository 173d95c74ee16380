package formats

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func TestParseSceneFile_NaCl(t *testing.T) {
	root, problems, err := ParseSceneFile(filepath.Join("testdata", "nacl.json"))
	if err != nil {
		t.Fatalf("ParseSceneFile failed: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}

	if root.Name != "NaCl" {
		t.Errorf("expected root name NaCl, got %q", root.Name)
	}
	if root.Origin == nil || *root.Origin != [3]float64{-0.5, -0.5, -0.5} {
		t.Errorf("unexpected origin %v", root.Origin)
	}
	if len(root.Lattice) != 3 {
		t.Errorf("expected 3 lattice vectors, got %d", len(root.Lattice))
	}
	if got := root.CountPrimitives(); got != 6 {
		t.Errorf("expected 6 primitives, got %d", got)
	}

	na := root.FindByName("Na")
	if na == nil || na.Primitive == nil {
		t.Fatal("Na primitive not found")
	}
	if na.Primitive.Kind != KindSpheres {
		t.Errorf("expected spheres, got %s", na.Primitive.Kind)
	}
	if len(na.Primitive.Positions) != 4 {
		t.Errorf("expected 4 positions, got %d", len(na.Primitive.Positions))
	}
	if !na.Primitive.Clickable || na.Primitive.Reference != "Na" {
		t.Errorf("expected clickable Na reference, got %v %v", na.Primitive.Clickable, na.Primitive.Reference)
	}
	if na.Primitive.Radius == nil || *na.Primitive.Radius != 0.25 {
		t.Errorf("unexpected radius %v", na.Primitive.Radius)
	}

	cl := root.FindByName("Cl")
	if got := cl.Primitive.Color.Hex(); got != "#1ff01f" {
		t.Errorf("expected 0-255 triple to parse as #1ff01f, got %s", got)
	}

	axes := root.FindByName("axes")
	if axes.IsVisible() {
		t.Error("axes group should be hidden")
	}
	label := root.FindByName("a-label")
	if label.Primitive.Label != "a" || label.Primitive.HoverLabel != "lattice vector a" {
		t.Errorf("unexpected label fields %+v", label.Primitive)
	}
}

func TestParseScene_InvalidJSON(t *testing.T) {
	_, _, err := ParseScene([]byte("{not json"))
	if !errors.Is(err, ErrInvalidScene) {
		t.Fatalf("expected ErrInvalidScene, got %v", err)
	}

	_, _, err = ParseScene([]byte("null"))
	if !errors.Is(err, ErrInvalidScene) {
		t.Fatalf("expected ErrInvalidScene for null, got %v", err)
	}
}

func TestParseScene_UnknownTypeBecomesPlaceholder(t *testing.T) {
	data := []byte(`{"name": "root", "contents": [
		{"name": "blob", "type": "tetrahedra", "positions": [[0,0,0]]},
		{"name": "ok", "type": "cubes", "positions": [[1,1,1]]}
	]}`)

	root, problems, err := ParseScene(data)
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %d: %v", len(problems), problems)
	}
	if !errors.Is(problems[0], ErrUnrecognizedPrimitiveType) {
		t.Errorf("expected ErrUnrecognizedPrimitiveType, got %v", problems[0])
	}
	var nodeErr *NodeError
	if !errors.As(problems[0], &nodeErr) || nodeErr.Path != "root/blob" {
		t.Errorf("expected path root/blob, got %v", problems[0])
	}

	blob := root.FindByName("blob")
	if blob.Primitive == nil || blob.Primitive.Kind != KindUnknown || blob.Primitive.Type != "tetrahedra" {
		t.Errorf("expected unknown placeholder, got %+v", blob.Primitive)
	}
	if root.CountPrimitives() != 2 {
		t.Errorf("unknown leaf must still count as a node")
	}
}

func TestParseScene_MalformedInstancesSkipped(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantCount int
	}{
		{
			name:      "non-numeric coordinate",
			json:      `{"type": "spheres", "positions": [[0,0,0], [0,"x",0], [1,1,1]]}`,
			wantCount: 2,
		},
		{
			name:      "pair with three endpoints",
			json:      `{"type": "cylinders", "positionPairs": [[[0,0,0],[1,0,0],[2,0,0]], [[0,0,0],[0,1,0]]]}`,
			wantCount: 1,
		},
		{
			name:      "odd line endpoints",
			json:      `{"type": "lines", "positions": [[0,0,0],[1,0,0],[2,0,0]]}`,
			wantCount: 2,
		},
		{
			name:      "missing positions",
			json:      `{"type": "cubes"}`,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, problems, err := ParseScene([]byte(tt.json))
			if err != nil {
				t.Fatalf("ParseScene failed: %v", err)
			}
			if len(problems) == 0 {
				t.Fatal("expected at least one problem")
			}
			for _, p := range problems {
				if !errors.Is(p, ErrMalformedPrimitive) {
					t.Errorf("expected ErrMalformedPrimitive, got %v", p)
				}
			}
			p := root.Primitive
			got := len(p.Positions) + len(p.PositionPairs)
			if got != tt.wantCount {
				t.Errorf("expected %d instances, got %d", tt.wantCount, got)
			}
		})
	}
}

func TestParseScene_EllipsoidForms(t *testing.T) {
	nested := []byte(`{"type": "ellipsoids", "positions": [[0,0,0],[1,0,0]],
		"ellipsoids": {"rotations": [[1,0,0],[0,1,0]], "scales": [[1,2,3],[3,2,1]]}}`)
	legacy := []byte(`{"type": "ellipsoids", "positions": [[0,0,0],[1,0,0]],
		"scale": [1,2,3], "rotate_to": [[1,0,0]]}`)

	root, _, err := ParseScene(nested)
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	set := root.Primitive.Ellipsoids
	if len(set.Rotations) != 2 || set.Rotations[1] != [3]float64{0, 1, 0} {
		t.Errorf("unexpected rotations %v", set.Rotations)
	}
	if set.Scales[1] != [3]float64{3, 2, 1} {
		t.Errorf("unexpected scales %v", set.Scales)
	}

	root, _, err = ParseScene(legacy)
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	set = root.Primitive.Ellipsoids
	if len(set.Scales) != 2 || set.Scales[1] != [3]float64{1, 2, 3} {
		t.Errorf("legacy scale should broadcast, got %v", set.Scales)
	}
	if set.Rotations[1] != [3]float64{1, 0, 0} {
		t.Errorf("legacy rotate_to should broadcast, got %v", set.Rotations)
	}
}

func TestParseScene_SpheresCarryEllipsoids(t *testing.T) {
	data := []byte(`{"name": "root", "contents": [
		{"name": "thermal", "type": "spheres", "positions": [[0,0,0],[1,1,1]], "radius": 1,
		 "ellipsoids": {"scales": [[3,1,1]]}},
		{"name": "round", "type": "spheres", "positions": [[0,0,0]]}
	]}`)

	root, problems, err := ParseScene(data)
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}

	set := root.FindByName("thermal").Primitive.Ellipsoids
	if set == nil {
		t.Fatal("ellipsoids on a spheres primitive were dropped")
	}
	if len(set.Scales) != 2 || set.Scales[1] != [3]float64{3, 1, 1} {
		t.Errorf("unexpected scales %v", set.Scales)
	}
	// Missing rotations leave the local x axis where it is.
	if len(set.Rotations) != 2 || set.Rotations[0] != [3]float64{1, 0, 0} {
		t.Errorf("expected default rotation (1,0,0), got %v", set.Rotations)
	}

	if root.FindByName("round").Primitive.Ellipsoids != nil {
		t.Error("plain spheres should carry no ellipsoids")
	}
}

func TestParseScene_SurfaceNormalsMismatch(t *testing.T) {
	data := []byte(`{"type": "surface", "positions": [[0,0,0],[1,0,0],[0,1,0]], "normals": [[0,0,1]]}`)
	root, problems, err := ParseScene(data)
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}
	if len(problems) != 1 {
		t.Errorf("expected one problem, got %v", problems)
	}
	if root.Primitive.Normals != nil {
		t.Errorf("mismatched normals should be dropped")
	}
}

func TestParseScene_Bezier(t *testing.T) {
	data := []byte(`{"type": "bezier",
		"controlPoints": [[[0,0,0],[1,1,0],[2,1,0],[3,0,0]]],
		"color": ["#ff0000"], "radius": [0.2]}`)
	root, problems, err := ParseScene(data)
	if err != nil || len(problems) != 0 {
		t.Fatalf("unexpected failure: %v %v", err, problems)
	}
	p := root.Primitive
	if len(p.ControlPoints) != 1 || len(p.Colors) != 1 || len(p.Radii) != 1 {
		t.Errorf("unexpected bezier %+v", p)
	}
	if p.Radius != nil {
		t.Errorf("list radius should not populate scalar radius")
	}
}

func TestSceneNode_BoundingBox(t *testing.T) {
	empty := &SceneNode{Name: "empty"}
	if got := empty.BoundingBox(); got != ([2][3]float64{}) {
		t.Errorf("empty tree should give zero box, got %v", got)
	}

	root, _, err := ParseSceneFile(filepath.Join("testdata", "nacl.json"))
	if err != nil {
		t.Fatalf("ParseSceneFile failed: %v", err)
	}
	box := root.BoundingBox()
	if box[0] != [3]float64{0, 0, 0} {
		t.Errorf("expected min at origin (group origin ignored), got %v", box[0])
	}
	if box[1] != [3]float64{1.1, 1, 1} {
		t.Errorf("unexpected max %v", box[1])
	}
}

func TestSceneNode_FindByNameFirstMatch(t *testing.T) {
	root := &SceneNode{Name: "root", Contents: []SceneNode{
		{Name: "a", Contents: []SceneNode{{Name: "dup", Primitive: &Primitive{Kind: KindCubes}}}},
		{Name: "dup"},
	}}
	found := root.FindByName("dup")
	if found == nil || found.Primitive == nil {
		t.Errorf("expected the depth-first match inside a, got %+v", found)
	}
	if root.FindByName("missing") != nil {
		t.Error("expected nil for missing name")
	}
}

func TestSceneNode_MarshalTrimsUnset(t *testing.T) {
	data := []byte(`{"name": "root", "contents": [{"name": "s", "type": "spheres", "positions": [[0,0,0]], "color": "red"}]}`)
	root, _, err := ParseScene(data)
	if err != nil {
		t.Fatalf("ParseScene failed: %v", err)
	}

	out, err := json.Marshal(root)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := back["origin"]; ok {
		t.Error("unset origin should be trimmed")
	}
	leaf := back["contents"].([]any)[0].(map[string]any)
	if leaf["color"] != "#ff0000" {
		t.Errorf("expected hex color, got %v", leaf["color"])
	}
	for _, key := range []string{"radius", "opacity", "clickable", "tooltip"} {
		if _, ok := leaf[key]; ok {
			t.Errorf("unset %s should be trimmed", key)
		}
	}

	again, problems, err := ParseScene(out)
	if err != nil || len(problems) != 0 {
		t.Fatalf("re-parse failed: %v %v", err, problems)
	}
	if again.Summary() != "spheres:1" {
		t.Errorf("unexpected summary %q", again.Summary())
	}
}

func TestParsePrimitiveKind(t *testing.T) {
	if k, ok := ParsePrimitiveKind("convex"); !ok || k != KindConvex {
		t.Errorf("expected convex, got %v %v", k, ok)
	}
	if _, ok := ParsePrimitiveKind("unknown"); ok {
		t.Error("the unknown kind must not be selectable by name")
	}
}
