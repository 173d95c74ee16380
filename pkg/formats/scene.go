package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Scene format errors.
var (
	ErrUnrecognizedPrimitiveType = errors.New("unrecognized primitive type")
	ErrMalformedPrimitive        = errors.New("malformed primitive")
	ErrUnsupportedDescriptor     = errors.New("unsupported descriptor")
	ErrInvalidScene              = errors.New("invalid scene payload")
)

// PrimitiveKind discriminates the primitive variants.
type PrimitiveKind int

// Primitive kinds. KindUnknown marks a leaf whose type matched nothing; it is
// kept in the tree so it can render as an empty placeholder.
const (
	KindUnknown PrimitiveKind = iota
	KindSpheres
	KindEllipsoids
	KindCylinders
	KindCubes
	KindLines
	KindSurface
	KindConvex
	KindArrows
	KindLabels
	KindBezier
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindSpheres:    "spheres",
	KindEllipsoids: "ellipsoids",
	KindCylinders:  "cylinders",
	KindCubes:      "cubes",
	KindLines:      "lines",
	KindSurface:    "surface",
	KindConvex:     "convex",
	KindArrows:     "arrows",
	KindLabels:     "labels",
	KindBezier:     "bezier",
}

// String returns the wire name of the kind.
func (k PrimitiveKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("PrimitiveKind(%d)", int(k))
}

// ParsePrimitiveKind maps a wire type name to a kind.
func ParsePrimitiveKind(s string) (PrimitiveKind, bool) {
	for k, name := range kindNames {
		if k != int(KindUnknown) && name == s {
			return PrimitiveKind(k), true
		}
	}
	return KindUnknown, false
}

// usesPairs reports whether the kind is positioned by endpoint pairs.
func (k PrimitiveKind) usesPairs() bool {
	return k == KindCylinders || k == KindArrows
}

// SceneNode is one node of the scene tree: a group when Primitive is nil, a
// primitive leaf otherwise.
type SceneNode struct {
	Name      string
	Contents  []SceneNode
	Origin    *[3]float64
	Visible   *bool
	Lattice   [][3]float64
	Primitive *Primitive
}

// EllipsoidSet carries per-instance ellipsoid orientation and scale.
type EllipsoidSet struct {
	Rotations [][3]float64 // direction the local x axis is turned to
	Scales    [][3]float64
}

// Primitive is the typed form of one primitive leaf.
type Primitive struct {
	Kind PrimitiveKind
	Type string // raw type string as received

	Positions     [][3]float64
	PositionPairs [][2][3]float64
	Normals       [][3]float64
	ControlPoints [][][3]float64 // bezier curves, 4 points each

	Color  Color
	Colors []Color   // bezier per-curve colors
	Radii  []float64 // bezier per-curve radii

	Visible   *bool
	Clickable bool
	Reference any
	Tooltip   string

	Radius     *float64
	Width      *float64
	Opacity    *float64
	LineWidth  *float64
	DashSize   *float64
	GapSize    *float64
	Scale      *float64
	HeadLength *float64
	HeadWidth  *float64
	PhiStart   *float64
	PhiEnd     *float64

	Ellipsoids *EllipsoidSet

	Label      string
	HoverLabel string
	ShowEdges  bool
}

// IsGroup reports whether the node is a group.
func (n *SceneNode) IsGroup() bool {
	return n.Primitive == nil
}

// IsVisible resolves the optional visibility flag, defaulting to visible.
func (n *SceneNode) IsVisible() bool {
	if n.Primitive != nil && n.Primitive.Visible != nil {
		return *n.Primitive.Visible
	}
	if n.Visible != nil {
		return *n.Visible
	}
	return true
}

// NodeError locates a recoverable problem inside the tree.
type NodeError struct {
	Path string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// ParseScene parses a scene payload. The returned slice lists recoverable
// per-node problems (unknown types, skipped instances); the error is reserved
// for payloads that cannot be decoded at all.
func ParseScene(data []byte) (*SceneNode, []error, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: payload is null", ErrInvalidScene)
	}
	node, problems := DecodeSceneNode(raw)
	return &node, problems, nil
}

// ParseSceneFile parses a scene payload from disk.
func ParseSceneFile(path string) (*SceneNode, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading scene file: %w", err)
	}
	return ParseScene(data)
}

// DecodeSceneNode converts one decoded JSON object into a node.
func DecodeSceneNode(raw map[string]any) (SceneNode, []error) {
	d := &decoder{}
	node := d.node(raw, "")
	return node, d.problems
}

type decoder struct {
	problems []error
}

func (d *decoder) report(path string, err error) {
	d.problems = append(d.problems, &NodeError{Path: path, Err: err})
}

func (d *decoder) node(raw map[string]any, parent string) SceneNode {
	name, _ := raw["name"].(string)
	path := joinPath(parent, name)

	if _, isPrimitive := raw["type"]; isPrimitive {
		return SceneNode{Name: name, Primitive: d.primitive(raw, path)}
	}

	node := SceneNode{Name: name}
	if v, ok := raw["origin"]; ok && v != nil {
		if o, err := toVec3(v); err == nil {
			node.Origin = &o
		} else {
			d.report(path, fmt.Errorf("origin: %w", err))
		}
	}
	if v, ok := raw["visible"].(bool); ok {
		node.Visible = &v
	}
	if v, ok := raw["lattice"].([]any); ok {
		for _, row := range v {
			if vec, err := toVec3(row); err == nil {
				node.Lattice = append(node.Lattice, vec)
			}
		}
	}

	contents, _ := raw["contents"].([]any)
	for i, item := range contents {
		child, ok := item.(map[string]any)
		if !ok {
			d.report(fmt.Sprintf("%s[%d]", path, i), fmt.Errorf("%w: content is not an object", ErrMalformedPrimitive))
			continue
		}
		node.Contents = append(node.Contents, d.node(child, path))
	}
	return node
}

func (d *decoder) primitive(raw map[string]any, path string) *Primitive {
	typ, _ := raw["type"].(string)
	p := &Primitive{Type: typ}

	kind, ok := ParsePrimitiveKind(typ)
	if !ok {
		d.report(path, fmt.Errorf("%w: %q", ErrUnrecognizedPrimitiveType, typ))
		return p
	}
	p.Kind = kind

	p.Clickable, _ = raw["clickable"].(bool)
	p.Reference = raw["reference"]
	if v, ok := raw["visible"].(bool); ok {
		p.Visible = &v
	}
	p.Tooltip, _ = raw["tooltip"].(string)

	if v, ok := raw["color"]; ok {
		if list, isList := v.([]any); isList && kind == KindBezier && len(list) > 0 {
			if _, nested := list[0].(string); nested {
				for _, c := range list {
					col, err := ParseColor(c)
					if err != nil {
						d.report(path, err)
					}
					p.Colors = append(p.Colors, col)
				}
			}
		} else {
			col, err := ParseColor(v)
			if err != nil {
				d.report(path, err)
			}
			p.Color = col
		}
	}

	p.Radius = optFloat(raw, "radius")
	p.Width = optFloat(raw, "width")
	p.Opacity = optFloat(raw, "opacity")
	p.LineWidth = optFloat(raw, "linewidth", "lineWidth")
	p.DashSize = optFloat(raw, "dashSize")
	p.GapSize = optFloat(raw, "gapSize")
	p.Scale = optFloat(raw, "scale")
	p.HeadLength = optFloat(raw, "headLength")
	p.HeadWidth = optFloat(raw, "headWidth")
	p.PhiStart = optFloat(raw, "phiStart")
	p.PhiEnd = optFloat(raw, "phiEnd")
	p.ShowEdges, _ = raw["show_edges"].(bool)

	switch {
	case kind.usesPairs():
		p.PositionPairs = d.pairs(raw["positionPairs"], path)
		if len(p.PositionPairs) == 0 {
			d.report(path, fmt.Errorf("%w: no position pairs", ErrMalformedPrimitive))
		}
	case kind == KindBezier:
		d.bezier(p, raw, path)
	default:
		positions := raw["positions"]
		if positions == nil && kind == KindLabels {
			positions = raw["position"]
		}
		p.Positions = d.points(positions, path)
		if len(p.Positions) == 0 {
			d.report(path, fmt.Errorf("%w: no positions", ErrMalformedPrimitive))
		}
	}

	switch kind {
	case KindLines:
		if len(p.Positions)%2 != 0 {
			d.report(path, fmt.Errorf("%w: odd number of line endpoints, last one dropped", ErrMalformedPrimitive))
			p.Positions = p.Positions[:len(p.Positions)-1]
		}
	case KindSurface:
		if rem := len(p.Positions) % 3; rem != 0 {
			d.report(path, fmt.Errorf("%w: surface vertex count not a multiple of 3", ErrMalformedPrimitive))
			p.Positions = p.Positions[:len(p.Positions)-rem]
		}
		if v, ok := raw["normals"]; ok && v != nil {
			normals := d.points(v, path)
			if len(normals) == len(p.Positions) {
				p.Normals = normals
			} else {
				d.report(path, fmt.Errorf("%w: %d normals for %d vertices, normals ignored", ErrMalformedPrimitive, len(normals), len(p.Positions)))
			}
		}
	case KindEllipsoids:
		d.ellipsoids(p, raw, path)
	case KindSpheres:
		// Thermal ellipsoids ride on spheres; plain spheres stay round.
		if _, ok := raw["ellipsoids"]; ok {
			d.ellipsoids(p, raw, path)
		}
	case KindLabels:
		p.Label, _ = raw["label"].(string)
		if s, ok := raw["hoverLabel"].(string); ok {
			p.HoverLabel = s
		} else if s, ok := raw["labelHover"].(string); ok {
			p.HoverLabel = s
		}
	}
	return p
}

// ellipsoids normalizes both the nested {rotations, scales} form and the
// older scale + rotate_to pair into one rotation and scale per instance.
func (d *decoder) ellipsoids(p *Primitive, raw map[string]any, path string) {
	set := &EllipsoidSet{}
	if nested, ok := raw["ellipsoids"].(map[string]any); ok {
		set.Rotations = d.points(nested["rotations"], path)
		set.Scales = d.points(nested["scales"], path)
	} else {
		set.Rotations = d.points(raw["rotate_to"], path)
		if v, ok := raw["scale"]; ok {
			if s, err := toVec3(v); err == nil {
				set.Scales = [][3]float64{s}
			} else if list := d.points(v, path); len(list) > 0 {
				set.Scales = list
			}
		}
	}

	n := len(p.Positions)
	set.Rotations = broadcast(set.Rotations, n, [3]float64{1, 0, 0})
	set.Scales = broadcast(set.Scales, n, [3]float64{1, 1, 1})
	p.Ellipsoids = set
}

func (d *decoder) bezier(p *Primitive, raw map[string]any, path string) {
	curves, _ := raw["controlPoints"].([]any)
	for i, c := range curves {
		pts := d.points(c, path)
		if len(pts) != 4 {
			d.report(path, fmt.Errorf("%w: curve %d has %d control points, want 4", ErrMalformedPrimitive, i, len(pts)))
			continue
		}
		p.ControlPoints = append(p.ControlPoints, pts)
	}
	if len(p.ControlPoints) == 0 {
		d.report(path, fmt.Errorf("%w: no control points", ErrMalformedPrimitive))
	}
	if list, ok := raw["radius"].([]any); ok {
		for _, r := range list {
			if f, ok := toFloat(r); ok {
				p.Radii = append(p.Radii, f)
			}
		}
		p.Radius = nil
	}
}

// points decodes a list of [x, y, z] entries, skipping bad ones.
func (d *decoder) points(v any, path string) [][3]float64 {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([][3]float64, 0, len(list))
	for i, item := range list {
		vec, err := toVec3(item)
		if err != nil {
			d.report(path, fmt.Errorf("%w: position %d: %v", ErrMalformedPrimitive, i, err))
			continue
		}
		out = append(out, vec)
	}
	return out
}

// pairs decodes a list of endpoint pairs, skipping pairs that do not have
// exactly two valid endpoints.
func (d *decoder) pairs(v any, path string) [][2][3]float64 {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([][2][3]float64, 0, len(list))
	for i, item := range list {
		ends, ok := item.([]any)
		if !ok || len(ends) != 2 {
			d.report(path, fmt.Errorf("%w: pair %d does not have two endpoints", ErrMalformedPrimitive, i))
			continue
		}
		a, errA := toVec3(ends[0])
		b, errB := toVec3(ends[1])
		if errA != nil || errB != nil {
			d.report(path, fmt.Errorf("%w: pair %d has a bad endpoint", ErrMalformedPrimitive, i))
			continue
		}
		out = append(out, [2][3]float64{a, b})
	}
	return out
}

func broadcast(list [][3]float64, n int, def [3]float64) [][3]float64 {
	if len(list) >= n {
		return list[:n]
	}
	fill := def
	if len(list) == 1 {
		fill = list[0]
	}
	out := make([][3]float64, n)
	copy(out, list)
	for i := len(list); i < n; i++ {
		out[i] = fill
	}
	return out
}

func toVec3(v any) ([3]float64, error) {
	list, ok := v.([]any)
	if !ok || len(list) != 3 {
		return [3]float64{}, errors.New("expected [x, y, z]")
	}
	var out [3]float64
	for i, c := range list {
		f, ok := toFloat(c)
		if !ok {
			return [3]float64{}, fmt.Errorf("component %d is not a number", i)
		}
		out[i] = f
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func optFloat(raw map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		if f, ok := toFloat(raw[k]); ok {
			return &f
		}
	}
	return nil
}

func joinPath(parent, name string) string {
	if name == "" {
		name = "_"
	}
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// Walk visits the node and its descendants depth first. Returning false from
// fn skips the node's children.
func (n *SceneNode) Walk(fn func(node *SceneNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *SceneNode) walk(fn func(node *SceneNode, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for i := range n.Contents {
		n.Contents[i].walk(fn, depth+1)
	}
}

// FindByName returns the first node with the given name, depth first.
func (n *SceneNode) FindByName(name string) *SceneNode {
	var found *SceneNode
	n.Walk(func(node *SceneNode, _ int) bool {
		if found != nil {
			return false
		}
		if node.Name == name {
			found = node
			return false
		}
		return true
	})
	return found
}

// CountPrimitives returns the number of primitive leaves, recognized or not.
func (n *SceneNode) CountPrimitives() int {
	count := 0
	n.Walk(func(node *SceneNode, _ int) bool {
		if node.Primitive != nil {
			count++
		}
		return true
	})
	return count
}

// BoundingBox returns [min, max] over every primitive position in the tree.
// Group origins are not applied. An empty tree yields two zero corners.
func (n *SceneNode) BoundingBox() [2][3]float64 {
	var box [2][3]float64
	first := true
	add := func(p [3]float64) {
		if first {
			box = [2][3]float64{p, p}
			first = false
			return
		}
		for i := 0; i < 3; i++ {
			box[0][i] = min(box[0][i], p[i])
			box[1][i] = max(box[1][i], p[i])
		}
	}

	n.Walk(func(node *SceneNode, _ int) bool {
		p := node.Primitive
		if p == nil {
			return true
		}
		for _, pos := range p.Positions {
			add(pos)
		}
		for _, pair := range p.PositionPairs {
			add(pair[0])
			add(pair[1])
		}
		for _, curve := range p.ControlPoints {
			for _, pt := range curve {
				add(pt)
			}
		}
		return true
	})
	return box
}

// Summary returns a one-line description such as "spheres:3 cylinders:2".
func (n *SceneNode) Summary() string {
	counts := make(map[PrimitiveKind]int)
	n.Walk(func(node *SceneNode, _ int) bool {
		if node.Primitive != nil {
			counts[node.Primitive.Kind]++
		}
		return true
	})
	var parts []string
	for k := range kindNames {
		if c := counts[PrimitiveKind(k)]; c > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", PrimitiveKind(k), c))
		}
	}
	return strings.Join(parts, " ")
}
