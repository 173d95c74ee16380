package formats

import (
	"encoding/json"
)

// MarshalJSON writes the node back in wire form. Optional fields that were
// never set are left out.
func (n SceneNode) MarshalJSON() ([]byte, error) {
	if n.Primitive != nil {
		return json.Marshal(n.Primitive.wire(n.Name))
	}

	out := map[string]any{"name": n.Name}
	contents := n.Contents
	if contents == nil {
		contents = []SceneNode{}
	}
	out["contents"] = contents
	if n.Origin != nil {
		out["origin"] = *n.Origin
	}
	if n.Visible != nil {
		out["visible"] = *n.Visible
	}
	if len(n.Lattice) > 0 {
		out["lattice"] = n.Lattice
	}
	return json.Marshal(out)
}

func (p *Primitive) wire(name string) map[string]any {
	out := map[string]any{"type": p.Type}
	if p.Kind != KindUnknown {
		out["type"] = p.Kind.String()
	}
	if name != "" {
		out["name"] = name
	}

	switch {
	case len(p.PositionPairs) > 0:
		out["positionPairs"] = p.PositionPairs
	case len(p.ControlPoints) > 0:
		out["controlPoints"] = p.ControlPoints
	case len(p.Positions) > 0:
		out["positions"] = p.Positions
	}

	if p.Color.Set {
		out["color"] = p.Color.Hex()
	}
	if len(p.Colors) > 0 {
		hex := make([]string, len(p.Colors))
		for i, c := range p.Colors {
			hex[i] = c.Hex()
		}
		out["color"] = hex
	}
	if len(p.Radii) > 0 {
		out["radius"] = p.Radii
	}
	if p.Visible != nil {
		out["visible"] = *p.Visible
	}
	if p.Clickable {
		out["clickable"] = true
	}
	if p.Reference != nil {
		out["reference"] = p.Reference
	}
	if p.Tooltip != "" {
		out["tooltip"] = p.Tooltip
	}
	if len(p.Normals) > 0 {
		out["normals"] = p.Normals
	}

	for key, v := range map[string]*float64{
		"radius":     p.Radius,
		"width":      p.Width,
		"opacity":    p.Opacity,
		"linewidth":  p.LineWidth,
		"dashSize":   p.DashSize,
		"gapSize":    p.GapSize,
		"headLength": p.HeadLength,
		"headWidth":  p.HeadWidth,
		"phiStart":   p.PhiStart,
		"phiEnd":     p.PhiEnd,
	} {
		if v != nil {
			out[key] = *v
		}
	}

	if p.Ellipsoids != nil {
		out["ellipsoids"] = map[string]any{
			"rotations": p.Ellipsoids.Rotations,
			"scales":    p.Ellipsoids.Scales,
		}
	} else if p.Scale != nil {
		out["scale"] = *p.Scale
	}

	if p.Label != "" {
		out["label"] = p.Label
	}
	if p.HoverLabel != "" {
		out["hoverLabel"] = p.HoverLabel
	}
	if p.ShowEdges {
		out["show_edges"] = true
	}
	return out
}
