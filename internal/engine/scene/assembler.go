package scene

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/material"
	"github.com/Faultbox/crystalview/pkg/formats"
	"github.com/Faultbox/crystalview/pkg/math"
)

// ErrNilScene is returned when there is nothing to assemble.
var ErrNilScene = errors.New("nil scene node")

// Assembler turns a scene description into a live object tree.
type Assembler struct {
	Quality   geometry.Quality
	Materials *material.Factory
	Alloc     Allocator
	Logger    *zap.Logger
}

// Assemble builds the subtree for root. Every resource it allocates is owned
// by the returned arena. Problems with single primitives are logged and the
// primitive becomes a placeholder; they never fail the whole subtree.
func (a *Assembler) Assemble(root *formats.SceneNode) (*Object, *Arena, error) {
	if root == nil {
		return nil, nil, ErrNilScene
	}
	if a.Materials == nil {
		f, err := material.NewFactory(formats.DefaultSettings().Material)
		if err != nil {
			return nil, nil, err
		}
		a.Materials = f
	}
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}

	arena := NewArena(a.Alloc)
	obj := a.node(root, arena, root.Name)
	return obj, arena, nil
}

func (a *Assembler) node(n *formats.SceneNode, arena *Arena, path string) *Object {
	if n.Primitive != nil {
		return a.primitive(n, arena, path)
	}

	group := NewGroup(n.Name)
	group.Visible = n.IsVisible()
	if n.Origin != nil {
		group.Position = math.V3d(*n.Origin)
	}
	for i := range n.Contents {
		child := &n.Contents[i]
		group.Add(a.node(child, arena, path+"/"+child.Name))
	}
	return group
}

func (a *Assembler) primitive(n *formats.SceneNode, arena *Arena, path string) *Object {
	p := n.Primitive
	obj := &Object{
		Name:      n.Name,
		Kind:      Placeholder,
		Visible:   n.IsVisible(),
		Clickable: p.Clickable,
		Reference: p.Reference,
		Tooltip:   p.Tooltip,
	}
	if p.Kind == formats.KindUnknown {
		a.Logger.Warn("unrecognized primitive, using placeholder",
			zap.String("node", path), zap.String("type", p.Type))
		return obj
	}

	res, err := geometry.Build(p, a.Quality)
	if err != nil {
		a.Logger.Warn("primitive build failed, using placeholder",
			zap.String("node", path), zap.Stringer("kind", p.Kind), zap.Error(err))
		return obj
	}

	obj.Kind = Mesh
	if len(res.Parts) == 0 && len(res.Labels) > 0 {
		obj.Kind = Label
	}
	obj.Labels = res.Labels
	if obj.Tooltip == "" && p.HoverLabel != "" {
		obj.Tooltip = p.HoverLabel
	}

	for i := range res.Parts {
		part := &res.Parts[i]
		if len(part.Transforms) == 0 {
			continue
		}
		var mat *material.Material
		if part.Line != nil {
			mat = a.Materials.Unlit(part.Color, part.Opacity)
		} else {
			mat = a.Materials.Make(part.Color, part.Opacity)
		}
		mat.DoubleSided = part.DoubleSided

		obj.Drawables = append(obj.Drawables, &Drawable{
			Mesh:           part.Geometry,
			Transforms:     part.Transforms,
			Material:       mat,
			Style:          part.Line,
			Shape:          part.Shape,
			MeshHandle:     arena.Mesh(part.Geometry),
			MaterialHandle: arena.Material(mat),
		})
	}

	a.Logger.Debug("primitive assembled",
		zap.String("node", path),
		zap.Stringer("kind", p.Kind),
		zap.Int("drawables", len(obj.Drawables)),
		zap.Int("labels", len(obj.Labels)))
	return obj
}
