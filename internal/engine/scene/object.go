// Package scene holds the live scene graph and assembles it from the scene
// description.
package scene

import (
	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/material"
	"github.com/Faultbox/crystalview/pkg/math"
)

// Kind tells what an Object renders.
type Kind int

const (
	Group Kind = iota
	Mesh
	Label
	Placeholder
)

func (k Kind) String() string {
	switch k {
	case Group:
		return "group"
	case Mesh:
		return "mesh"
	case Label:
		return "label"
	case Placeholder:
		return "placeholder"
	}
	return "invalid"
}

// Drawable is one instanced mesh with its material.
type Drawable struct {
	Mesh       *geometry.Mesh
	Transforms []math.Mat4
	Material   *material.Material
	Style      *geometry.LineStyle
	Shape      geometry.Shape

	MeshHandle     Handle
	MaterialHandle Handle
}

// Bounds returns the box of every instance in object space.
func (d *Drawable) Bounds() math.Box3 {
	p := geometry.Part{Geometry: d.Mesh, Transforms: d.Transforms}
	return p.Bounds()
}

// Object is a node of the live scene graph.
type Object struct {
	Name      string
	Kind      Kind
	Position  math.Vec3
	Visible   bool
	Clickable bool
	Reference any
	Tooltip   string

	Drawables []*Drawable
	Labels    []geometry.Label
	Children  []*Object
	Parent    *Object
}

// NewGroup returns an empty visible group.
func NewGroup(name string) *Object {
	return &Object{Name: name, Kind: Group, Visible: true}
}

// Add appends child, detaching it from any previous parent.
func (o *Object) Add(child *Object) {
	if child.Parent != nil {
		child.Parent.Remove(child)
	}
	child.Parent = o
	o.Children = append(o.Children, child)
}

// Remove detaches child. It reports whether child was found.
func (o *Object) Remove(child *Object) bool {
	for i, c := range o.Children {
		if c == child {
			o.Children = append(o.Children[:i], o.Children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// Replace swaps old for child in place, keeping sibling order.
func (o *Object) Replace(old, child *Object) bool {
	for i, c := range o.Children {
		if c == old {
			if child.Parent != nil && child.Parent != o {
				child.Parent.Remove(child)
			}
			o.Children[i] = child
			child.Parent = o
			old.Parent = nil
			return true
		}
	}
	return false
}

// Walk visits o and its descendants depth first. Returning false from fn
// skips the children of that object.
func (o *Object) Walk(fn func(*Object) bool) {
	if !fn(o) {
		return
	}
	for _, c := range o.Children {
		c.Walk(fn)
	}
}

// FindByName returns the first object with the given name, depth first.
func (o *Object) FindByName(name string) *Object {
	var found *Object
	o.Walk(func(obj *Object) bool {
		if found != nil {
			return false
		}
		if obj.Name == name {
			found = obj
			return false
		}
		return true
	})
	return found
}

// WorldMatrix returns the accumulated translation of o and its ancestors.
func (o *Object) WorldMatrix() math.Mat4 {
	var offset math.Vec3
	for n := o; n != nil; n = n.Parent {
		offset = offset.Add(n.Position)
	}
	return math.Translate(offset.X, offset.Y, offset.Z)
}

// EffectiveVisible reports whether o and every ancestor are visible.
func (o *Object) EffectiveVisible() bool {
	for n := o; n != nil; n = n.Parent {
		if !n.Visible {
			return false
		}
	}
	return true
}

// LocalBounds returns the box of o's own drawables and labels, in o's space.
func (o *Object) LocalBounds() math.Box3 {
	box := math.EmptyBox3()
	for _, d := range o.Drawables {
		box = box.Union(d.Bounds())
	}
	for _, l := range o.Labels {
		box = box.ExpandByPoint(l.Position)
	}
	return box
}

// WorldBounds returns the world box of o's subtree, hidden objects included.
func (o *Object) WorldBounds() math.Box3 {
	box := math.EmptyBox3()
	o.Walk(func(obj *Object) bool {
		local := obj.LocalBounds()
		if !local.IsEmpty() {
			box = box.Union(local.Transform(obj.WorldMatrix()))
		}
		return true
	})
	return box
}

// Count returns the number of objects in the subtree, o included.
func (o *Object) Count() int {
	n := 0
	o.Walk(func(*Object) bool {
		n++
		return true
	})
	return n
}
