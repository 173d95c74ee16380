package picking

import (
	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/scene"
)

// Hit is the result of a successful pick.
type Hit struct {
	Object   *scene.Object
	Instance int
	T        float32
}

// Pick casts ray against every visible clickable object under root and
// returns the nearest hit. Lines and labels are not pickable.
func Pick(root *scene.Object, ray Ray) (Hit, bool) {
	return PickFunc(root, ray, func(obj *scene.Object) bool { return obj.Clickable })
}

// PickFunc is Pick over the visible objects accepted by filter.
func PickFunc(root *scene.Object, ray Ray, filter func(*scene.Object) bool) (Hit, bool) {
	var best Hit
	found := false

	root.Walk(func(obj *scene.Object) bool {
		if !obj.Visible {
			return false
		}
		if len(obj.Drawables) == 0 || !filter(obj) {
			return true
		}
		world := obj.WorldMatrix()
		for _, d := range obj.Drawables {
			if d.Shape == geometry.ShapeLine {
				continue
			}
			for i, tr := range d.Transforms {
				inv, ok := world.Mul(tr).InverseOK()
				if !ok {
					continue
				}
				local := ray.Transform(inv)

				var t float32
				var hit bool
				if d.Shape == geometry.ShapeSphere {
					t, hit = local.IntersectUnitSphere()
				} else {
					t, hit = local.IntersectMesh(d.Mesh)
				}
				if hit && (!found || t < best.T) {
					best = Hit{Object: obj, Instance: i, T: t}
					found = true
				}
			}
		}
		return true
	})
	return best, found
}
