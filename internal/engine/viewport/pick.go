package viewport

import (
	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/engine/debug"
	"github.com/Faultbox/crystalview/internal/engine/picking"
	"github.com/Faultbox/crystalview/internal/engine/scene"
)

// selectionName names the selection box overlay.
const selectionName = "selection"

// ray returns the world ray through pixel (x, y). Callers hold mu.
func (c *Controller) ray(x, y float32) (picking.Ray, bool) {
	inv, ok := c.cam.ViewProjection().InverseOK()
	if !ok {
		return picking.Ray{}, false
	}
	return picking.ScreenToRay(x, y, float32(c.cam.Width), float32(c.cam.Height), inv), true
}

// Pick casts a ray through pixel (x, y) against the visible clickable
// objects and returns the reference of the nearest one.
func (c *Controller) Pick(x, y float32) (ref any, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted() != nil {
		return nil, false
	}
	ray, ok := c.ray(x, y)
	if !ok {
		return nil, false
	}
	hit, ok := picking.Pick(c.root, ray)
	if !ok {
		if c.selection.obj != nil {
			c.selection.release()
			c.dirty = true
		}
		return nil, false
	}

	c.logger.Debug("picked",
		zap.String("object", hit.Object.Name),
		zap.Int("instance", hit.Instance),
		zap.Any("reference", hit.Object.Reference))
	if c.selectionBox {
		c.outline(hit)
	}
	return hit.Object.Reference, true
}

// outline outlines the picked instance.
func (c *Controller) outline(hit picking.Hit) {
	box := hit.Object.WorldBounds()
	for _, d := range hit.Object.Drawables {
		if hit.Instance < len(d.Transforms) {
			one := scene.Drawable{Mesh: d.Mesh, Transforms: d.Transforms[hit.Instance : hit.Instance+1]}
			box = one.Bounds().Transform(hit.Object.WorldMatrix())
			break
		}
	}
	node := debug.SelectionBox(selectionName, box, debug.DefaultBBoxPadding)
	if node == nil {
		return
	}
	c.selection.set(c.assemble(node))
	c.dirty = true
}

// Hover returns the tooltip of the nearest visible object under pixel
// (x, y) that has one.
func (c *Controller) Hover(x, y float32) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted() != nil {
		return "", false
	}
	ray, ok := c.ray(x, y)
	if !ok {
		return "", false
	}
	hit, ok := picking.PickFunc(c.root, ray, func(obj *scene.Object) bool {
		return obj.Tooltip != ""
	})
	if !ok {
		return "", false
	}
	return hit.Object.Tooltip, true
}
