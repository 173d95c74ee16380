package viewport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/engine/camera"
	"github.com/Faultbox/crystalview/internal/engine/debug"
	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/lighting"
	"github.com/Faultbox/crystalview/internal/engine/material"
	"github.com/Faultbox/crystalview/internal/engine/renderer"
	"github.com/Faultbox/crystalview/internal/engine/scene"
	"github.com/Faultbox/crystalview/internal/logger"
	"github.com/Faultbox/crystalview/pkg/formats"
)

// RootName is the name of the container every scene is added under.
const RootName = "scene"

// DefaultLightHelperSize is the light marker size in world units.
const DefaultLightHelperSize = 0.5

// overlay is an object drawn on top of the scene. arena is nil when the
// object is owned by a scene arena.
type overlay struct {
	obj   *scene.Object
	arena *scene.Arena
}

func (o *overlay) set(obj *scene.Object, arena *scene.Arena) {
	o.release()
	o.obj, o.arena = obj, arena
}

func (o *overlay) release() {
	if o.arena != nil {
		o.arena.Release()
	}
	o.obj, o.arena = nil, nil
}

// Controller owns the renderer, camera and scene graph of one viewport.
// Every method is safe for concurrent use; Mount, Frame, Download and
// Dispose touch the renderer and belong on the render thread.
type Controller struct {
	id     uuid.UUID
	logger *zap.Logger

	settings  formats.Settings
	quality   geometry.Quality
	materials *material.Factory
	lights    []lighting.Light

	selectionBox bool
	helperSize   float64

	mu     sync.Mutex
	state  State
	ctx    context.Context
	cancel context.CancelFunc
	r      renderer.Renderer
	cam    *camera.OrthoCamera
	root   *scene.Object
	arenas map[string]*scene.Arena
	dirty  bool

	axes      overlay
	axesScene string // scene the axes overlay was taken from
	helpers   overlay
	selection overlay

	zoomTween *gween.Tween

	generation atomic.Uint64
	applied    uint64
}

// New validates settings and prepares a controller for r. Unknown light or
// material descriptors are reported here with formats.ErrUnsupportedDescriptor.
func New(r renderer.Renderer, settings formats.Settings, opts ...Option) (*Controller, error) {
	if r == nil {
		return nil, errors.New("viewport: nil renderer")
	}
	materials, err := material.NewFactory(settings.Material)
	if err != nil {
		return nil, err
	}
	lights, err := lighting.Rig(settings.Lights)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		id:         uuid.New(),
		logger:     logger.Named("viewport"),
		settings:   settings.Clone(),
		quality:    geometry.QualityFromSettings(settings),
		materials:  materials,
		lights:     lights,
		helperSize: DefaultLightHelperSize,
		r:          r,
		arenas:     make(map[string]*scene.Arena),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("viewport", c.id.String()))
	return c, nil
}

// ID returns the controller's instance id.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Settings returns a copy of the settings the controller was built with.
func (c *Controller) Settings() formats.Settings {
	return c.settings.Clone()
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mount initializes the renderer and camera at the element's size and
// creates the empty scene container.
func (c *Controller) Mount(el Element) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Disposed:
		return ErrDisposed
	case Uninitialized:
	default:
		return ErrAlreadyMounted
	}

	w, h := el.Size()
	err := c.r.Init(renderer.Config{
		Width:       w,
		Height:      h,
		Antialias:   c.settings.Antialias,
		Transparent: c.settings.TransparentBackground,
		Background:  c.settings.BackgroundColor(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.cam = camera.NewOrthoCamera(w, h)
	c.root = scene.NewGroup(RootName)
	c.state = Mounted

	if node := debug.LightHelpers(c.lights, c.helperSize); node != nil {
		c.helpers.set(c.assemble(node))
	}

	if c.settings.StaticScene {
		c.state = Idle
	} else {
		c.state = Rendering
	}
	c.dirty = true
	c.logger.Info("viewport mounted",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Stringer("state", c.state))
	return nil
}

// assemble builds an object tree with the controller's resources. It does
// not touch controller state guarded by mu.
func (c *Controller) assemble(node *formats.SceneNode) (*scene.Object, *scene.Arena) {
	asm := &scene.Assembler{
		Quality:   c.quality,
		Materials: c.materials,
		Alloc:     c.r,
		Logger:    c.logger,
	}
	obj, arena, err := asm.Assemble(node)
	if err != nil {
		c.logger.Warn("overlay assembly failed", zap.String("node", node.Name), zap.Error(err))
		return nil, nil
	}
	return obj, arena
}

func (c *Controller) mounted() error {
	switch c.state {
	case Uninitialized:
		return ErrNotMounted
	case Disposed:
		return ErrDisposed
	}
	return nil
}

// UpdateScene assembles node and swaps it into the scene, replacing the
// previous subtree of the same name. Assembly runs outside the lock; when a
// newer update has been applied in the meantime the result is dropped.
func (c *Controller) UpdateScene(node *formats.SceneNode) error {
	if node == nil {
		return scene.ErrNilScene
	}
	gen := c.generation.Add(1)

	c.mu.Lock()
	err := c.mounted()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	asm := &scene.Assembler{
		Quality:   c.quality,
		Materials: c.materials,
		Alloc:     c.r,
		Logger:    c.logger,
	}
	obj, arena, err := asm.Assemble(node)
	if err != nil {
		return err
	}

	var axes *scene.Object
	var axesArena *scene.Arena
	if c.settings.ExtractAxis {
		if found := obj.FindByName(debug.AxesNodeName); found != nil && found.Parent != nil {
			found.Parent.Remove(found)
			axes = found
		} else if triad := debug.SceneTriad(node, obj.WorldBounds()); triad != nil {
			axes, axesArena = c.assemble(triad)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mounted(); err != nil || gen < c.applied {
		arena.Release()
		if axesArena != nil {
			axesArena.Release()
		}
		if err != nil {
			return err
		}
		c.logger.Debug("dropping stale scene update",
			zap.Uint64("generation", gen),
			zap.Uint64("applied", c.applied))
		return nil
	}
	c.applied = gen

	if old := child(c.root, obj.Name); old != nil {
		c.root.Replace(old, obj)
	} else {
		c.root.Add(obj)
	}
	if prev, ok := c.arenas[obj.Name]; ok {
		prev.Release()
	}
	c.arenas[obj.Name] = arena

	if c.settings.ExtractAxis {
		c.axes.set(axes, axesArena)
		c.axesScene = obj.Name
	}
	c.selection.release()

	c.frameScene()
	c.dirty = true

	c.logger.Info("scene updated",
		zap.String("name", obj.Name),
		zap.Uint64("generation", gen),
		zap.Int("objects", obj.Count()),
		zap.Int("handles", arena.Len()))
	return nil
}

// RemoveScene detaches the scene with the given root name and releases its
// arena. It reports whether such a scene was shown.
func (c *Controller) RemoveScene(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted() != nil {
		return false
	}
	old := child(c.root, name)
	if old == nil {
		return false
	}
	c.root.Remove(old)
	if arena, ok := c.arenas[name]; ok {
		arena.Release()
		delete(c.arenas, name)
	}
	if c.axesScene == name {
		c.axes.release()
		c.axesScene = ""
	}
	c.selection.release()

	c.frameScene()
	c.dirty = true

	c.logger.Info("scene removed", zap.String("name", name))
	return true
}

func child(parent *scene.Object, name string) *scene.Object {
	for _, c := range parent.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// frameScene centers the camera on the scene and computes the auto zoom.
// In continuous mode with a zoom transition the zoom is animated.
func (c *Controller) frameScene() {
	box := c.root.WorldBounds()
	zoom := scene.AutoZoom(box, c.cam.Width, c.cam.Height, c.settings.DefaultZoom)

	if c.settings.ZoomTransition > 0 && !c.settings.StaticScene {
		from := c.cam.Zoom
		c.cam.FitToBounds(box, from)
		c.zoomTween = gween.New(from, zoom, float32(c.settings.ZoomTransition)/1000, ease.OutCubic)
		return
	}
	c.zoomTween = nil
	c.cam.FitToBounds(box, zoom)
}

// ToggleVisibility sets the visibility of named nodes without rebuilding
// anything. Unknown names are ignored.
func (c *Controller) ToggleVisibility(visible map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted() != nil {
		return
	}
	for name, v := range visible {
		found := false
		for _, root := range []*scene.Object{c.root, c.axes.obj} {
			if root == nil {
				continue
			}
			if obj := root.FindByName(name); obj != nil {
				obj.Visible = v
				found = true
			}
		}
		if !found {
			c.logger.Debug("visibility toggle for unknown node", zap.String("name", name))
		}
	}
	c.dirty = true
}

// Resize updates the viewport size. It reports whether the size changed.
func (c *Controller) Resize(width, height int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted() != nil || !c.cam.Resize(width, height) {
		return false
	}
	c.r.Resize(width, height)
	c.dirty = true
	return true
}

// Invalidate schedules a redraw in static mode.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = true
}

// Frame advances animations by dt seconds and draws when needed: every call
// in continuous mode, only after a change in static mode. It reports whether
// a frame was drawn. After Dispose it does nothing.
func (c *Controller) Frame(dt float32) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mounted() != nil || c.ctx.Err() != nil {
		return false, nil
	}
	if c.zoomTween != nil {
		zoom, done := c.zoomTween.Update(dt)
		c.cam.Zoom = zoom
		if done {
			c.zoomTween = nil
		}
		c.dirty = true
	}
	if c.state == Idle && !c.dirty {
		return false, nil
	}
	if err := c.render(); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) render() error {
	f := &renderer.Frame{
		Root:   c.root,
		Camera: c.cam,
		Lights: c.lights,
	}
	for _, o := range []*overlay{&c.helpers, &c.axes, &c.selection} {
		if o.obj != nil {
			f.Overlays = append(f.Overlays, o.obj)
		}
	}
	if err := c.r.Render(f); err != nil {
		return fmt.Errorf("rendering frame: %w", err)
	}
	c.dirty = false
	return nil
}

// Rotate turns the camera for a drag of (dx, dy) pixels.
func (c *Controller) Rotate(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted() != nil {
		return
	}
	c.cam.Rotate(dx, dy)
	c.dirty = true
}

// Zoom scales the camera zoom by a scroll delta. It does nothing when zoom
// is disabled in the settings.
func (c *Controller) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted() != nil || !c.settings.EnableZoom {
		return
	}
	c.zoomTween = nil
	c.cam.HandleZoom(delta)
	c.dirty = true
}

// Pan moves the camera target for a drag of (dx, dy) pixels.
func (c *Controller) Pan(dx, dy float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted() != nil {
		return
	}
	c.cam.Pan(dx, dy)
	c.dirty = true
}

// ResetCamera restores the default orientation and refits the scene.
func (c *Controller) ResetCamera() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted() != nil {
		return
	}
	c.cam.Reset()
	c.frameScene()
	c.dirty = true
}

// Dispose cancels the frame loop and releases every scene resource and the
// renderer. Calling it again does nothing.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Disposed {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	for name, arena := range c.arenas {
		arena.Release()
		delete(c.arenas, name)
	}
	c.axes.release()
	c.helpers.release()
	c.selection.release()
	c.zoomTween = nil

	if c.state != Uninitialized {
		c.r.Destroy()
	}
	c.root = nil
	c.state = Disposed
	c.logger.Info("viewport disposed")
}
