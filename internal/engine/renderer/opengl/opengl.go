// Package opengl renders frames with OpenGL 4.1 into an offscreen
// framebuffer. Every method except the allocator ones must run on the
// thread that owns the GL context.
package opengl

import (
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/engine/framebuffer"
	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/lighting"
	"github.com/Faultbox/crystalview/internal/engine/material"
	"github.com/Faultbox/crystalview/internal/engine/renderer"
	"github.com/Faultbox/crystalview/internal/engine/renderer/opengl/shaders"
	"github.com/Faultbox/crystalview/internal/engine/scene"
	"github.com/Faultbox/crystalview/internal/engine/shader"
	"github.com/Faultbox/crystalview/pkg/math"
)

// Renderer draws frames with OpenGL.
type Renderer struct {
	renderer.Registry

	cfg     renderer.Config
	fb      *framebuffer.Framebuffer
	mesh    *shader.Program
	label   *shader.Program
	quadVAO uint32
	quadVBO uint32
	lights  *lighting.Buffer

	meshes map[scene.Handle]*gpuMesh
	texts  map[textKey]*textTexture

	// Releases arrive from any goroutine and are applied on the next frame.
	mu      sync.Mutex
	pending []scene.Handle

	logger *zap.Logger
	ready  bool
}

var _ renderer.Renderer = (*Renderer)(nil)

// New creates a renderer. Init must be called once the GL context exists.
func New(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{
		meshes: make(map[scene.Handle]*gpuMesh),
		texts:  make(map[textKey]*textTexture),
		lights: lighting.NewBuffer(),
		logger: logger,
	}
	r.OnRelease = r.queueRelease
	return r
}

// Init loads GL functions, compiles the programs and creates the offscreen
// target.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func (r *Renderer) Init(cfg renderer.Config) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	var err error
	if r.mesh, err = shader.New("mesh", shaders.MeshVertexShader, shaders.MeshFragmentShader); err != nil {
		return err
	}
	if r.label, err = shader.New("label", shaders.LabelVertexShader, shaders.LabelFragmentShader); err != nil {
		r.mesh.Delete()
		return err
	}
	if r.fb, err = framebuffer.New(cfg.Width, cfg.Height); err != nil {
		r.mesh.Delete()
		r.label.Delete()
		return err
	}
	r.createQuad()

	gl.DepthFunc(gl.LESS)
	if cfg.Antialias {
		gl.Enable(gl.MULTISAMPLE)
		gl.Enable(gl.LINE_SMOOTH)
	}
	r.cfg = cfg
	r.ready = true
	return nil
}

// Resize resizes the offscreen target.
func (r *Renderer) Resize(width, height int) {
	r.cfg.Width, r.cfg.Height = width, height
	if r.fb != nil {
		r.fb.Resize(width, height)
	}
	r.logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Render draws f into the offscreen framebuffer.
func (r *Renderer) Render(f *renderer.Frame) error {
	if !r.ready {
		return renderer.ErrNotInitialized
	}
	if f.Camera == nil {
		return renderer.ErrNoCamera
	}
	r.flushReleases()

	r.fb.Bind()
	bg := r.cfg.Background.Array()
	alpha := float32(1)
	if r.cfg.Transparent {
		alpha = 0
	}
	r.fb.Clear(bg[0], bg[1], bg[2], alpha)
	gl.Enable(gl.DEPTH_TEST)

	r.lights.SetLights(f.Lights)
	r.mesh.Use()
	r.mesh.SetMat4("uViewProj", f.Camera.ViewProjection())
	r.mesh.SetVec3("uViewDir", f.Camera.Forward().Negate().Array())
	r.mesh.SetInt("uLightCount", int32(r.lights.Count))
	r.mesh.SetIntArray("uLightKinds", r.lights.Kinds())
	r.mesh.SetVec3Array("uLightDirs", r.lights.Directions())
	r.mesh.SetVec3Array("uLightColors", r.lights.Colors())
	r.mesh.SetVec3Array("uLightGround", r.lights.GroundColors())

	var labels []placedLabel
	if f.Root != nil {
		labels = r.drawTree(f.Root, f, labels)
	}
	if len(f.Overlays) > 0 {
		r.fb.ClearDepth()
		r.mesh.Use()
		for _, o := range f.Overlays {
			labels = r.drawTree(o, f, labels)
		}
	}
	r.drawLabels(labels)

	gl.BindVertexArray(0)
	r.fb.Unbind()
	return nil
}

// Present blits the last frame to the window.
func (r *Renderer) Present(windowWidth, windowHeight int) {
	if r.ready {
		r.fb.BlitToScreen(windowWidth, windowHeight)
	}
}

// ReadPixels reads the last frame back.
func (r *Renderer) ReadPixels() (*image.NRGBA, error) {
	if !r.ready {
		return nil, renderer.ErrNotInitialized
	}
	return r.fb.ReadImage(), nil
}

// Destroy frees every GL resource. Calling it again does nothing.
func (r *Renderer) Destroy() {
	if !r.ready {
		return
	}
	r.logger.Info("closing renderer")
	r.Reset()
	r.flushReleases()
	for h, m := range r.meshes {
		m.delete()
		delete(r.meshes, h)
	}
	for k, t := range r.texts {
		gl.DeleteTextures(1, &t.id)
		delete(r.texts, k)
	}
	if r.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &r.quadVAO)
		gl.DeleteBuffers(1, &r.quadVBO)
		r.quadVAO, r.quadVBO = 0, 0
	}
	r.mesh.Delete()
	r.label.Delete()
	r.fb.Destroy()
	r.ready = false
}

func (r *Renderer) queueRelease(h scene.Handle) {
	r.mu.Lock()
	r.pending = append(r.pending, h)
	r.mu.Unlock()
}

// flushReleases deletes the GPU side of released handles. Render thread only.
func (r *Renderer) flushReleases() {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, h := range pending {
		if m, ok := r.meshes[h]; ok {
			m.delete()
			delete(r.meshes, h)
		}
	}
	if len(pending) > 0 {
		r.logger.Debug("released GPU meshes", zap.Int("count", len(pending)))
	}
}

type drawItem struct {
	d     *scene.Drawable
	model math.Mat4
	depth float32
}

func (r *Renderer) drawTree(root *scene.Object, f *renderer.Frame, labels []placedLabel) []placedLabel {
	vp := f.Camera.ViewProjection()
	var opaque, transparent []drawItem
	root.Walk(func(obj *scene.Object) bool {
		if !obj.Visible {
			return false
		}
		world := obj.WorldMatrix()
		for _, d := range obj.Drawables {
			if d.Mesh == nil || d.Material == nil {
				continue
			}
			for _, t := range d.Transforms {
				item := drawItem{d: d, model: world.Mul(t)}
				if d.Material.Transparent {
					c := vp.MulVec4(math.Vec4{item.model[12], item.model[13], item.model[14], 1})
					item.depth = c[2]
					transparent = append(transparent, item)
				} else {
					opaque = append(opaque, item)
				}
			}
		}
		for _, l := range obj.Labels {
			x, y, _ := f.Camera.Project(world.TransformVec3(l.Position))
			labels = append(labels, placedLabel{label: l, x: x, y: y})
		}
		return true
	})

	slices.SortStableFunc(transparent, func(a, b drawItem) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})

	gl.Disable(gl.BLEND)
	for _, item := range opaque {
		r.drawItem(item)
	}
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	for _, item := range transparent {
		r.drawItem(item)
	}
	gl.Disable(gl.BLEND)
	return labels
}

func (r *Renderer) drawItem(item drawItem) {
	m := r.upload(item.d)
	if m == nil {
		return
	}
	inv, ok := item.model.InverseOK()
	if !ok {
		return
	}
	r.mesh.SetMat4("uModel", item.model)
	r.mesh.SetMat4("uNormalMatrix", inv.Transpose())
	r.setMaterial(item.d.Material)
	r.setLineStyle(item.d.Style)

	if item.d.Material.DoubleSided || m.mode == gl.LINES {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(m.mode, m.count, gl.UNSIGNED_INT, 0)
}

var shadingModes = map[material.Model]int32{
	material.Standard: 0,
	material.Phong:    1,
	material.Lambert:  2,
	material.Basic:    3,
}

func (r *Renderer) setMaterial(mat *material.Material) {
	r.mesh.SetVec3("uColor", mat.Color.Array())
	r.mesh.SetFloat("uOpacity", mat.Opacity)
	r.mesh.SetInt("uShading", shadingModes[mat.Model])
	r.mesh.SetFloat("uRoughness", mat.Roughness)
	r.mesh.SetFloat("uMetalness", mat.Metalness)
	r.mesh.SetFloat("uShininess", mat.Shininess)
	r.mesh.SetVec3("uSpecular", mat.Specular.Array())
	r.mesh.SetBool("uDoubleSided", mat.DoubleSided)
}

func (r *Renderer) setLineStyle(style *geometry.LineStyle) {
	if style == nil || !style.Dashed {
		r.mesh.SetBool("uDashed", false)
		return
	}
	r.mesh.SetBool("uDashed", true)
	r.mesh.SetFloat("uDashSize", style.DashSize)
	r.mesh.SetFloat("uGapSize", style.GapSize)
	r.mesh.SetFloat("uDashScale", style.Scale)
}
