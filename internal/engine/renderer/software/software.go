// Package software is a CPU rasterizer for headless rendering. It draws the
// same frames as the OpenGL backend into an in-memory image.
package software

import (
	"image"
	gomath "math"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/lighting"
	"github.com/Faultbox/crystalview/internal/engine/renderer"
	"github.com/Faultbox/crystalview/internal/engine/scene"
	"github.com/Faultbox/crystalview/pkg/math"
)

// Supersample is the per-axis sample factor used when antialiasing.
const Supersample = 2

// Renderer rasterizes frames on the CPU.
type Renderer struct {
	renderer.Registry

	cfg    renderer.Config
	scale  int
	width  int // buffer size, supersampled
	height int

	accum []float32 // premultiplied rgba
	depth []float32
	out   *image.NRGBA

	logger *zap.Logger
	ready  bool
}

var _ renderer.Renderer = (*Renderer)(nil)

// New creates an uninitialized software renderer.
func New(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger}
}

// Init allocates the buffers.
func (r *Renderer) Init(cfg renderer.Config) error {
	r.cfg = cfg
	r.scale = 1
	if cfg.Antialias {
		r.scale = Supersample
	}
	r.ready = true
	r.out = nil
	r.Resize(cfg.Width, cfg.Height)
	r.logger.Info("software renderer initialized",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("supersample", r.scale))
	return nil
}

// Resize reallocates the buffers. Sizes below one pixel are clamped.
func (r *Renderer) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if r.out != nil && r.cfg.Width == width && r.cfg.Height == height {
		return
	}
	r.cfg.Width, r.cfg.Height = width, height
	r.width, r.height = width*r.scale, height*r.scale
	r.accum = make([]float32, 4*r.width*r.height)
	r.depth = make([]float32, r.width*r.height)
	r.out = image.NewNRGBA(image.Rect(0, 0, width, height))
}

// Size returns the output image size.
func (r *Renderer) Size() (int, int) {
	return r.cfg.Width, r.cfg.Height
}

// Render draws f into the buffers.
func (r *Renderer) Render(f *renderer.Frame) error {
	if !r.ready {
		return renderer.ErrNotInitialized
	}
	if f.Camera == nil {
		return renderer.ErrNoCamera
	}
	r.clear()

	cam := f.Camera
	p := &pass{
		r:       r,
		vp:      cam.ViewProjection(),
		viewDir: cam.Forward().Negate(),
		lights:  f.Lights,
	}
	var labels []labelItem
	if f.Root != nil {
		labels = p.drawTree(f.Root, labels)
	}
	if len(f.Overlays) > 0 {
		clear32(r.depth, float32(gomath.Inf(1)))
		for _, o := range f.Overlays {
			labels = p.drawTree(o, labels)
		}
	}

	r.resolve()
	for _, l := range labels {
		r.drawLabel(l)
	}
	return nil
}

// ReadPixels returns a copy of the last rendered image.
func (r *Renderer) ReadPixels() (*image.NRGBA, error) {
	if !r.ready {
		return nil, renderer.ErrNotInitialized
	}
	img := image.NewNRGBA(r.out.Rect)
	copy(img.Pix, r.out.Pix)
	return img, nil
}

// Destroy drops the buffers and every live handle. Calling it again does
// nothing.
func (r *Renderer) Destroy() {
	if !r.ready {
		return
	}
	r.Reset()
	r.ready = false
	r.accum, r.depth, r.out = nil, nil, nil
	r.logger.Debug("software renderer destroyed")
}

func (r *Renderer) clear() {
	bg := r.cfg.Background.Array()
	a := float32(1)
	if r.cfg.Transparent {
		a = 0
	}
	for i := 0; i < len(r.accum); i += 4 {
		r.accum[i] = bg[0] * a
		r.accum[i+1] = bg[1] * a
		r.accum[i+2] = bg[2] * a
		r.accum[i+3] = a
	}
	clear32(r.depth, float32(gomath.Inf(1)))
}

// resolve converts the float buffer to the output image, downsampling when
// supersampled.
func (r *Renderer) resolve() {
	hi := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for i := 0; i < r.width*r.height; i++ {
		for k := 0; k < 4; k++ {
			hi.Pix[i*4+k] = uint8(clamp01(r.accum[i*4+k])*255 + 0.5)
		}
	}
	if r.scale == 1 {
		draw.Draw(r.out, r.out.Bounds(), hi, image.Point{}, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(r.out, r.out.Bounds(), hi, hi.Bounds(), draw.Src, nil)
}

// blend composites a straight-alpha color over pixel i.
func (r *Renderer) blend(i int, c [3]float32, a float32) {
	o := i * 4
	k := 1 - a
	r.accum[o] = c[0]*a + r.accum[o]*k
	r.accum[o+1] = c[1]*a + r.accum[o+1]*k
	r.accum[o+2] = c[2]*a + r.accum[o+2]*k
	r.accum[o+3] = a + r.accum[o+3]*k
}

// pass holds the per-frame state shared by every draw call.
type pass struct {
	r       *Renderer
	vp      math.Mat4
	viewDir math.Vec3
	lights  []lighting.Light
}

type drawItem struct {
	d     *scene.Drawable
	model math.Mat4
	depth float32
}

type labelItem struct {
	label geometry.Label
	x, y  float32
}

// drawTree draws the visible part of root: opaque items first, then
// transparent ones back to front.
func (p *pass) drawTree(root *scene.Object, labels []labelItem) []labelItem {
	var opaque, transparent []drawItem
	root.Walk(func(obj *scene.Object) bool {
		if !obj.Visible {
			return false
		}
		world := obj.WorldMatrix()
		for _, d := range obj.Drawables {
			for _, t := range d.Transforms {
				model := world.Mul(t)
				item := drawItem{d: d, model: model}
				if d.Material != nil && d.Material.Transparent {
					_, _, item.depth = p.project(model.Translation())
					transparent = append(transparent, item)
				} else {
					opaque = append(opaque, item)
				}
			}
		}
		for _, l := range obj.Labels {
			x, y, _ := p.project(world.TransformVec3(l.Position))
			labels = append(labels, labelItem{label: l, x: x, y: y})
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
	for _, item := range opaque {
		p.draw(item)
	}
	for _, item := range transparent {
		p.draw(item)
	}
	return labels
}

// project maps a world point to buffer pixels and NDC depth.
func (p *pass) project(v math.Vec3) (x, y, z float32) {
	c := p.vp.MulVec4(math.Vec4{v.X, v.Y, v.Z, 1})
	if c[3] != 0 && c[3] != 1 {
		c[0], c[1], c[2] = c[0]/c[3], c[1]/c[3], c[2]/c[3]
	}
	x = (c[0] + 1) / 2 * float32(p.r.width)
	y = (1 - c[1]) / 2 * float32(p.r.height)
	return x, y, c[2]
}

func (p *pass) draw(item drawItem) {
	if item.d.Mesh == nil || item.d.Material == nil {
		return
	}
	switch item.d.Mesh.Topology {
	case geometry.Lines:
		p.drawLines(item)
	default:
		p.drawTriangles(item)
	}
}

func clear32(s []float32, v float32) {
	for i := range s {
		s[i] = v
	}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
