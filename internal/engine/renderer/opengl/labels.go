package opengl

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/renderer"
)

type placedLabel struct {
	label geometry.Label
	x, y  float32 // pixels, origin top left
}

type textKey struct {
	text  string
	color string
}

type textTexture struct {
	id            uint32
	width, height int
}

func (r *Renderer) createQuad() {
	corners := []float32{0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 0, 1}
	gl.GenVertexArrays(1, &r.quadVAO)
	gl.BindVertexArray(r.quadVAO)
	gl.GenBuffers(1, &r.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(corners)*4, unsafe.Pointer(&corners[0]), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)
}

// text returns the cached texture for a label, rendering it on first use.
func (r *Renderer) text(l geometry.Label) *textTexture {
	key := textKey{text: l.Text, color: l.Color.Hex()}
	if t, ok := r.texts[key]; ok {
		return t
	}
	img := renderer.TextImage(l.Text, l.Color)
	if img == nil {
		return nil
	}
	t := &textTexture{width: img.Rect.Dx(), height: img.Rect.Dy()}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(t.width), int32(t.height), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	r.texts[key] = t
	return t
}

// drawLabels draws text quads centred on their anchors, over the scene.
func (r *Renderer) drawLabels(labels []placedLabel) {
	if len(labels) == 0 {
		return
	}
	w, h := r.fb.Size()
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)

	r.label.Use()
	r.label.SetInt("uText", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(r.quadVAO)
	for _, pl := range labels {
		t := r.text(pl.label)
		if t == nil {
			continue
		}
		left := pl.x - float32(t.width)/2
		bottom := pl.y + float32(t.height)/2
		x := left/float32(w)*2 - 1
		y := 1 - bottom/float32(h)*2
		sw := float32(t.width) / float32(w) * 2
		sh := float32(t.height) / float32(h) * 2
		gl.Uniform4f(r.label.Uniform("uRect"), x, y, sw, sh)
		gl.BindTexture(gl.TEXTURE_2D, t.id)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
	}

	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
}
