package opengl

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/scene"
)

// gpuMesh is the uploaded form of a geometry.Mesh.
type gpuMesh struct {
	vao     uint32
	vbo     uint32
	distVBO uint32
	ebo     uint32
	count   int32
	mode    uint32
}

// upload returns the GPU mesh of d, uploading it on first use.
func (r *Renderer) upload(d *scene.Drawable) *gpuMesh {
	if m, ok := r.meshes[d.MeshHandle]; ok {
		return m
	}
	if d.MeshHandle == 0 {
		r.logger.Warn("drawable without mesh handle skipped")
		return nil
	}
	mesh, ok := r.Mesh(d.MeshHandle)
	if !ok || len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		// Released, or nothing to draw.
		return nil
	}
	m := uploadMesh(mesh)
	r.meshes[d.MeshHandle] = m
	r.logger.Debug("mesh uploaded",
		zap.Uint64("handle", uint64(d.MeshHandle)),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("indices", len(mesh.Indices)))
	return m
}

func uploadMesh(mesh *geometry.Mesh) *gpuMesh {
	m := &gpuMesh{count: int32(len(mesh.Indices)), mode: gl.TRIANGLES}
	if mesh.Topology == geometry.Lines {
		m.mode = gl.LINES
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	vertexSize := int(unsafe.Sizeof(geometry.Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*vertexSize, unsafe.Pointer(&mesh.Vertices[0]), gl.STATIC_DRAW)

	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)

	// Line distance
	if len(mesh.LineDistances) == len(mesh.Vertices) {
		gl.GenBuffers(1, &m.distVBO)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.distVBO)
		gl.BufferData(gl.ARRAY_BUFFER, len(mesh.LineDistances)*4, unsafe.Pointer(&mesh.LineDistances[0]), gl.STATIC_DRAW)
		gl.VertexAttribPointerWithOffset(2, 1, gl.FLOAT, false, 4, 0)
		gl.EnableVertexAttribArray(2)
	} else {
		gl.DisableVertexAttribArray(2)
		gl.VertexAttrib1f(2, 0)
	}

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return m
}

func (m *gpuMesh) delete() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
	for _, b := range []*uint32{&m.vbo, &m.distVBO, &m.ebo} {
		if *b != 0 {
			gl.DeleteBuffers(1, b)
			*b = 0
		}
	}
	m.vao = 0
}
