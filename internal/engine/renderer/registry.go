package renderer

import (
	"sync"

	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/material"
	"github.com/Faultbox/crystalview/internal/engine/scene"
)

// Registry hands out handles for meshes and materials. Backends embed it
// and hook OnRelease to free their own resources.
type Registry struct {
	mu        sync.Mutex
	next      scene.Handle
	meshes    map[scene.Handle]*geometry.Mesh
	materials map[scene.Handle]*material.Material

	// OnRelease runs, outside the lock, for each handle that was live.
	OnRelease func(h scene.Handle)
}

func (r *Registry) init() {
	if r.meshes == nil {
		r.meshes = make(map[scene.Handle]*geometry.Mesh)
		r.materials = make(map[scene.Handle]*material.Material)
	}
}

// AllocMesh registers a mesh.
func (r *Registry) AllocMesh(m *geometry.Mesh) scene.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	r.next++
	r.meshes[r.next] = m
	return r.next
}

// AllocMaterial registers a material.
func (r *Registry) AllocMaterial(m *material.Material) scene.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init()
	r.next++
	r.materials[r.next] = m
	return r.next
}

// Release forgets a handle. Unknown or already released handles are ignored.
func (r *Registry) Release(h scene.Handle) {
	r.mu.Lock()
	r.init()
	_, isMesh := r.meshes[h]
	_, isMaterial := r.materials[h]
	delete(r.meshes, h)
	delete(r.materials, h)
	hook := r.OnRelease
	r.mu.Unlock()

	if (isMesh || isMaterial) && hook != nil {
		hook(h)
	}
}

// Mesh looks up a live mesh.
func (r *Registry) Mesh(h scene.Handle) (*geometry.Mesh, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meshes[h]
	return m, ok
}

// Live returns the number of live handles.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.meshes) + len(r.materials)
}

// Reset releases every live handle.
func (r *Registry) Reset() {
	r.mu.Lock()
	var handles []scene.Handle
	for h := range r.meshes {
		handles = append(handles, h)
	}
	for h := range r.materials {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		r.Release(h)
	}
}
