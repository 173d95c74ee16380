package scene

import (
	"sync"

	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/material"
)

// Handle identifies a renderer-side resource. Zero is never a live handle.
type Handle uint64

// Allocator creates and frees renderer resources. Every renderer satisfies it.
type Allocator interface {
	AllocMesh(m *geometry.Mesh) Handle
	AllocMaterial(m *material.Material) Handle
	Release(h Handle)
}

// Arena owns every handle allocated for one assembled subtree.
type Arena struct {
	mu       sync.Mutex
	alloc    Allocator
	handles  []Handle
	released bool
}

// NewArena returns an arena over alloc. A nil allocator hands out zero
// handles, which is enough for CPU-only use.
func NewArena(alloc Allocator) *Arena {
	return &Arena{alloc: alloc}
}

// Mesh allocates a mesh handle owned by the arena.
func (a *Arena) Mesh(m *geometry.Mesh) Handle {
	if a.alloc == nil {
		return 0
	}
	h := a.alloc.AllocMesh(m)
	a.track(h)
	return h
}

// Material allocates a material handle owned by the arena.
func (a *Arena) Material(m *material.Material) Handle {
	if a.alloc == nil {
		return 0
	}
	h := a.alloc.AllocMaterial(m)
	a.track(h)
	return h
}

func (a *Arena) track(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handles = append(a.handles, h)
}

// Len returns the number of live handles.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.handles)
}

// Released reports whether Release has run.
func (a *Arena) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}

// Release frees every handle. Calling it again does nothing.
func (a *Arena) Release() {
	a.mu.Lock()
	handles := a.handles
	a.handles = nil
	done := a.released
	a.released = true
	a.mu.Unlock()

	if done || a.alloc == nil {
		return
	}
	for _, h := range handles {
		a.alloc.Release(h)
	}
}
