package opengl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/crystalview/internal/engine/geometry"
	"github.com/Faultbox/crystalview/internal/engine/renderer"
	"github.com/Faultbox/crystalview/internal/engine/scene"
)

// These tests cover the parts that never touch a GL context.

func TestRenderer_ReleaseIsQueued(t *testing.T) {
	r := New(nil)
	h := r.AllocMesh(geometry.UnitBox())

	r.Release(h)
	r.Release(h)
	assert.Equal(t, []scene.Handle{h}, r.pending)

	r.flushReleases()
	assert.Empty(t, r.pending)
	assert.Zero(t, r.Live())
}

func TestRenderer_NotInitialized(t *testing.T) {
	r := New(nil)
	assert.ErrorIs(t, r.Render(&renderer.Frame{}), renderer.ErrNotInitialized)
	_, err := r.ReadPixels()
	assert.ErrorIs(t, err, renderer.ErrNotInitialized)
	r.Destroy()
}
