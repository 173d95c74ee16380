// Package viewport owns the live scene of one view: its renderer, camera,
// scene graph and overlays, and the cooperative frame loop that draws them.
package viewport

import (
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrNotMounted is returned when an operation needs a mounted viewport.
	ErrNotMounted = errors.New("viewport not mounted")
	// ErrAlreadyMounted is returned by a second Mount.
	ErrAlreadyMounted = errors.New("viewport already mounted")
	// ErrDisposed is returned after Dispose.
	ErrDisposed = errors.New("viewport disposed")
)

// State is the lifecycle state of a Controller.
type State int

const (
	Uninitialized State = iota
	Mounted
	Rendering // continuous mode, draws every frame
	Idle      // static mode, draws only when invalidated
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Mounted:
		return "mounted"
	case Rendering:
		return "rendering"
	case Idle:
		return "idle"
	case Disposed:
		return "disposed"
	}
	return "invalid"
}

// Element is the surface the viewport is mounted into.
type Element interface {
	Size() (width, height int)
}

// Size is a fixed-size Element.
type Size struct {
	Width, Height int
}

// Size implements Element.
func (s Size) Size() (int, int) {
	return s.Width, s.Height
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The controller id is added to every entry.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSelectionBox outlines the last picked object.
func WithSelectionBox(on bool) Option {
	return func(c *Controller) {
		c.selectionBox = on
	}
}

// WithLightHelperSize sets the marker size of light helpers, in world units.
func WithLightHelperSize(size float64) Option {
	return func(c *Controller) {
		if size > 0 {
			c.helperSize = size
		}
	}
}
