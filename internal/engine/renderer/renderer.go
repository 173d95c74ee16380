// Package renderer defines the contract between the viewport and the
// backends that draw the live scene.
package renderer

import (
	"errors"
	"image"

	"github.com/Faultbox/crystalview/internal/engine/camera"
	"github.com/Faultbox/crystalview/internal/engine/lighting"
	"github.com/Faultbox/crystalview/internal/engine/scene"
	"github.com/Faultbox/crystalview/pkg/formats"
)

var (
	// ErrNotInitialized is returned when drawing before Init.
	ErrNotInitialized = errors.New("renderer not initialized")
	// ErrNoCamera is returned for a frame without a camera.
	ErrNoCamera = errors.New("frame has no camera")
)

// Config holds renderer configuration.
type Config struct {
	Width       int
	Height      int
	Antialias   bool
	Transparent bool
	Background  formats.Color
}

// Frame is everything needed to draw one image.
type Frame struct {
	Root     *scene.Object
	Overlays []*scene.Object // drawn after Root, without depth test against it
	Camera   *camera.OrthoCamera
	Lights   []lighting.Light
}

// Renderer draws frames. Allocation and release may happen from any
// goroutine; Init, Resize, Render, ReadPixels and Destroy run on the render
// thread.
type Renderer interface {
	scene.Allocator

	Init(cfg Config) error
	Resize(width, height int)
	Render(f *Frame) error
	ReadPixels() (*image.NRGBA, error)
	Destroy()
}
