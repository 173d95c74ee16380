// Package component is the host-facing surface of a viewer instance: it
// takes scene data and settings, forwards interaction to the viewport and
// reports selections and downloads back through callbacks.
package component

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/engine/export"
	"github.com/Faultbox/crystalview/internal/engine/renderer"
	"github.com/Faultbox/crystalview/internal/engine/renderer/software"
	"github.com/Faultbox/crystalview/internal/engine/viewport"
	"github.com/Faultbox/crystalview/internal/logger"
	"github.com/Faultbox/crystalview/pkg/formats"
)

// Selection is reported to the click handler.
type Selection struct {
	Reference any
	Count     int
}

// DownloadRequest asks for a file of the current scene. A request is acted
// on only when RequestCount is larger than every count seen before.
type DownloadRequest struct {
	RequestCount int
	Filename     string
	Filetype     string
}

// DownloadHandler receives finished downloads.
type DownloadHandler func(filename string, data []byte) error

// Option configures a Component.
type Option func(*Component)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Component) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOutputDir sets where the default download handler writes files.
func WithOutputDir(dir string) Option {
	return func(c *Component) {
		c.outputDir = dir
	}
}

// WithViewportOptions passes options through to the viewport.
func WithViewportOptions(opts ...viewport.Option) Option {
	return func(c *Component) {
		c.vpOpts = append(c.vpOpts, opts...)
	}
}

// Component is one mounted viewer instance.
type Component struct {
	id        uuid.UUID
	logger    *zap.Logger
	outputDir string
	vpOpts    []viewport.Option

	vp *viewport.Controller

	mu            sync.Mutex
	selectedRef   any
	selectedCount int
	lastRequest   int
	onClick       func(Selection)
	onDownload    DownloadHandler
	unmounted     bool
}

// Mount creates the viewport inside el and shows data, which may be nil.
// Settings with renderer "svg" draw with the software rasterizer; otherwise
// r is used, falling back to the software rasterizer when r is nil.
func Mount(el viewport.Element, r renderer.Renderer, data *formats.SceneNode, settings formats.Settings, opts ...Option) (*Component, error) {
	c := &Component{
		id:        uuid.New(),
		logger:    logger.Named("component"),
		outputDir: ".",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", c.id.String()))
	c.onDownload = c.writeFile

	switch {
	case settings.Renderer == formats.RendererSVG:
		r = software.New(c.logger.Named("software"))
	case r == nil:
		c.logger.Warn("no renderer supplied, using the software rasterizer", zap.String("renderer", settings.Renderer))
		r = software.New(c.logger.Named("software"))
	}

	vp, err := viewport.New(r, settings, append([]viewport.Option{viewport.WithLogger(c.logger)}, c.vpOpts...)...)
	if err != nil {
		return nil, err
	}
	if err := vp.Mount(el); err != nil {
		vp.Dispose()
		return nil, err
	}
	c.vp = vp

	if data != nil {
		if err := c.Update(data); err != nil {
			vp.Dispose()
			return nil, err
		}
	}
	c.logger.Info("component mounted", zap.String("renderer", settings.Renderer))
	return c, nil
}

// ID returns the instance id.
func (c *Component) ID() uuid.UUID {
	return c.id
}

// Viewport exposes the controller for camera interaction and the frame loop.
func (c *Component) Viewport() *viewport.Controller {
	return c.vp
}

// Update replaces the scene with data and draws it.
func (c *Component) Update(data *formats.SceneNode) error {
	if err := c.vp.UpdateScene(data); err != nil {
		return err
	}
	_, err := c.vp.Frame(0)
	return err
}

// Remove takes the scene with the given root name out of the view and
// releases its resources. It reports whether the scene was shown.
func (c *Component) Remove(name string) bool {
	if !c.vp.RemoveScene(name) {
		return false
	}
	if _, err := c.vp.Frame(0); err != nil {
		c.logger.Warn("render after remove failed", zap.Error(err))
	}
	return true
}

// SetVisibility shows or hides named nodes; zero hides, anything else shows.
func (c *Component) SetVisibility(visibility map[string]int) {
	m := make(map[string]bool, len(visibility))
	for name, v := range visibility {
		m[name] = v != 0
	}
	c.vp.ToggleVisibility(m)
}

// SetClickHandler sets the callback for picked objects.
func (c *Component) SetClickHandler(fn func(Selection)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClick = fn
}

// SetDownloadHandler replaces the default handler, which writes files into
// the output directory.
func (c *Component) SetDownloadHandler(fn DownloadHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		fn = c.writeFile
	}
	c.onDownload = fn
}

// Click picks at pixel (x, y). A hit becomes the selection and is reported
// to the click handler.
func (c *Component) Click(x, y float32) (Selection, bool) {
	ref, ok := c.vp.Pick(x, y)
	if !ok {
		return Selection{}, false
	}

	c.mu.Lock()
	c.selectedRef = ref
	c.selectedCount++
	sel := Selection{Reference: ref, Count: c.selectedCount}
	fn := c.onClick
	c.mu.Unlock()

	if fn != nil {
		fn(sel)
	}
	return sel, true
}

// Hover returns the tooltip under pixel (x, y).
func (c *Component) Hover(x, y float32) (string, bool) {
	return c.vp.Hover(x, y)
}

// SelectedObjectReference returns the reference of the last picked object.
func (c *Component) SelectedObjectReference() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedRef
}

// SelectedObjectCount returns how many picks have hit an object.
func (c *Component) SelectedObjectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedCount
}

// RequestDownload starts a download for a new request. It reports whether
// the request was acted on; done then receives the outcome once the file
// has been handed to the download handler.
func (c *Component) RequestDownload(ctx context.Context, req DownloadRequest) (done <-chan error, started bool) {
	c.mu.Lock()
	if c.unmounted || req.RequestCount <= c.lastRequest {
		c.mu.Unlock()
		return nil, false
	}
	c.lastRequest = req.RequestCount
	handler := c.onDownload
	c.mu.Unlock()

	out := make(chan error, 1)
	f, err := export.ParseFormat(req.Filetype)
	if err != nil {
		out <- err
		close(out)
		return out, true
	}

	results := c.vp.Download(ctx, req.Filename, f)
	go func() {
		defer close(out)
		res := <-results
		if res.Err != nil {
			c.logger.Error("download failed", zap.String("filename", res.Filename), zap.Error(res.Err))
			out <- res.Err
			return
		}
		if err := handler(res.Filename, res.Data); err != nil {
			c.logger.Error("download handler failed", zap.String("filename", res.Filename), zap.Error(err))
			out <- err
			return
		}
		c.logger.Info("download delivered", zap.String("filename", res.Filename), zap.Int("bytes", len(res.Data)))
		out <- nil
	}()
	return out, true
}

func (c *Component) writeFile(filename string, data []byte) error {
	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(c.outputDir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Unmount disposes the viewport. Calling it again does nothing.
func (c *Component) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	c.mu.Unlock()

	c.vp.Dispose()
	c.logger.Info("component unmounted")
}
