// Package viewer implements the interactive scene viewer: an SDL2 window
// hosting one component with an OpenGL renderer.
package viewer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/component"
	"github.com/Faultbox/crystalview/internal/config"
	"github.com/Faultbox/crystalview/internal/engine/debug"
	"github.com/Faultbox/crystalview/internal/engine/input"
	"github.com/Faultbox/crystalview/internal/engine/renderer/opengl"
	"github.com/Faultbox/crystalview/internal/engine/viewport"
	"github.com/Faultbox/crystalview/internal/engine/window"
	"github.com/Faultbox/crystalview/internal/logger"
	"github.com/Faultbox/crystalview/internal/watch"
	"github.com/Faultbox/crystalview/pkg/formats"
)

const title = "crystalview"

// Viewer is the main viewer instance.
type Viewer struct {
	cfg     *config.Config
	running bool
	log     *zap.Logger

	window   *window.Window
	renderer *opengl.Renderer
	input    *input.Input
	comp     *component.Component
	shots    *debug.ScreenshotCapture

	ctx    context.Context
	cancel context.CancelFunc

	scenePath string
	node      *formats.SceneNode
	groups    []group
	watcher   *watch.Watcher

	// Filled by dialog goroutines, drained on the main thread.
	openPaths   chan string
	exportPaths chan string

	drag      dragState
	downloads int
	hover     string
}

// New creates the window and GL renderer and mounts the component. An
// empty scenePath starts with an empty scene.
func New(cfg *config.Config, scenePath string) (*Viewer, error) {
	v := &Viewer{
		cfg:         cfg,
		log:         logger.Named("viewer"),
		openPaths:   make(chan string, 1),
		exportPaths: make(chan string, 1),
	}
	v.ctx, v.cancel = context.WithCancel(context.Background())

	settings := cfg.Scene
	if settings.Renderer == formats.RendererSVG {
		v.log.Warn("the software renderer is headless, use scenetool render; drawing with OpenGL")
		settings.Renderer = formats.RendererWebGL
	}

	samples := 0
	if settings.Antialias {
		samples = 4
	}

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer is initialized by the viewport, after the GL context exists
	v.renderer = opengl.New(logger.Named("opengl"))
	v.comp, err = component.Mount(v.window, v.renderer, nil, settings,
		component.WithLogger(logger.Named("component")),
		component.WithOutputDir(cfg.Export.OutputDir),
		component.WithViewportOptions(viewport.WithSelectionBox(true)),
	)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to mount viewer: %w", err)
	}
	v.comp.SetClickHandler(v.onSelect)

	v.input = input.New()
	v.shots = debug.NewScreenshotCapture(cfg.Export.OutputDir, cfg.Export.Prefix)

	if scenePath != "" {
		if err := v.Open(scenePath); err != nil {
			v.Close()
			return nil, err
		}
	}

	v.log.Info("viewer initialized")
	return v, nil
}

// Open loads a scene file, replacing the current scene, and starts watching
// it when live reload is enabled. A scene with a different root name is
// removed once the new one is shown; a failed load keeps the current scene.
func (v *Viewer) Open(path string) error {
	prev := v.node
	if err := v.load(path); err != nil {
		return err
	}
	if prev != nil && prev.Name != v.node.Name {
		v.comp.Remove(prev.Name)
	}
	v.scenePath = path
	v.watchScene()
	return nil
}

func (v *Viewer) load(path string) error {
	node, problems, err := formats.ParseSceneFile(path)
	if err != nil {
		return fmt.Errorf("loading scene: %w", err)
	}
	for _, p := range problems {
		v.log.Warn("scene problem", zap.String("file", path), zap.Error(p))
	}
	if err := v.comp.Update(node); err != nil {
		return fmt.Errorf("showing scene: %w", err)
	}
	v.node = node
	v.groups = groupsOf(node)
	v.window.SetTitle(fmt.Sprintf("%s | %s", title, node.Name))
	v.log.Info("scene loaded",
		zap.String("file", path),
		zap.String("name", node.Name),
		zap.Int("primitives", node.CountPrimitives()),
		zap.Int("problems", len(problems)))
	return nil
}

func (v *Viewer) watchScene() {
	if !v.cfg.Watch.Enabled {
		return
	}
	if v.watcher != nil {
		v.watcher.Close()
		v.watcher = nil
	}
	w, err := watch.New(v.scenePath, time.Duration(v.cfg.Watch.Debounce)*time.Millisecond, logger.Named("watch"))
	if err != nil {
		v.log.Warn("live reload disabled", zap.Error(err))
		return
	}
	v.watcher = w
	go w.Run(v.ctx)
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	vp := v.comp.Viewport()

	v.log.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		for _, event := range v.input.Events() {
			v.handle(event)
		}

		// 2. Pending work from dialogs and the file watcher
		v.drain()

		// 3. Render when needed
		if _, err := vp.Frame(float32(dt)); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		// 4. Present (swap buffers)
		w, h := v.window.Size()
		v.renderer.Present(w, h)
		v.window.SwapBuffers()

		if v.cfg.Window.FPSLimit > 0 {
			budget := time.Second / time.Duration(v.cfg.Window.FPSLimit)
			if spent := time.Since(now); spent < budget {
				time.Sleep(budget - spent)
			}
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) drain() {
	var changed <-chan string
	if v.watcher != nil {
		changed = v.watcher.Changes()
	}
	select {
	case path := <-v.openPaths:
		if err := v.Open(path); err != nil {
			v.log.Error("open failed", zap.String("file", path), zap.Error(err))
		}
	case path := <-v.exportPaths:
		v.export(path)
	case <-changed:
		v.log.Info("scene file changed, reloading", zap.String("file", v.scenePath))
		if err := v.load(v.scenePath); err != nil {
			v.log.Error("reload failed", zap.Error(err))
		}
	default:
	}
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	v.cancel()
	if v.watcher != nil {
		v.watcher.Close()
	}
	if v.comp != nil {
		v.comp.Unmount()
	}
	if v.window != nil {
		v.window.Close()
	}
}
