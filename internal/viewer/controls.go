package viewer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/component"
	"github.com/Faultbox/crystalview/internal/engine/export"
	"github.com/Faultbox/crystalview/internal/engine/input"
	"github.com/Faultbox/crystalview/pkg/formats"
	"github.com/Faultbox/crystalview/pkg/math"
)

// clickSlop is how far, in pixels, the pointer may move between press and
// release for the gesture to count as a click.
const clickSlop = 4

type dragState struct {
	button uint8
	travel float32 // window pixels moved since the press
}

// group is a top-level node of the scene that the keyboard can toggle.
type group struct {
	name    string
	visible bool
}

func groupsOf(node *formats.SceneNode) []group {
	var out []group
	for i := range node.Contents {
		c := &node.Contents[i]
		out = append(out, group{name: c.Name, visible: c.IsVisible()})
	}
	return out
}

// cursor returns the event position in drawable pixels.
func (v *Viewer) cursor(event input.Event) math.Vec2 {
	return math.Vec2{X: float32(event.MouseX), Y: float32(event.MouseY)}.Scale(v.window.PixelScale())
}

func (v *Viewer) handle(event input.Event) {
	vp := v.comp.Viewport()

	switch event.Type {
	case input.EventWindowResize:
		w, h := v.window.Size()
		vp.Resize(w, h)

	case input.EventMouseDown:
		v.drag = dragState{button: event.Button}

	case input.EventMouseUp:
		if event.Button == sdl.BUTTON_LEFT && v.drag.button == sdl.BUTTON_LEFT && v.drag.travel <= clickSlop {
			p := v.cursor(event)
			v.comp.Click(p.X, p.Y)
		}
		v.drag = dragState{}

	case input.EventMouseMove:
		delta := math.Vec2{X: float32(event.DeltaX), Y: float32(event.DeltaY)}
		d := delta.Scale(v.window.PixelScale())
		switch {
		case v.input.ButtonDown(sdl.BUTTON_LEFT):
			v.drag.travel += delta.Length()
			if v.drag.travel > clickSlop {
				vp.Rotate(d.X, d.Y)
			}
		case v.input.ButtonDown(sdl.BUTTON_RIGHT), v.input.ButtonDown(sdl.BUTTON_MIDDLE):
			vp.Pan(d.X, d.Y)
		default:
			p := v.cursor(event)
			v.updateHover(p.X, p.Y)
		}

	case input.EventMouseWheel:
		vp.Zoom(float32(event.DeltaY))

	case input.EventFileDrop:
		v.queue(v.openPaths, event.Path)

	case input.EventKeyDown:
		v.key(event)
	}
}

func (v *Viewer) key(event input.Event) {
	switch event.Key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_R:
		v.comp.Viewport().ResetCamera()
	case sdl.SCANCODE_V:
		v.toggleAll()
	case sdl.SCANCODE_S:
		v.screenshot()
	case sdl.SCANCODE_E:
		if v.cfg.Export.UseDialog {
			v.askExportPath()
		} else {
			v.export("")
		}
	case sdl.SCANCODE_O:
		v.askScenePath()
	default:
		if event.Key >= sdl.SCANCODE_1 && event.Key <= sdl.SCANCODE_9 {
			v.toggle(int(event.Key - sdl.SCANCODE_1))
		}
	}
}

// toggle flips the i-th top-level group.
func (v *Viewer) toggle(i int) {
	if i >= len(v.groups) {
		return
	}
	g := &v.groups[i]
	g.visible = !g.visible
	v.comp.SetVisibility(map[string]int{g.name: visibility(g.visible)})
	v.log.Info("group toggled", zap.String("group", g.name), zap.Bool("visible", g.visible))
}

// toggleAll flips every top-level group.
func (v *Viewer) toggleAll() {
	m := make(map[string]int, len(v.groups))
	for i := range v.groups {
		g := &v.groups[i]
		g.visible = !g.visible
		m[g.name] = visibility(g.visible)
	}
	v.comp.SetVisibility(m)
}

func visibility(on bool) int {
	if on {
		return 1
	}
	return 0
}

func (v *Viewer) updateHover(x, y float32) {
	tip, _ := v.comp.Hover(x, y)
	if tip == v.hover {
		return
	}
	v.hover = tip
	name := ""
	if v.node != nil {
		name = v.node.Name
	}
	if tip != "" {
		v.window.SetTitle(fmt.Sprintf("%s | %s | %s", title, name, tip))
	} else {
		v.window.SetTitle(fmt.Sprintf("%s | %s", title, name))
	}
}

func (v *Viewer) onSelect(sel component.Selection) {
	fmt.Printf("selected %v (%d)\n", sel.Reference, sel.Count)
	v.log.Info("object selected", zap.Any("reference", sel.Reference), zap.Int("count", sel.Count))
}

func (v *Viewer) screenshot() {
	if _, err := v.comp.Viewport().Frame(0); err != nil {
		v.log.Error("screenshot render failed", zap.Error(err))
		return
	}
	img, err := v.renderer.ReadPixels()
	if err != nil {
		v.log.Error("screenshot read failed", zap.Error(err))
		return
	}
	path, err := v.shots.Capture(img)
	if err != nil {
		v.log.Error("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// export downloads the scene in the configured format, or in the format
// implied by path when one was chosen.
func (v *Viewer) export(path string) {
	filetype := v.cfg.Export.Format
	if path != "" {
		ext := filepath.Ext(path)
		if f, err := export.ParseFormat(ext); err == nil {
			filetype = string(f)
		} else if ext == ".zip" {
			filetype = string(export.DAE)
		}
	}
	name := "scene"
	if v.node != nil && v.node.Name != "" {
		name = v.node.Name
	}

	if path != "" {
		v.comp.SetDownloadHandler(func(_ string, data []byte) error {
			return os.WriteFile(path, data, 0644)
		})
		name = path
	} else {
		v.comp.SetDownloadHandler(nil)
	}

	v.downloads++
	done, ok := v.comp.RequestDownload(v.ctx, component.DownloadRequest{
		RequestCount: v.downloads,
		Filename:     filepath.Base(name),
		Filetype:     filetype,
	})
	if !ok {
		return
	}
	go func() {
		if err := <-done; err != nil {
			v.log.Error("export failed", zap.Error(err))
			return
		}
		v.log.Info("export finished", zap.String("format", filetype))
	}()
}

// Dialogs block, so they run on their own goroutine and hand the result to
// the main loop.
func (v *Viewer) askScenePath() {
	go func() {
		path, err := dialog.File().
			Filter("Scene JSON", "json").
			Filter("All Files", "*").
			Title("Open Scene").
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				v.log.Warn("file dialog error", zap.Error(err))
			}
			return
		}
		v.queue(v.openPaths, path)
	}()
}

func (v *Viewer) askExportPath() {
	go func() {
		path, err := dialog.File().
			Filter("glTF Binary", "glb").
			Filter("glTF", "gltf").
			Filter("STL", "stl").
			Filter("Collada (zip)", "zip").
			Filter("Images", "png", "jpg", "bmp", "tiff").
			Title("Export Scene").
			Save()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				v.log.Warn("file dialog error", zap.Error(err))
			}
			return
		}
		v.queue(v.exportPaths, path)
	}()
}

func (v *Viewer) queue(ch chan string, path string) {
	select {
	case ch <- path:
	case <-v.ctx.Done():
	default:
		v.log.Warn("request dropped, another one is pending", zap.String("path", path))
	}
}
