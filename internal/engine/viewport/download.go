package viewport

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/engine/export"
)

// Download renders the current view and encodes it on a goroutine. Raster
// formats encode the rendered frame; exchange formats encode a world-space
// snapshot of the visible geometry. Exactly one Result is delivered.
func (c *Controller) Download(ctx context.Context, filename string, f export.Format) <-chan export.Result {
	name := export.Filename(filename, f)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mounted(); err != nil {
		return export.Failed(name, f, err)
	}
	if err := c.render(); err != nil {
		return export.Failed(name, f, err)
	}

	c.logger.Info("download requested", zap.String("filename", name), zap.String("format", string(f)))

	if f.Raster() {
		img, err := c.r.ReadPixels()
		if err != nil {
			return export.Failed(name, f, err)
		}
		return export.Async(ctx, name, f, func(w io.Writer) error {
			return export.EncodeImage(img, f, w)
		})
	}

	snap := export.TakeSnapshot(c.root)
	snap.Name = c.snapshotName()
	return export.Async(ctx, name, f, func(w io.Writer) error {
		return export.EncodeSnapshot(snap, f, w)
	})
}

// snapshotName names the export after the single scene, when there is one.
func (c *Controller) snapshotName() string {
	if len(c.root.Children) == 1 && c.root.Children[0].Name != "" {
		return c.root.Children[0].Name
	}
	return RootName
}
