package debug

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/Faultbox/crystalview/internal/engine/export"
)

// ScreenshotCapture writes rendered frames to timestamped files.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	format    export.Format
	now       func() time.Time
}

// NewScreenshotCapture creates a capture handler writing PNG files.
func NewScreenshotCapture(outputDir, prefix string) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		format:    export.PNG,
		now:       time.Now,
	}
}

// SetOutputDir sets the output directory for screenshots.
func (sc *ScreenshotCapture) SetOutputDir(dir string) {
	sc.outputDir = dir
}

// SetFormat selects the image format. Only raster formats are accepted.
func (sc *ScreenshotCapture) SetFormat(f export.Format) error {
	if !f.Raster() {
		return fmt.Errorf("%w: %s is not an image format", export.ErrUnknownFormat, f)
	}
	sc.format = f
	return nil
}

// GenerateFilename returns the path the next capture would be written to.
func (sc *ScreenshotCapture) GenerateFilename() string {
	timestamp := sc.now().Format("2006-01-02_15-04-05")
	filename := export.Filename(fmt.Sprintf("%s_%s", sc.prefix, timestamp), sc.format)
	if sc.outputDir != "" {
		filename = filepath.Join(sc.outputDir, filename)
	}
	return filename
}

// Capture encodes img into a new file and returns its path.
func (sc *ScreenshotCapture) Capture(img image.Image) (string, error) {
	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := sc.GenerateFilename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := export.EncodeImage(img, sc.format, file); err != nil {
		return "", fmt.Errorf("encoding %s: %w", sc.format, err)
	}
	return filename, nil
}
