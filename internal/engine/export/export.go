// Package export serializes the live scene: raster formats from the rendered
// frame, exchange formats from a world-space geometry snapshot.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrExport wraps every failure reported through a Result.
	ErrExport = errors.New("export failed")
	// ErrUnknownFormat is returned for an unsupported file type.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Format is an output file type.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	GLB  Format = "glb"
	GLTF Format = "gltf"
	STL  Format = "stl"
	DAE  Format = "dae"
)

var aliases = map[string]Format{
	"png":  PNG,
	"jpg":  JPEG,
	"jpeg": JPEG,
	"bmp":  BMP,
	"tif":  TIFF,
	"tiff": TIFF,
	"glb":  GLB,
	"gltf": GLTF,
	"stl":  STL,
	"dae":  DAE,
}

// ParseFormat accepts a file type name, case-insensitive, with or without a
// leading dot.
func ParseFormat(s string) (Format, error) {
	f, ok := aliases[strings.ToLower(strings.TrimPrefix(s, "."))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Formats lists every supported format.
func Formats() []Format {
	return []Format{PNG, JPEG, BMP, TIFF, GLB, GLTF, STL, DAE}
}

// Raster reports whether f is encoded from the rendered frame.
func (f Format) Raster() bool {
	switch f {
	case PNG, JPEG, BMP, TIFF:
		return true
	}
	return false
}

// Extension returns the file extension of the produced file. Collada is
// delivered zipped.
func (f Format) Extension() string {
	if f == DAE {
		return ".zip"
	}
	return "." + string(f)
}

// Filename derives the output name from a requested name, replacing a known
// extension or appending the format's.
func Filename(name string, f Format) string {
	if name == "" {
		name = "scene"
	}
	ext := filepath.Ext(name)
	if _, err := ParseFormat(ext); err == nil || strings.EqualFold(ext, ".zip") {
		name = strings.TrimSuffix(name, ext)
	}
	return name + f.Extension()
}

// Result is the outcome of one export.
type Result struct {
	Filename string
	Format   Format
	Data     []byte
	Err      error
}

// Async runs encode on its own goroutine and delivers exactly one Result on
// the returned channel. A cancelled ctx reports ctx.Err() wrapped in
// ErrExport.
func Async(ctx context.Context, filename string, f Format, encode func(io.Writer) error) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		res := Result{Filename: filename, Format: f}
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("%w: %w", ErrExport, err)
			out <- res
			return
		}
		var buf bytes.Buffer
		if err := encode(&buf); err != nil {
			res.Err = fmt.Errorf("%w: %s: %w", ErrExport, f, err)
			out <- res
			return
		}
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("%w: %w", ErrExport, err)
			out <- res
			return
		}
		res.Data = buf.Bytes()
		out <- res
	}()
	return out
}

// Failed returns a channel holding a single failed Result.
func Failed(filename string, f Format, err error) <-chan Result {
	out := make(chan Result, 1)
	out <- Result{Filename: filename, Format: f, Err: fmt.Errorf("%w: %w", ErrExport, err)}
	close(out)
	return out
}

// EncodeSnapshot writes s in an exchange format.
func EncodeSnapshot(s *Snapshot, f Format, w io.Writer) error {
	switch f {
	case GLB:
		return EncodeGLTF(s, true, w)
	case GLTF:
		return EncodeGLTF(s, false, w)
	case STL:
		return EncodeSTL(s, w)
	case DAE:
		return EncodeColladaZip(s, w)
	}
	return fmt.Errorf("%w: %q is not an exchange format", ErrUnknownFormat, f)
}
