package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Faultbox/crystalview/pkg/formats"
)

// LabelFace is the font used for scene labels.
var LabelFace = basicfont.Face7x13

// TextImage renders text on a transparent background, tightly sized to the
// line. Empty text gives nil.
func TextImage(text string, c formats.Color) *image.NRGBA {
	if text == "" {
		return nil
	}
	m := LabelFace.Metrics()
	width := font.MeasureString(LabelFace, text).Ceil()
	height := m.Height.Ceil()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	rgb := c.Array()
	d := &font.Drawer{
		Dst: img,
		Src: image.NewUniform(color.NRGBA{
			R: uint8(rgb[0]*255 + 0.5),
			G: uint8(rgb[1]*255 + 0.5),
			B: uint8(rgb[2]*255 + 0.5),
			A: 255,
		}),
		Face: LabelFace,
		Dot:  fixed.Point26_6{Y: m.Ascent},
	}
	d.DrawString(text)
	return img
}
