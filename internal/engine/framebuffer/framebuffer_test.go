package framebuffer

import "testing"

func TestFlipRows(t *testing.T) {
	// Two rows of one pixel each, bottom row first.
	pixels := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}
	img := FlipRows(pixels, 1, 2)

	if got := img.NRGBAAt(0, 0); got.R != 5 || got.A != 8 {
		t.Errorf("top row should come from the last GL row, got %v", got)
	}
	if got := img.NRGBAAt(0, 1); got.R != 1 || got.A != 4 {
		t.Errorf("bottom row should come from the first GL row, got %v", got)
	}
}
