package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	placeholderSize  = 1024
	placeholderScale = 4
)

var (
	placeholderBackground = color.RGBA{R: 50, G: 50, B: 80, A: 255}
	placeholderInk        = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// Placeholder renders the stand-in PNG for scene number n (1-based): a flat
// 1024x1024 canvas with "Image n" and the label centered on it.
func Placeholder(n int, label string) ([]byte, error) {
	// The text is drawn on a quarter-size canvas and scaled up so the fixed 7x13
	// face stays legible.
	small := image.NewRGBA(image.Rect(0, 0, placeholderSize/placeholderScale, placeholderSize/placeholderScale))
	draw.Draw(small, small.Bounds(), image.NewUniform(placeholderBackground), image.Point{}, draw.Src)

	lines := []string{fmt.Sprintf("Image %d", n), label}
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 2
	top := (small.Bounds().Dy()-lineHeight*len(lines))/2 + face.Metrics().Ascent.Ceil()

	d := &font.Drawer{Dst: small, Src: image.NewUniform(placeholderInk), Face: face}
	for i, line := range lines {
		width := d.MeasureString(line).Ceil()
		d.Dot = fixed.P((small.Bounds().Dx()-width)/2, top+i*lineHeight)
		d.DrawString(line)
	}

	full := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	draw.NearestNeighbor.Scale(full, full.Bounds(), small, small.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, full); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
