package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	w, h, err := ParseSize("1280x720")
	require.NoError(t, err)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	w, h, err = ParseSize(" 720X1280 ")
	require.NoError(t, err)
	assert.Equal(t, 720, w)
	assert.Equal(t, 1280, h)

	for _, bad := range []string{"", "1280", "x720", "1280x", "0x720", "-5x5", "axb"} {
		_, _, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFitImage_ScalesToTarget(t *testing.T) {
	src := solidPNG(t, 64, 64, color.RGBA{R: 10, G: 200, B: 30, A: 255})

	out, err := FitImage(src, 128, 72)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 72, img.Bounds().Dy())

	r, g, b, _ := img.At(64, 36).RGBA()
	assert.InDelta(t, 10, int(r>>8), 1)
	assert.InDelta(t, 200, int(g>>8), 1)
	assert.InDelta(t, 30, int(b>>8), 1)
}

func TestFitImage_RejectsGarbage(t *testing.T) {
	_, err := FitImage([]byte("not an image"), 10, 10)
	assert.Error(t, err)
}

func TestCenterCrop(t *testing.T) {
	// Square source into a wide target keeps full width and trims top and bottom.
	assert.Equal(t, image.Rect(0, 25, 100, 75), centerCrop(image.Rect(0, 0, 100, 100), 200, 100))
	// Square source into a tall target keeps full height and trims the sides.
	assert.Equal(t, image.Rect(25, 0, 75, 100), centerCrop(image.Rect(0, 0, 100, 100), 100, 200))
	// Matching aspect is untouched.
	assert.Equal(t, image.Rect(0, 0, 160, 90), centerCrop(image.Rect(0, 0, 160, 90), 1280, 720))
}
