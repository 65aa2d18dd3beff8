package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessConvertsToWebp(t *testing.T) {
	out, err := Process(bytes.NewReader(pngBytes(t, 12, 8)))
	require.NoError(t, err)

	assert.Equal(t, "png", out.Source)
	assert.Equal(t, 12, out.Width)
	assert.Equal(t, 8, out.Height)
	assert.Equal(t, int64(out.Body.Len()), out.Size)

	decoded, err := webp.Decode(out.Body)
	require.NoError(t, err)
	assert.Equal(t, 12, decoded.Bounds().Dx())
}

func TestProcessRejectsGarbage(t *testing.T) {
	_, err := Process(strings.NewReader("definitely not an image"))
	assert.ErrorContains(t, err, "could not decode image")
}
